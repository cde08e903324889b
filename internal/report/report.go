// Package report renders engine output as terminal tables.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/basestats/stats-engine/internal/models"
)

// PrintLeaderboard writes the ranked entries of a board. Ineligible entries
// are listed last with a dash for rank when includeIneligible is set.
func PrintLeaderboard(w io.Writer, board *models.Leaderboard, limit int, includeIneligible bool) {
	fmt.Fprintf(w, "\n%s  |  %s  |  generated %s\n\n",
		board.Category, board.Metric, board.GeneratedAt.Format("2006-01-02 15:04"))

	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
	table.Header("RANK", "SUBJECT", "VALUE", "AGE GROUP", "GROUP RANK")

	shown := 0
	for _, e := range board.Entries {
		if !e.Eligible && !includeIneligible {
			continue
		}
		if limit > 0 && shown >= limit {
			break
		}
		table.Append(rankCell(e.Rank), e.SubjectID, formatValue(board.Metric, e.Value), e.AgeGroup, rankCell(e.AgeGroupRank))
		shown++
	}
	table.Render()
}

// PrintSnapshot writes the headline numbers of one snapshot.
func PrintSnapshot(w io.Writer, snap *models.StatSnapshot) {
	lastGame := "-"
	if !snap.GameDate.IsZero() {
		lastGame = snap.GameDate.Format(models.GameDateLayout)
	}
	fmt.Fprintf(w, "\n%s  |  %s  |  last game %s\n\n", snap.Subject, snap.Category, lastGame)

	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
	}))
	table.Header("G", "PA", "AB", "H", "HR", "RBI", "BB", "K", "AVG", "OBP", "SLG", "OPS")
	table.Append(
		strconv.Itoa(snap.Games),
		strconv.Itoa(snap.TotalBats),
		strconv.Itoa(snap.AtBats),
		strconv.Itoa(snap.Hits),
		strconv.Itoa(snap.HomeRuns),
		strconv.Itoa(snap.RBIs),
		strconv.Itoa(snap.Walks),
		strconv.Itoa(snap.Strikeouts),
		fmt.Sprintf("%.3f", snap.BattingAverage),
		fmt.Sprintf("%.3f", snap.OnBasePercentage),
		fmt.Sprintf("%.3f", snap.SluggingPercentage),
		fmt.Sprintf("%.3f", snap.OPS),
	)
	table.Render()

	if !snap.HasPitching() {
		return
	}
	pt := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
	}))
	pt.Header("PG", "W", "L", "SV", "HLD", "IP", "ER", "SO", "ERA", "WIN%")
	pt.Append(
		strconv.Itoa(snap.PitchingGames),
		strconv.Itoa(snap.Wins),
		strconv.Itoa(snap.Losses),
		strconv.Itoa(snap.Saves),
		strconv.Itoa(snap.Holds),
		inningsCell(snap.InningsOuts),
		strconv.Itoa(snap.EarnedRuns),
		strconv.Itoa(snap.PitchingStrikeouts),
		fmt.Sprintf("%.2f", snap.ERA),
		fmt.Sprintf("%.3f", snap.WinRate),
	)
	pt.Render()
}

func rankCell(rank *int) string {
	if rank == nil {
		return "-"
	}
	return strconv.Itoa(*rank)
}

// formatValue prints rates with three decimals and counts as integers.
func formatValue(metric string, v float64) string {
	switch metric {
	case "era":
		return fmt.Sprintf("%.2f", v)
	case "battingAverage", "onBasePercentage", "sluggingPercentage", "winRate":
		return fmt.Sprintf("%.3f", v)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// inningsCell renders outs in baseball notation, e.g. 17 outs is "5.2".
func inningsCell(outs int) string {
	return fmt.Sprintf("%d.%d", outs/3, outs%3)
}
