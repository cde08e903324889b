package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/basestats/stats-engine/internal/models"
	"github.com/basestats/stats-engine/internal/report"
)

var (
	leaderboardLimit int
	showIneligible   bool
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard <category> <metric>",
	Short: "Print a stored leaderboard",
	Args:  cobra.ExactArgs(2),
	RunE:  runLeaderboard,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <kind> <id> <category>",
	Short: "Print one subject's snapshot",
	Args:  cobra.ExactArgs(3),
	RunE:  runSnapshot,
}

func init() {
	leaderboardCmd.Flags().IntVar(&leaderboardLimit, "limit", 20, "maximum rows to print (0 for all)")
	leaderboardCmd.Flags().BoolVar(&showIneligible, "all", false, "include subjects below the qualifying threshold")
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	key, err := models.ParseCategoryKey(args[0])
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	board, err := a.ranking.GetLeaderboard(cmd.Context(), key, args[1])
	if errors.Is(err, models.ErrNotFound) {
		fmt.Fprintf(os.Stdout, "No leaderboard for %s/%s yet. Run 'statsengine rank %s' first.\n", key, args[1], key)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load leaderboard: %w", err)
	}
	report.PrintLeaderboard(os.Stdout, board, leaderboardLimit, showIneligible)
	return nil
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	kind, err := models.ParseSubjectKind(args[0])
	if err != nil {
		return err
	}
	key, err := models.ParseCategoryKey(args[2])
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.aggregation.GetSnapshot(cmd.Context(), models.Subject{Kind: kind, ID: args[1]}, key)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	report.PrintSnapshot(os.Stdout, snap)
	return nil
}
