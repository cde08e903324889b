package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/basestats/stats-engine/internal/models"
)

const (
	defaultAPIURL = "http://localhost:8080/api/v1/games"
	seasonStart   = "2024-04-06"
)

var (
	hitResults = []models.AtBatResult{models.ResultSingle, models.ResultSingle, models.ResultSingle, models.ResultDouble, models.ResultTriple, models.ResultHomeRun}
	outResults = []models.AtBatResult{models.ResultGroundOut, models.ResultFlyOut, models.ResultLineOut, models.ResultSwingingStrikeout, models.ResultLookingStrikeout}
	fields     = []models.Position{models.PositionLeft, models.PositionCenter, models.PositionRight, models.PositionShortstop, models.PositionSecond}
)

func main() {
	apiURL := flag.String("url", defaultAPIURL, "ingest endpoint")
	users := flag.Int("users", 9, "number of players")
	games := flag.Int("games", 12, "games per player")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	rng := rand.New(rand.NewPCG(*seed, *seed))
	start, _ := time.Parse(models.GameDateLayout, seasonStart)

	var records []models.GameRecord
	for u := 0; u < *users; u++ {
		for g := 0; g < *games; g++ {
			records = append(records, sampleGame(rng, fmt.Sprintf("player-%02d", u+1), start.AddDate(0, 0, 7*g), u == 0))
		}
	}

	payload, err := json.Marshal(records)
	if err != nil {
		log.Fatalf("Failed to marshal JSON: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL, bytes.NewBuffer(payload))
	if err != nil {
		log.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Failed to send request: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %s\n", resp.Status)
	fmt.Printf("Response: %s\n", string(body))

	if resp.StatusCode != http.StatusAccepted {
		log.Fatalf("Seeding failed for %d records", len(records))
	}
	fmt.Printf("Seeded %d game records\n", len(records))
}

// sampleGame fakes one appearance: four or five plate appearances, and a
// start on the mound for the pitcher.
func sampleGame(rng *rand.Rand, userID string, date time.Time, pitcher bool) models.GameRecord {
	rec := models.GameRecord{
		Subject:  models.Subject{Kind: models.SubjectUser, ID: userID},
		Date:     date.Format(models.GameDateLayout),
		GameType: models.GameTypeOfficial,
		Opponent: fmt.Sprintf("opponent-%d", rng.IntN(6)+1),
	}
	if date.Weekday() == time.Sunday {
		rec.GameType = models.GameTypePractice
	}

	for pa := 0; pa < 4+rng.IntN(2); pa++ {
		ev := models.AtBatEvent{
			SwingCount:       rng.IntN(3),
			BatterPitchCount: 1 + rng.IntN(6),
		}
		ev.MissSwingCount = rng.IntN(ev.SwingCount + 1)
		switch roll := rng.Float64(); {
		case roll < 0.27:
			ev.Result = hitResults[rng.IntN(len(hitResults))]
			ev.Position = fields[rng.IntN(len(fields))]
		case roll < 0.37:
			ev.Result = models.ResultWalk
			ev.SwingCount, ev.MissSwingCount = 0, 0
		default:
			ev.Result = outResults[rng.IntN(len(outResults))]
			if ev.Result == models.ResultGroundOut || ev.Result == models.ResultFlyOut || ev.Result == models.ResultLineOut {
				ev.Position = fields[rng.IntN(len(fields))]
			}
		}
		rec.AtBats = append(rec.AtBats, ev)
	}
	rec.RBIs = rng.IntN(3)
	rec.Runs = rng.IntN(2)

	if pitcher {
		p := &models.PitchingRecord{
			Appearance:   models.AppearanceStarter,
			BattersFaced: 20 + rng.IntN(8),
			PitchCount:   70 + rng.IntN(30),
			Strikeouts:   rng.IntN(8),
			Walks:        rng.IntN(4),
			HitsAllowed:  rng.IntN(7),
		}
		p.InningsPitched = float64(4+rng.IntN(4)) + float64(rng.IntN(3))/10
		p.RunsAllowed = rng.IntN(5)
		p.EarnedRuns = rng.IntN(p.RunsAllowed + 1)
		if rng.IntN(2) == 0 {
			p.Decision = models.DecisionWin
		} else {
			p.Decision = models.DecisionLoss
		}
		rec.Pitching = p
	}
	return rec
}
