package logic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/basestats/stats-engine/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ApplyStreak advances state by one game. It reports false when gameID was
// already processed. Games without a plate appearance leave the running
// streaks untouched.
func ApplyStreak(state *models.StreakState, gameID string, delta models.StatDelta, date time.Time) bool {
	if state.Processed(gameID) {
		return false
	}
	state.ProcessedGameIDs = append(state.ProcessedGameIDs, gameID)

	if !delta.HadPlateAppearance() {
		return true
	}
	year := date.Year()
	advance(&state.Hit, delta.Hits > 0, year)
	advance(&state.OnBase, delta.ReachedBase(), year)
	advance(&state.NoStrikeout, !delta.StruckOut(), year)

	state.LastGameMultiHit = delta.MultiHit()
	state.LastGameCycle = delta.Cycle()
	if state.LastGameMultiHit {
		state.MultiHitGames++
	}
	if state.LastGameCycle {
		state.CycleGames++
	}
	return true
}

// advance extends the run on a positive game, otherwise closes it out against
// the stored best and resets.
func advance(s *models.Streak, positive bool, year int) {
	if positive {
		s.Current++
		s.LastYear = year
		return
	}
	if s.Current > s.Best {
		s.Best = s.Current
		s.BestYear = s.LastYear
	}
	s.Current = 0
}

func (s *aggregationService) updateStreak(ctx context.Context, subject models.Subject, gameID string, delta models.StatDelta, date time.Time) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "UpdateStreak", trace.WithAttributes(
		attribute.String("subject", subject.String()),
		attribute.String("game_id", gameID),
	))
	defer span.End()

	var updated bool
	err := s.store.Transact(ctx, models.StreakRef(subject), func(current []byte) ([]byte, error) {
		state, err := decodeStreakState(current, subject)
		if err != nil {
			return nil, err
		}
		if updated = ApplyStreak(state, gameID, delta, date); !updated {
			return nil, nil
		}
		state.UpdatedAt = s.now().UTC()
		return json.Marshal(state)
	})
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	return updated, nil
}

func decodeStreakState(body []byte, subject models.Subject) (*models.StreakState, error) {
	if body == nil {
		return models.NewStreakState(subject), nil
	}
	var state models.StreakState
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("decode streaks %s: %w", subject, err)
	}
	return &state, nil
}
