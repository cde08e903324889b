package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/basestats/stats-engine/internal/logic"
	"github.com/basestats/stats-engine/internal/models"
)

func fixedNow() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }

func TestRunRankingsCoversCurrentPeriod(t *testing.T) {
	keys := logic.CurrentPeriodCategories(fixedNow())
	ranking := &MockRanking{failOn: map[models.CategoryKey]bool{keys[1]: true}}
	s := NewScheduler(SchedulerConfig{Ranking: ranking, Logger: zap.NewNop()})
	s.now = fixedNow

	err := s.RunRankings(context.Background())
	if !errors.Is(err, errBoom) {
		t.Errorf("RunRankings error = %v, want errBoom", err)
	}
	// One failing category does not stop the rest.
	if len(ranking.ranked) != len(keys)-1 {
		t.Errorf("ranked %d categories, want %d", len(ranking.ranked), len(keys)-1)
	}
}

func TestRunRollups(t *testing.T) {
	rollup := &MockRollup{}
	s := NewScheduler(SchedulerConfig{Rollup: rollup, Logger: zap.NewNop()})
	s.now = fixedNow

	if err := s.RunRollups(context.Background()); err != nil {
		t.Fatalf("RunRollups: %v", err)
	}
	if len(rollup.keys) != 1 || len(rollup.keys[0]) != len(logic.CurrentPeriodCategories(fixedNow())) {
		t.Errorf("RollupAll called with %v", rollup.keys)
	}
}

func TestSchedulerTicks(t *testing.T) {
	ranking := &MockRanking{}
	s := NewScheduler(SchedulerConfig{
		RankingInterval: 5 * time.Millisecond,
		Ranking:         ranking,
		Logger:          zap.NewNop(),
	})
	s.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ranking.mu.Lock()
		n := len(ranking.ranked)
		ranking.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	ranking.mu.Lock()
	defer ranking.mu.Unlock()
	if len(ranking.ranked) == 0 {
		t.Error("scheduler never ran a ranking pass")
	}
}
