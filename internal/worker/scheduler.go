package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/basestats/stats-engine/internal/logic"
)

// SchedulerConfig configures the periodic jobs. A zero interval disables
// that job.
type SchedulerConfig struct {
	RollupInterval  time.Duration
	RankingInterval time.Duration
	Rollup          logic.RollupService
	Ranking         logic.RankingService
	Logger          *zap.Logger
}

// Scheduler rebuilds team roll-ups and rankings for the current period on a
// fixed cadence.
type Scheduler struct {
	config SchedulerConfig
	logger *zap.SugaredLogger
	now    func() time.Time
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	return &Scheduler{config: cfg, logger: cfg.Logger.Sugar(), now: time.Now}
}

// Start launches one goroutine per enabled job.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	if s.config.RollupInterval > 0 && s.config.Rollup != nil {
		s.every(ctx, s.config.RollupInterval, s.RunRollups)
	}
	if s.config.RankingInterval > 0 && s.config.Ranking != nil {
		s.every(ctx, s.config.RankingInterval, s.RunRankings)
	}
	s.logger.Infow("Scheduler started",
		"rollupInterval", s.config.RollupInterval,
		"rankingInterval", s.config.RankingInterval,
	)
}

// Stop cancels the jobs and waits for a running pass to return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) every(ctx context.Context, interval time.Duration, job func(context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = job(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// RunRollups rebuilds every team for the current period's categories.
func (s *Scheduler) RunRollups(ctx context.Context) error {
	keys := logic.CurrentPeriodCategories(s.now())
	if err := s.config.Rollup.RollupAll(ctx, keys); err != nil {
		s.logger.Warnw("Roll-up pass finished with errors", "error", err)
		return err
	}
	return nil
}

// RunRankings ranks each of the current period's categories. One failing
// category does not stop the rest.
func (s *Scheduler) RunRankings(ctx context.Context) error {
	var firstErr error
	for _, key := range logic.CurrentPeriodCategories(s.now()) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.config.Ranking.RankPeriod(ctx, key, nil); err != nil {
			s.logger.Warnw("Ranking pass failed", "category", key.String(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
