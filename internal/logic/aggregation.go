package logic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/basestats/stats-engine/internal/models"
	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/basestats/stats-engine/internal/logic"

// gameIDNamespace seeds deterministic ids for records submitted without one,
// so a redelivered record maps to the same id.
var gameIDNamespace = uuid.MustParse("6f1d8f0e-2b7a-4c3e-9a51-0d6c1b9e4a27")

// RetryConfig bounds conflict retries.
type RetryConfig struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig retries a conflicted transaction up to five times.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxTries: 5, InitialInterval: 10 * time.Millisecond, MaxInterval: 500 * time.Millisecond}
}

// ProcessResult reports what one ProcessGame call did.
type ProcessResult struct {
	GameID        string               `json:"game_id"`
	Applied       []models.CategoryKey `json:"applied"`
	Skipped       []models.CategoryKey `json:"skipped"`
	StreakUpdated bool                 `json:"streak_updated"`
}

type aggregationService struct {
	store  DocumentStore
	logger *zap.SugaredLogger
	retry  RetryConfig
	tracer trace.Tracer
	now    func() time.Time
}

// NewAggregationService builds the aggregation engine over store.
func NewAggregationService(store DocumentStore, logger *zap.SugaredLogger, retry RetryConfig) AggregationService {
	if retry.MaxTries == 0 {
		retry = DefaultRetryConfig()
	}
	return &aggregationService{
		store:  store,
		logger: logger,
		retry:  retry,
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
}

// ApplyGame folds delta into the (subject, key) snapshot in one transaction
// attempt. It reports false without writing when gameID is already included.
// A lost race returns models.ErrConflict; the caller retries with the same delta.
func (s *aggregationService) ApplyGame(ctx context.Context, subject models.Subject, key models.CategoryKey, gameID string, delta models.StatDelta, gameDate time.Time) (*models.StatSnapshot, bool, error) {
	ctx, span := s.tracer.Start(ctx, "ApplyGame", trace.WithAttributes(
		attribute.String("subject", subject.String()),
		attribute.String("category", key.String()),
		attribute.String("game_id", gameID),
	))
	defer span.End()

	var (
		snap    *models.StatSnapshot
		applied bool
	)
	err := s.store.Transact(ctx, models.SnapshotRef(subject, key), func(current []byte) ([]byte, error) {
		var err error
		snap, err = decodeSnapshot(current, subject, key)
		if err != nil {
			return nil, err
		}
		if snap.Includes(gameID) {
			applied = false
			return nil, nil
		}
		applyDelta(snap, gameID, delta, gameDate)
		snap.UpdatedAt = s.now().UTC()
		applied = true
		return json.Marshal(snap)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "apply game failed")
		return nil, false, err
	}
	span.SetAttributes(attribute.Bool("applied", applied))
	return snap, applied, nil
}

// applyDelta is the in-memory half of ApplyGame.
func applyDelta(snap *models.StatSnapshot, gameID string, delta models.StatDelta, gameDate time.Time) {
	snap.Merge(delta.Counters)
	snap.IncludedGameIDs = append(snap.IncludedGameIDs, gameID)
	// Equal dates keep the existing watermark.
	if snap.GameDate.IsZero() || gameDate.After(snap.GameDate) {
		snap.GameDate = gameDate
	}
	refreshDerived(snap)
}

func decodeSnapshot(body []byte, subject models.Subject, key models.CategoryKey) (*models.StatSnapshot, error) {
	if body == nil {
		return models.NewSnapshot(subject, key), nil
	}
	var snap models.StatSnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s/%s: %w", subject, key, err)
	}
	if snap.IncludedGameIDs == nil {
		snap.IncludedGameIDs = []string{}
	}
	return &snap, nil
}

// ProcessGame validates rec and applies it to every routed category and to
// the subject's streaks. Each category is its own transaction, retried on
// conflict. A failure in one category does not stop the others; a retry of
// the whole record completes what is missing.
func (s *aggregationService) ProcessGame(ctx context.Context, rec *models.GameRecord) (*ProcessResult, error) {
	if err := ValidateGameRecord(rec); err != nil {
		gamesProcessed.WithLabelValues("invalid").Inc()
		return nil, err
	}
	if rec.ID == "" {
		rec.ID = DeriveGameID(rec)
	}

	keys, date, err := RouteGame(rec)
	if err != nil {
		gamesProcessed.WithLabelValues("invalid").Inc()
		return nil, err
	}
	delta := Normalize(rec)
	result := &ProcessResult{GameID: rec.ID}

	var errs []error
	for _, key := range keys {
		applied, err := withRetry(ctx, s.retry, func() (bool, error) {
			_, applied, err := s.ApplyGame(ctx, rec.Subject, key, rec.ID, delta, date)
			return applied, err
		})
		if err != nil {
			s.logger.Errorw("Failed to apply game to category",
				"subject", rec.Subject.String(), "game_id", rec.ID, "category", key.String(), "error", err)
			errs = append(errs, fmt.Errorf("category %s: %w", key, err))
			continue
		}
		if applied {
			categoriesApplied.Inc()
			result.Applied = append(result.Applied, key)
		} else {
			duplicatesSkipped.Inc()
			result.Skipped = append(result.Skipped, key)
		}
	}

	streakUpdated, err := withRetry(ctx, s.retry, func() (bool, error) {
		return s.updateStreak(ctx, rec.Subject, rec.ID, delta, date)
	})
	if err != nil {
		s.logger.Errorw("Failed to update streaks", "subject", rec.Subject.String(), "game_id", rec.ID, "error", err)
		errs = append(errs, fmt.Errorf("streaks: %w", err))
	}
	result.StreakUpdated = streakUpdated

	if len(errs) > 0 {
		gamesProcessed.WithLabelValues("partial").Inc()
		return result, errors.Join(errs...)
	}
	if len(result.Applied) == 0 {
		gamesProcessed.WithLabelValues("duplicate").Inc()
	} else {
		gamesProcessed.WithLabelValues("applied").Inc()
	}
	s.logger.Infow("Processed game",
		"subject", rec.Subject.String(), "game_id", rec.ID,
		"applied", len(result.Applied), "skipped", len(result.Skipped))
	return result, nil
}

// GetSnapshot returns the stored snapshot, or a zero snapshot when none exists.
func (s *aggregationService) GetSnapshot(ctx context.Context, subject models.Subject, key models.CategoryKey) (*models.StatSnapshot, error) {
	body, err := s.store.Get(ctx, models.SnapshotRef(subject, key))
	if errors.Is(err, models.ErrNotFound) {
		return models.NewSnapshot(subject, key), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return decodeSnapshot(body, subject, key)
}

// GetStreaks returns the subject's streak state, zero when none exists.
func (s *aggregationService) GetStreaks(ctx context.Context, subject models.Subject) (*models.StreakState, error) {
	body, err := s.store.Get(ctx, models.StreakRef(subject))
	if errors.Is(err, models.ErrNotFound) {
		return models.NewStreakState(subject), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get streaks: %w", err)
	}
	return decodeStreakState(body, subject)
}

// DeriveGameID returns a stable id for a record submitted without one.
func DeriveGameID(rec *models.GameRecord) string {
	body, _ := json.Marshal(rec)
	return uuid.NewMD5(gameIDNamespace, body).String()
}

// withRetry runs op until it succeeds, fails with a non-conflict error, or
// runs out of tries.
func withRetry[T any](ctx context.Context, cfg RetryConfig, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialInterval
	b.MaxInterval = cfg.MaxInterval

	attempt := 0
	return backoff.Retry(ctx, func() (T, error) {
		if attempt > 0 {
			conflictRetries.Inc()
		}
		attempt++
		v, err := op()
		if err != nil && !errors.Is(err, models.ErrConflict) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(cfg.MaxTries))
}
