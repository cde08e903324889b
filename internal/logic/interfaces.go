package logic

import (
	"context"
	"time"

	"github.com/basestats/stats-engine/internal/models"
)

// TxFunc receives the current document body (nil when absent) and returns the
// body to commit. Returning a nil body commits nothing.
type TxFunc func(current []byte) ([]byte, error)

// DocumentStore is the persistence collaborator. Transact is a single attempt
// of an atomic read-modify-write on one document and returns
// models.ErrConflict when it loses a race. Get returns models.ErrNotFound for
// absent documents.
type DocumentStore interface {
	Get(ctx context.Context, ref models.DocRef) ([]byte, error)
	Transact(ctx context.Context, ref models.DocRef, fn TxFunc) error
	BatchWrite(ctx context.Context, docs []models.Document) error
	Query(ctx context.Context, collection, idPrefix string) ([]models.Document, error)
}

// GameArchive stores processed game records for offline analysis.
type GameArchive interface {
	ArchiveGames(ctx context.Context, games []*models.GameRecord) error
}

// AggregationService applies game records to snapshots and streaks.
type AggregationService interface {
	ApplyGame(ctx context.Context, subject models.Subject, key models.CategoryKey, gameID string, delta models.StatDelta, gameDate time.Time) (*models.StatSnapshot, bool, error)
	ProcessGame(ctx context.Context, rec *models.GameRecord) (*ProcessResult, error)
	GetSnapshot(ctx context.Context, subject models.Subject, key models.CategoryKey) (*models.StatSnapshot, error)
	GetStreaks(ctx context.Context, subject models.Subject) (*models.StreakState, error)
}

// RollupService rebuilds team roll-ups from member snapshots.
type RollupService interface {
	RollupTeam(ctx context.Context, teamID string, key models.CategoryKey) (*models.RollupResult, error)
	RollupAll(ctx context.Context, keys []models.CategoryKey) error
	SaveRoster(ctx context.Context, roster *models.TeamRoster) error
}

// AdvancedStatsService computes the advanced stats side artifact.
type AdvancedStatsService interface {
	ComputeAdvancedStats(ctx context.Context, subject models.Subject, key models.CategoryKey) (*models.AdvancedStats, error)
}

// RankingService runs ranking passes and serves their output.
type RankingService interface {
	RankPeriod(ctx context.Context, key models.CategoryKey, candidates []models.RankCandidate) (*models.RankPeriodResponse, error)
	LoadCandidates(ctx context.Context, key models.CategoryKey) ([]models.RankCandidate, error)
	GetLeaderboard(ctx context.Context, key models.CategoryKey, metric string) (*models.Leaderboard, error)
	GetNeighbors(ctx context.Context, subjectID string, key models.CategoryKey, metric string) (*models.NeighborContext, error)
	SaveProfile(ctx context.Context, profile *models.UserProfile) error
}
