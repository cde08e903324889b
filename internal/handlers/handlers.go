package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/basestats/stats-engine/internal/logic"
	"github.com/basestats/stats-engine/internal/models"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// IngestQueue defines the interface for the game ingestion worker pool
type IngestQueue interface {
	Enqueue(event models.GameRecordCreated) bool
	QueueDepth() int
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	WorkerPool IngestQueue
	Logger     *zap.Logger
	// Dependencies checked by /ready, keyed by name
	Dependencies map[string]Pinger
	// Services
	Aggregation   logic.AggregationService
	Rollup        logic.RollupService
	AdvancedStats logic.AdvancedStatsService
	Ranking       logic.RankingService
}

type Handler struct {
	pool          IngestQueue
	deps          map[string]Pinger
	logger        *zap.SugaredLogger
	aggregation   logic.AggregationService
	rollup        logic.RollupService
	advancedStats logic.AdvancedStatsService
	ranking       logic.RankingService
}

func New(cfg Config) *Handler {
	return &Handler{
		pool:          cfg.WorkerPool,
		deps:          cfg.Dependencies,
		logger:        cfg.Logger.Sugar(),
		aggregation:   cfg.Aggregation,
		rollup:        cfg.Rollup,
		advancedStats: cfg.AdvancedStats,
		ranking:       cfg.Ranking,
	}
}
