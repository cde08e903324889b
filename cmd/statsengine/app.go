package main

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/basestats/stats-engine/internal/config"
	"github.com/basestats/stats-engine/internal/handlers"
	"github.com/basestats/stats-engine/internal/logic"
	"github.com/basestats/stats-engine/internal/models"
	"github.com/basestats/stats-engine/internal/store"
	"github.com/basestats/stats-engine/internal/telemetry"
)

// app holds the wired engine shared by every command.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	store   logic.DocumentStore
	archive logic.GameArchive
	deps    map[string]handlers.Pinger

	aggregation   logic.AggregationService
	rollup        logic.RollupService
	advancedStats logic.AdvancedStatsService
	ranking       logic.RankingService

	closers []func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := telemetry.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, deps: make(map[string]handlers.Pinger)}
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openArchive(ctx); err != nil {
		a.Close()
		return nil, err
	}

	sugar := logger.Sugar()
	a.aggregation = logic.NewAggregationService(a.store, sugar, logic.RetryConfig{
		MaxTries:        cfg.ConflictMaxRetries,
		InitialInterval: logic.DefaultRetryConfig().InitialInterval,
		MaxInterval:     logic.DefaultRetryConfig().MaxInterval,
	})
	a.rollup = logic.NewRollupService(a.store, sugar)
	a.advancedStats = logic.NewAdvancedStatsService(a.store, sugar)
	a.ranking = logic.NewRankingService(a.store, sugar, logic.RankingConfig{
		TopN:           cfg.RankingTopN,
		NeighborRadius: cfg.NeighborRadius,
		BatchLimit:     cfg.BatchWriteLimit,
	})
	return a, nil
}

// openStore connects the primary document store and, when configured,
// routes the hot collections to Redis.
func (a *app) openStore(ctx context.Context) error {
	var primary logic.DocumentStore

	switch a.cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, a.cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		pg := store.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		primary = pg
		a.deps["postgres"] = pg

	case config.DriverSQLite:
		lite, err := store.OpenSQLite(a.cfg.SQLitePath)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { _ = lite.Close() })
		primary = lite
		a.deps["sqlite"] = lite

	default:
		mem := store.NewMemoryStore()
		primary = mem
		a.deps["memory"] = mem
	}

	if a.cfg.RedisURL == "" {
		a.store = primary
		return nil
	}

	opts, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	a.closers = append(a.closers, func() { _ = client.Close() })
	rs := store.NewRedisStore(client)
	a.deps["redis"] = rs
	a.store = store.NewRouted(primary, map[string]logic.DocumentStore{
		models.CollectionStreaks:      rs,
		models.CollectionLeaderboards: rs,
		models.CollectionNeighbors:    rs,
	})
	return nil
}

func (a *app) openArchive(ctx context.Context) error {
	if a.cfg.ClickHouseURL == "" {
		return nil
	}
	opts, err := clickhouse.ParseDSN(a.cfg.ClickHouseURL)
	if err != nil {
		return fmt.Errorf("parse clickhouse url: %w", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return fmt.Errorf("connect clickhouse: %w", err)
	}
	a.closers = append(a.closers, func() { _ = conn.Close() })

	archive := store.NewClickHouseArchive(conn)
	if err := archive.Migrate(ctx); err != nil {
		return err
	}
	a.archive = archive
	a.deps["clickhouse"] = archive
	return nil
}

// Close releases connections in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
