package logic

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gamesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stats_games_processed_total",
		Help: "Game records processed, by outcome",
	}, []string{"outcome"})

	categoriesApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stats_categories_applied_total",
		Help: "Game deltas folded into a category snapshot",
	})

	duplicatesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stats_duplicate_deliveries_total",
		Help: "Category applications skipped because the game was already included",
	})

	conflictRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stats_conflict_retries_total",
		Help: "Transactions retried after a store conflict",
	})

	rankingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stats_ranking_duration_seconds",
		Help:    "Time to rank one category",
		Buckets: prometheus.DefBuckets,
	}, []string{"category"})

	rollupsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stats_team_rollups_total",
		Help: "Team roll-ups rebuilt",
	})

	batchChunksWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stats_batch_chunks_written_total",
		Help: "Batch write chunks committed",
	})
)
