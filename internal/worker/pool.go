// Package worker runs the asynchronous side of the engine: a buffered pool
// that applies submitted game records and archives them in batches, and a
// scheduler for periodic team roll-ups and ranking passes.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/basestats/stats-engine/internal/logic"
	"github.com/basestats/stats-engine/internal/models"
)

// Prometheus metrics
var (
	gamesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stats_worker_games_ingested_total",
		Help: "Total number of game records accepted into the queue",
	})

	gamesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stats_worker_games_processed_total",
		Help: "Total number of game records applied by workers",
	})

	gamesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stats_worker_games_failed_total",
		Help: "Total number of game records that failed processing",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stats_worker_queue_depth",
		Help: "Current depth of the worker queue",
	})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stats_worker_batch_duration_seconds",
		Help:    "Duration of processing and archiving one batch",
		Buckets: prometheus.DefBuckets,
	})

	gamesLoadShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stats_worker_games_load_shed_total",
		Help: "Total number of game records dropped because the queue was full",
	})
)

// Job is one queued GameRecordCreated event.
type Job struct {
	Event    models.GameRecordCreated
	Received time.Time
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	Engine        logic.AggregationService
	Archive       logic.GameArchive // optional
	Logger        *zap.Logger
}

// Pool applies queued game records with a fixed set of workers.
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go p.reportQueueDepth()

	p.logger.Infow("Worker pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
	)
}

// Stop drains the queue and waits for the workers to finish.
func (p *Pool) Stop() {
	p.logger.Info("Stopping worker pool...")
	close(p.jobQueue)
	p.wg.Wait()
	p.cancel()
	p.logger.Info("Worker pool stopped")
}

// Enqueue adds a game record to the queue. It never blocks: a full queue or
// stopped pool drops the record and returns false so the caller can ask the
// client to retry.
func (p *Pool) Enqueue(event models.GameRecordCreated) bool {
	job := Job{Event: event, Received: time.Now()}

	// Protect against sending on closed channel
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnw("Failed to enqueue game (pool stopped)", "error", r)
		}
	}()

	if p.ctx != nil && p.ctx.Err() != nil {
		gamesLoadShed.Inc()
		return false
	}

	select {
	case p.jobQueue <- job:
		gamesIngested.Inc()
		return true
	default:
		p.logger.Warnw("Worker queue full, dropping game", "game_id", event.GameID)
		gamesLoadShed.Inc()
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// worker processes jobs from the queue in batches
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	batch := make([]Job, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		start := time.Now()
		ok, failed := p.processBatch(batch)
		gamesProcessed.Add(float64(ok))
		gamesFailed.Add(float64(failed))
		batchDuration.Observe(time.Since(start).Seconds())
		p.logger.Infow("Batch processed", "worker", id, "batchSize", len(batch), "failed", failed, "duration", time.Since(start))
		batch = batch[:0]
	}

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, job)
			if len(batch) >= p.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}

// processBatch applies every record, then archives the ones that applied
// cleanly. A failed record is logged; redelivering it completes whatever
// categories are missing.
func (p *Pool) processBatch(batch []Job) (ok, failed int) {
	ctx := context.Background()
	if p.ctx != nil {
		ctx = context.WithoutCancel(p.ctx)
	}

	archived := make([]*models.GameRecord, 0, len(batch))
	for _, job := range batch {
		rec := job.Event.Record
		if rec == nil {
			failed++
			continue
		}
		if rec.ID == "" {
			rec.ID = job.Event.GameID
		}
		if _, err := p.config.Engine.ProcessGame(ctx, rec); err != nil {
			p.logger.Errorw("Failed to process game",
				"subject", job.Event.Subject.String(),
				"game_id", rec.ID,
				"queued_for", time.Since(job.Received),
				"error", err,
			)
			failed++
			continue
		}
		ok++
		archived = append(archived, rec)
	}

	if p.config.Archive != nil && len(archived) > 0 {
		if err := p.config.Archive.ArchiveGames(ctx, archived); err != nil {
			p.logger.Errorw("Failed to archive games", "count", len(archived), "error", err)
		}
	}
	return ok, failed
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			queueDepth.Set(float64(len(p.jobQueue)))
		case <-p.ctx.Done():
			return
		}
	}
}
