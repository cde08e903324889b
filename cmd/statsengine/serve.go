package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/basestats/stats-engine/internal/handlers"
	"github.com/basestats/stats-engine/internal/telemetry"
	"github.com/basestats/stats-engine/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, worker pool and scheduler",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.logger.Sugar()

	shutdownTracing, err := telemetry.InitTracing(ctx, telemetry.TracingConfig{
		Environment: a.cfg.Env,
		UseStdout:   a.cfg.TraceStdout,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	pool := worker.NewPool(worker.PoolConfig{
		WorkerCount:   a.cfg.WorkerCount,
		QueueSize:     a.cfg.QueueSize,
		BatchSize:     a.cfg.BatchSize,
		FlushInterval: a.cfg.FlushInterval,
		Engine:        a.aggregation,
		Archive:       a.archive,
		Logger:        a.logger,
	})
	pool.Start(ctx)

	scheduler := worker.NewScheduler(worker.SchedulerConfig{
		RollupInterval:  a.cfg.RollupInterval,
		RankingInterval: a.cfg.RankingInterval,
		Rollup:          a.rollup,
		Ranking:         a.ranking,
		Logger:          a.logger,
	})
	scheduler.Start(ctx)

	h := handlers.New(handlers.Config{
		WorkerPool:    pool,
		Logger:        a.logger,
		Dependencies:  a.deps,
		Aggregation:   a.aggregation,
		Rollup:        a.rollup,
		AdvancedStats: a.advancedStats,
		Ranking:       a.ranking,
	})
	router := handlers.NewRouter(h, handlers.RouterConfig{
		AllowedOrigins:     a.cfg.AllowedOrigins,
		RateLimitPerSecond: a.cfg.RateLimitPerSecond,
		RateLimitBurst:     a.cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Port),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infow("HTTP server listening", "port", a.cfg.Port, "store", a.cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case runErr = <-serveErr:
		if runErr != nil {
			log.Errorw("HTTP server failed", "error", runErr)
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warnw("HTTP shutdown incomplete", "error", err)
	}
	scheduler.Stop()
	pool.Stop()
	return runErr
}
