package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roofing_backend/internal/events"
	"roofing_backend/internal/leads/repository"
	"roofing_backend/internal/leads/scoring"
	"roofing_backend/internal/leads/service"
	"roofing_backend/internal/reports/cache"
	"roofing_backend/internal/scheduler"
	"roofing_backend/platform/config"
	"roofing_backend/platform/db"
	"roofing_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "cron", cfg.GetRescoreCron())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	// Rescoring changes report inputs, so the worker drops cached snapshots too.
	var snapshots *cache.Cache
	if cfg.IsReportCacheEnabled() {
		c, err := cache.Open(ctx, cfg.GetRedisURL(), cfg.GetRedisTLSInsecure(), cfg.GetReportCacheTTL())
		if err != nil {
			log.Warn("report cache unavailable, snapshots expire by ttl only", "error", err)
		} else {
			defer func() { _ = c.Close() }()
			snapshots = c
		}
	}

	scores := scoring.NewStore(nil)
	leadService := service.New(repository.New(pool), scores, snapshots, eventBus, log)

	worker, err := scheduler.NewWorker(cfg, leadService, scores, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	periodic, err := scheduler.NewPeriodic(cfg, log)
	if err != nil {
		log.Error("failed to initialize rescore schedule", "error", err)
		panic("failed to initialize rescore schedule: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return periodic.Run(gctx)
	})
	if err := g.Wait(); err != nil {
		log.Error("scheduler stopped", "error", err)
	}
	eventBus.Wait()
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
