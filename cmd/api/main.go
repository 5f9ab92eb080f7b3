package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roofing_backend/internal/events"
	apphttp "roofing_backend/internal/http"
	"roofing_backend/internal/http/router"
	"roofing_backend/internal/jobs"
	"roofing_backend/internal/leads"
	"roofing_backend/internal/leads/scoring"
	"roofing_backend/internal/reports"
	"roofing_backend/internal/reports/cache"
	"roofing_backend/migrations"
	"roofing_backend/platform/config"
	"roofing_backend/platform/db"
	"roofing_backend/platform/logger"
	"roofing_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

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
	log.Info("database connection established")

	if cfg.GetRunMigrations() {
		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, pool, migrations.FS, log)
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	snapshots := initReportCache(ctx, cfg, log)
	if snapshots != nil {
		defer func() { _ = snapshots.Close() }()
	}

	if forwarder := initNATSForwarder(cfg, eventBus, log); forwarder != nil {
		defer func() { _ = forwarder.Close() }()
	}

	scores := scoring.NewStore(nil)
	if path := cfg.GetScoringRulesPath(); path != "" {
		if err := scores.Reload(path); err != nil {
			log.Error("failed to load scoring rules", "error", err, "path", path)
			panic("failed to load scoring rules: " + err.Error())
		}
		log.Info("scoring rules loaded", "path", path)
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule, err := leads.NewModule(pool, eventBus, val, scores, snapshots, log)
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}
	jobsModule, err := jobs.NewModule(pool, eventBus, val, snapshots, log)
	if err != nil {
		log.Error("failed to initialize jobs module", "error", err)
		panic("failed to initialize jobs module: " + err.Error())
	}
	reportsModule := reports.NewModule(pool, leadsModule.Service(), jobsModule.Service(), val, snapshots, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			jobsModule,
			reportsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initReportCache returns nil when caching is disabled or Redis is
// unreachable. A nil cache always misses.
func initReportCache(ctx context.Context, cfg *config.Config, log *logger.Logger) *cache.Cache {
	if !cfg.IsReportCacheEnabled() {
		log.Warn("REDIS_URL not configured or REPORT_CACHE_TTL is 0; report cache disabled")
		return nil
	}

	c, err := cache.Open(ctx, cfg.GetRedisURL(), cfg.GetRedisTLSInsecure(), cfg.GetReportCacheTTL())
	if err != nil {
		log.Error("failed to initialize report cache", "error", err)
		return nil
	}

	log.Info("report cache enabled", "ttl", cfg.GetReportCacheTTL())
	return c
}

func initNATSForwarder(cfg config.EventsConfig, bus events.Bus, log *logger.Logger) *events.NATSForwarder {
	if !cfg.IsNATSEnabled() {
		return nil
	}

	forwarder, err := events.NewNATSForwarder(cfg.GetNATSURL(), log)
	if err != nil {
		log.Error("failed to connect to nats, events stay in-process", "error", err)
		return nil
	}

	forwarder.Forward(bus, events.NameLeadStatusChanged, events.NameJobStatusChanged, events.NameLeadsRescored)
	log.Info("forwarding domain events to nats", "url", cfg.GetNATSURL())
	return forwarder
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
