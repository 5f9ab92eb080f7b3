package scheduler

import (
	"context"
	"fmt"

	"roofing_backend/internal/leads/scoring"
	"roofing_backend/platform/config"
	"roofing_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const defaultConcurrency = 10

// WorkerConfig is the configuration the worker reads.
type WorkerConfig interface {
	config.SchedulerConfig
	config.ScoringConfig
}

// Rescorer recomputes and stores lead scores.
type Rescorer interface {
	Rescore(ctx context.Context, tenantID *uuid.UUID, leadIDs []uuid.UUID) (int, error)
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	rescorer  Rescorer
	scores    *scoring.Store
	rulesPath string
	log       *logger.Logger
}

func NewWorker(cfg WorkerConfig, rescorer Rescorer, scores *scoring.Store, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(rescorer, scores, cfg.GetScoringRulesPath(), log)
	w.server = server
	return w, nil
}

func newWorker(rescorer Rescorer, scores *scoring.Store, rulesPath string, log *logger.Logger) *Worker {
	w := &Worker{
		mux:       asynq.NewServeMux(),
		rescorer:  rescorer,
		scores:    scores,
		rulesPath: rulesPath,
		log:       log,
	}
	w.mux.HandleFunc(TaskLeadsRescore, w.handleRescore)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleRescore reloads the rule file, if configured, and rescores the
// selected leads. A bad rule file keeps the previous rules.
func (w *Worker) handleRescore(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRescorePayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	tenantID, leadIDs, err := payload.Targets()
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	if w.rulesPath != "" && w.scores != nil {
		if err := w.scores.Reload(w.rulesPath); err != nil {
			w.log.Warn("scoring rules reload failed, keeping current rules", "path", w.rulesPath, "error", err)
		}
	}

	scored, err := w.rescorer.Rescore(ctx, tenantID, leadIDs)
	if err != nil {
		return err
	}

	w.log.Info("leads rescored", "count", scored, "allTenants", tenantID == nil)
	return nil
}
