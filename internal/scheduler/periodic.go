package scheduler

import (
	"context"
	"fmt"
	"time"

	"roofing_backend/platform/config"
	"roofing_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic enqueues the recurring rescoring task on a cron schedule.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	s := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: time.UTC})

	task, err := NewRescoreTask(RescorePayload{})
	if err != nil {
		return nil, err
	}
	entryID, err := s.Register(cfg.GetRescoreCron(), task, asynq.Queue(queueName(cfg)), asynq.MaxRetry(1))
	if err != nil {
		return nil, fmt.Errorf("register rescore cron %q: %w", cfg.GetRescoreCron(), err)
	}
	log.Info("rescore schedule registered", "cron", cfg.GetRescoreCron(), "entry", entryID)

	return &Periodic{scheduler: s, log: log}, nil
}

// Run starts the scheduler and blocks until ctx is done.
func (p *Periodic) Run(ctx context.Context) error {
	if err := p.scheduler.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	p.scheduler.Shutdown()
	return nil
}
