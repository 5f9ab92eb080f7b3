package main

import (
	"fmt"
	"os"

	"roofing_backend/internal/scheduler"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// queueConfig satisfies config.SchedulerConfig from flags.
type queueConfig struct {
	redisURL    string
	tlsInsecure bool
	queue       string
}

func (c queueConfig) GetRedisURL() string       { return c.redisURL }
func (c queueConfig) GetRedisTLSInsecure() bool { return c.tlsInsecure }
func (c queueConfig) GetAsynqQueueName() string { return c.queue }
func (c queueConfig) GetAsynqConcurrency() int  { return 0 }
func (c queueConfig) GetRescoreCron() string    { return "" }

func rescorePayload(tenant string, leads []string) (scheduler.RescorePayload, error) {
	var payload scheduler.RescorePayload
	if tenant != "" {
		if _, err := uuid.Parse(tenant); err != nil {
			return payload, fmt.Errorf("invalid --tenant: %w", err)
		}
		payload.TenantID = &tenant
	}
	for _, id := range leads {
		if _, err := uuid.Parse(id); err != nil {
			return payload, fmt.Errorf("invalid --lead %q: %w", id, err)
		}
	}
	payload.LeadIDs = leads
	return payload, nil
}

func newEnqueueRescoreCmd(opts *options) *cobra.Command {
	var (
		cfg    = queueConfig{redisURL: os.Getenv("REDIS_URL"), queue: "default"}
		tenant string
		leads  []string
	)

	cmd := &cobra.Command{
		Use:     "enqueue-rescore",
		Short:   "Queue a background rescoring run",
		GroupID: "scoring",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := rescorePayload(tenant, leads)
			if err != nil {
				return err
			}

			client, err := scheduler.NewClient(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			if err := client.EnqueueRescore(cmd.Context(), payload); err != nil {
				return fmt.Errorf("enqueue rescore: %w", err)
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), payload)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Rescore queued")
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.redisURL, "redis-url", cfg.redisURL, "Redis URL (defaults to $REDIS_URL)")
	cmd.Flags().BoolVar(&cfg.tlsInsecure, "redis-tls-insecure", false, "skip Redis TLS verification")
	cmd.Flags().StringVar(&cfg.queue, "queue", cfg.queue, "asynq queue name")
	cmd.Flags().StringVar(&tenant, "tenant", "", "limit to one organization ID")
	cmd.Flags().StringSliceVar(&leads, "lead", nil, "limit to these lead IDs")
	return cmd
}
