// Package service builds the receivables aging report and the pipeline
// dashboard.
package service

import (
	"context"
	"time"

	jobtransport "roofing_backend/internal/jobs/transport"
	leadtransport "roofing_backend/internal/leads/transport"
	"roofing_backend/internal/reports/aging"
	"roofing_backend/internal/reports/repository"
	"roofing_backend/internal/reports/transport"
	"roofing_backend/platform/apperr"
	"roofing_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const agingReport = "receivables_aging"

// LeadFunnel is satisfied by the lead service.
type LeadFunnel interface {
	Funnel(ctx context.Context, tenantID uuid.UUID) (leadtransport.FunnelResponse, error)
}

// JobBoard is satisfied by the job service.
type JobBoard interface {
	Board(ctx context.Context, tenantID uuid.UUID) (jobtransport.BoardResponse, error)
}

// SnapshotCache stores report snapshots. Implementations may always miss.
type SnapshotCache interface {
	SnapshotKey(ctx context.Context, tenantID uuid.UUID, report string, parts ...string) (string, error)
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

type Service struct {
	repo  repository.ReceivablesReader
	leads LeadFunnel
	jobs  JobBoard
	cache SnapshotCache
	log   *logger.Logger
	now   func() time.Time
}

func New(repo repository.ReceivablesReader, leads LeadFunnel, jobs JobBoard, snapshots SnapshotCache, log *logger.Logger) *Service {
	return &Service{
		repo:  repo,
		leads: leads,
		jobs:  jobs,
		cache: snapshots,
		log:   log,
		now:   time.Now,
	}
}

// Today returns the current UTC date at midnight.
func (s *Service) Today() time.Time {
	return truncateDay(s.now())
}

// ReceivablesAging buckets the tenant's open receivables by days overdue as
// of the given date.
func (s *Service) ReceivablesAging(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (transport.AgingResponse, error) {
	asOf = truncateDay(asOf)
	var key string
	if s.cache != nil {
		k, err := s.cache.SnapshotKey(ctx, tenantID, agingReport, asOf.Format(transport.DateLayout))
		if err != nil {
			s.log.Warn("report cache unavailable", "report", agingReport, "error", err)
		}
		key = k
	}

	var cached transport.AgingResponse
	if key != "" {
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("aging cache read failed", "error", err)
		} else if hit {
			return cached, nil
		}
	}

	receivables, err := s.repo.ListReceivables(ctx, tenantID)
	if err != nil {
		s.log.DatabaseError("reports.ListReceivables", err)
		return transport.AgingResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load receivables", err)
	}

	records := make([]aging.Record, len(receivables))
	for i, r := range receivables {
		records[i] = aging.Record{DueDate: r.DueDate, AmountCents: r.OutstandingCents}
	}
	buckets := aging.BucketByAge(records, asOf)
	count, amount := aging.Total(buckets)

	resp := transport.AgingResponse{
		AsOf:             asOf.Format(transport.DateLayout),
		Buckets:          buckets,
		TotalCount:       count,
		TotalAmountCents: amount,
	}
	if key != "" {
		if err := s.cache.Set(ctx, key, resp); err != nil {
			s.log.Warn("aging cache write failed", "error", err)
		}
	}
	return resp, nil
}

// Dashboard loads the lead funnel, the job board and today's aging report
// concurrently. The first failure cancels the others.
func (s *Service) Dashboard(ctx context.Context, tenantID uuid.UUID) (transport.DashboardResponse, error) {
	resp := transport.DashboardResponse{GeneratedAt: s.now().UTC()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		funnel, err := s.leads.Funnel(gctx, tenantID)
		resp.Leads = funnel
		return err
	})
	g.Go(func() error {
		board, err := s.jobs.Board(gctx, tenantID)
		resp.Jobs = board
		return err
	})
	g.Go(func() error {
		report, err := s.ReceivablesAging(gctx, tenantID, s.Today())
		resp.Receivables = report
		return err
	})

	if err := g.Wait(); err != nil {
		return transport.DashboardResponse{}, err
	}
	return resp, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
