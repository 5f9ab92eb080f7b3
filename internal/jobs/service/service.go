// Package service implements job status changes, job listings and the job
// board on top of the lifecycle engine.
package service

import (
	"context"
	"errors"
	"strings"

	"roofing_backend/internal/events"
	"roofing_backend/internal/jobs/repository"
	"roofing_backend/internal/jobs/transport"
	"roofing_backend/internal/lifecycle"
	"roofing_backend/internal/reports/funnel"
	"roofing_backend/platform/apperr"
	"roofing_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxPage         = 10000
	boardReport     = "job_board"
)

// Repository defines the data access needed by the job service.
type Repository interface {
	repository.StatusReader
	repository.StatusWriter
	repository.BoardReader
	repository.Lister
}

// SnapshotCache stores report snapshots. Implementations may always miss.
type SnapshotCache interface {
	SnapshotKey(ctx context.Context, tenantID uuid.UUID, report string, parts ...string) (string, error)
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error
}

// Service handles the job lifecycle.
type Service struct {
	repo  Repository
	table *lifecycle.Table
	cache SnapshotCache
	bus   events.Bus
	log   *logger.Logger
}

// New creates a job service over the default job table.
func New(repo Repository, snapshots SnapshotCache, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:  repo,
		table: lifecycle.JobTable(),
		cache: snapshots,
		bus:   bus,
		log:   log,
	}
}

// Statuses lists job statuses in board order.
func (s *Service) Statuses() []transport.StatusOption {
	return statusOptions(s.table, s.table.Statuses())
}

func (s *Service) AllowedTransitions(ctx context.Context, tenantID, jobID uuid.UUID) (transport.TransitionsResponse, error) {
	current, err := s.repo.GetStatus(ctx, tenantID, jobID)
	if err != nil {
		return transport.TransitionsResponse{}, mapRepoError(err)
	}

	from := lifecycle.Status(current)
	return transport.TransitionsResponse{
		ID:      jobID,
		Status:  current,
		Label:   s.table.Label(from),
		Allowed: statusOptions(s.table, lifecycle.AllowedTransitions(s.table, from)),
	}, nil
}

// UpdateStatus moves a job to rawTo if the job table allows it.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, jobID, actorID uuid.UUID, rawTo string) (transport.StatusResponse, error) {
	current, err := s.repo.GetStatus(ctx, tenantID, jobID)
	if err != nil {
		return transport.StatusResponse{}, mapRepoError(err)
	}

	from := lifecycle.Status(current)
	to := lifecycle.Status(strings.ToLower(strings.TrimSpace(rawTo)))

	change, err := s.table.Transition(from, to)
	if err != nil {
		s.log.WithContext(ctx).TransitionRejected(string(lifecycle.KindJob), jobID.String(), current, string(to))
		allowed := lifecycle.StatusStrings(lifecycle.AllowedTransitions(s.table, from))
		return transport.StatusResponse{}, apperr.InvalidTransition(current, string(to), allowed, err)
	}

	rec, err := s.repo.UpdateStatus(ctx, tenantID, jobID, change, actorID)
	if err != nil {
		return transport.StatusResponse{}, mapRepoError(err)
	}
	if s.cache != nil {
		if err := s.cache.InvalidateTenant(ctx, tenantID); err != nil {
			s.log.Warn("report cache invalidation failed", "error", err)
		}
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.JobStatusChanged{
			BaseEvent: events.NewBaseEvent(),
			JobID:     jobID,
			TenantID:  tenantID,
			ActorID:   actorID,
			From:      current,
			To:        rec.Status,
		})
	}

	next := lifecycle.Status(rec.Status)
	return transport.StatusResponse{
		ID:        rec.ID,
		Status:    rec.Status,
		Label:     s.table.Label(next),
		Allowed:   lifecycle.StatusStrings(lifecycle.AllowedTransitions(s.table, next)),
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// Board groups the tenant's jobs by status with contract value totals.
func (s *Service) Board(ctx context.Context, tenantID uuid.UUID) (transport.BoardResponse, error) {
	var key string
	if s.cache != nil {
		k, err := s.cache.SnapshotKey(ctx, tenantID, boardReport)
		if err != nil {
			s.log.Warn("report cache unavailable", "report", boardReport, "error", err)
		}
		key = k
	}

	var cached transport.BoardResponse
	if key != "" {
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("board cache read failed", "error", err)
		} else if hit {
			return cached, nil
		}
	}

	records, err := s.repo.ListBoardRecords(ctx, tenantID)
	if err != nil {
		s.log.DatabaseError("jobs.ListBoardRecords", err)
		return transport.BoardResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load job board", err)
	}

	in := make([]funnel.Record, len(records))
	for i, r := range records {
		in[i] = funnel.Record{Status: r.Status, ValueCents: r.ValueCents}
	}
	report := funnel.Aggregate(s.table, in)
	s.log.UnclassifiedRecords(boardReport, report.Summary.Unclassified, report.Summary.TotalRecords)

	resp := ToBoardResponse(report)
	if key != "" {
		if err := s.cache.Set(ctx, key, resp); err != nil {
			s.log.Warn("board cache write failed", "error", err)
		}
	}
	return resp, nil
}

// List returns a page of the tenant's jobs, most recently updated first.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, query transport.ListJobsQuery) (transport.JobListResponse, error) {
	page := min(max(query.Page, 1), maxPage)
	pageSize := query.PageSize
	switch {
	case pageSize < 1:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}

	jobs, total, err := s.repo.List(ctx, repository.ListParams{
		TenantID: tenantID,
		Status:   strings.ToLower(strings.TrimSpace(query.Status)),
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	})
	if err != nil {
		s.log.DatabaseError("jobs.List", err)
		return transport.JobListResponse{}, apperr.Wrap(apperr.KindInternal, "failed to list jobs", err)
	}

	items := make([]transport.JobResponse, len(jobs))
	for i, j := range jobs {
		items[i] = s.toJobResponse(j)
	}

	totalPages := (total + pageSize - 1) / pageSize
	return transport.JobListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

func (s *Service) toJobResponse(j repository.Job) transport.JobResponse {
	return transport.JobResponse{
		ID:                 j.ID,
		LeadID:             j.LeadID,
		Title:              j.Title,
		Status:             j.Status,
		Label:              s.table.Label(lifecycle.Status(j.Status)),
		ContractValueCents: j.ContractValueCents,
		CreatedAt:          j.CreatedAt,
		UpdatedAt:          j.UpdatedAt,
	}
}

// ToBoardResponse converts an aggregation into the job board payload.
func ToBoardResponse(report funnel.Report) transport.BoardResponse {
	columns := make([]transport.BoardColumn, len(report.Buckets))
	for i, b := range report.Buckets {
		columns[i] = transport.BoardColumn{
			Status:     b.Status,
			Label:      b.Label,
			Count:      b.Count,
			ValueCents: b.ValueCents,
		}
	}
	return transport.BoardResponse{
		Columns: columns,
		Summary: transport.BoardSummary{
			TotalJobs:           report.Summary.TotalRecords,
			CompletedCount:      report.Summary.SuccessCount,
			Unclassified:        report.Summary.Unclassified,
			CompletedValueCents: report.Summary.MatchedValueCents,
			CompletionRate:      report.Summary.ConversionRate,
		},
	}
}

func statusOptions(t *lifecycle.Table, statuses []lifecycle.Status) []transport.StatusOption {
	out := make([]transport.StatusOption, len(statuses))
	for i, st := range statuses {
		out[i] = transport.StatusOption{
			Status:   string(st),
			Label:    t.Label(st),
			Terminal: t.IsTerminal(st),
		}
	}
	return out
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("job not found")
	case errors.Is(err, repository.ErrStatusConflict):
		return apperr.Conflict("job status changed, reload and try again")
	default:
		return apperr.Wrap(apperr.KindInternal, "job update failed", err)
	}
}
