// Package service implements lead status changes, the lead funnel and lead
// prioritization on top of the lifecycle and scoring engines.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"roofing_backend/internal/events"
	"roofing_backend/internal/leads/repository"
	"roofing_backend/internal/leads/scoring"
	"roofing_backend/internal/leads/transport"
	"roofing_backend/internal/lifecycle"
	"roofing_backend/internal/reports/funnel"
	"roofing_backend/platform/apperr"
	"roofing_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultPrioritizedLimit = 20
	maxPrioritizedLimit     = 100

	funnelReport = "lead_funnel"
)

// Repository defines the data access needed by the lead service.
type Repository interface {
	repository.StatusReader
	repository.StatusWriter
	repository.PipelineReader
	repository.ScoreStore
}

// SnapshotCache stores report snapshots. Implementations may always miss.
type SnapshotCache interface {
	SnapshotKey(ctx context.Context, tenantID uuid.UUID, report string, parts ...string) (string, error)
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error
	InvalidateAll(ctx context.Context) error
}

// Service handles the lead lifecycle.
type Service struct {
	repo   Repository
	table  *lifecycle.Table
	scores *scoring.Store
	cache  SnapshotCache
	bus    events.Bus
	log    *logger.Logger
	now    func() time.Time
}

// New creates a lead service over the default lead table.
func New(repo Repository, scores *scoring.Store, snapshots SnapshotCache, bus events.Bus, log *logger.Logger) *Service {
	if scores == nil {
		scores = scoring.NewStore(nil)
	}
	return &Service{
		repo:   repo,
		table:  lifecycle.LeadTable(),
		scores: scores,
		cache:  snapshots,
		bus:    bus,
		log:    log,
		now:    time.Now,
	}
}

// Statuses lists lead statuses in funnel order.
func (s *Service) Statuses() []transport.StatusOption {
	return statusOptions(s.table, s.table.Statuses())
}

// AllowedTransitions returns the lead's status and the statuses it may move to.
func (s *Service) AllowedTransitions(ctx context.Context, tenantID, leadID uuid.UUID) (transport.TransitionsResponse, error) {
	current, err := s.repo.GetStatus(ctx, tenantID, leadID)
	if err != nil {
		return transport.TransitionsResponse{}, mapRepoError(err)
	}

	from := lifecycle.Status(current)
	return transport.TransitionsResponse{
		ID:      leadID,
		Status:  current,
		Label:   s.table.Label(from),
		Allowed: statusOptions(s.table, lifecycle.AllowedTransitions(s.table, from)),
	}, nil
}

// UpdateStatus moves a lead to rawTo if the lead table allows it from the
// lead's current status.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, leadID, actorID uuid.UUID, rawTo string) (transport.StatusResponse, error) {
	current, err := s.repo.GetStatus(ctx, tenantID, leadID)
	if err != nil {
		return transport.StatusResponse{}, mapRepoError(err)
	}

	from := lifecycle.Status(current)
	to := lifecycle.Status(strings.ToLower(strings.TrimSpace(rawTo)))

	change, err := s.table.Transition(from, to)
	if err != nil {
		s.log.WithContext(ctx).TransitionRejected(string(lifecycle.KindLead), leadID.String(), current, string(to))
		allowed := lifecycle.StatusStrings(lifecycle.AllowedTransitions(s.table, from))
		return transport.StatusResponse{}, apperr.InvalidTransition(current, string(to), allowed, err)
	}

	rec, err := s.repo.UpdateStatus(ctx, tenantID, leadID, change, actorID)
	if err != nil {
		return transport.StatusResponse{}, mapRepoError(err)
	}
	s.invalidate(ctx, &tenantID)

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadStatusChanged{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    leadID,
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

// Funnel aggregates the tenant's leads by status. Results are served from
// the snapshot cache until a status change invalidates it.
func (s *Service) Funnel(ctx context.Context, tenantID uuid.UUID) (transport.FunnelResponse, error) {
	key := s.snapshotKey(ctx, tenantID, funnelReport)

	var cached transport.FunnelResponse
	if key != "" {
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("funnel cache read failed", "error", err)
		} else if hit {
			return cached, nil
		}
	}

	records, err := s.repo.ListPipelineRecords(ctx, tenantID)
	if err != nil {
		s.log.DatabaseError("leads.ListPipelineRecords", err)
		return transport.FunnelResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load funnel", err)
	}

	report := funnel.Aggregate(s.table, toFunnelRecords(records))
	s.log.UnclassifiedRecords(funnelReport, report.Summary.Unclassified, report.Summary.TotalRecords)

	resp := ToFunnelResponse(report)
	if key != "" {
		if err := s.cache.Set(ctx, key, resp); err != nil {
			s.log.Warn("funnel cache write failed", "error", err)
		}
	}
	return resp, nil
}

// Score scores an ad-hoc lead description with the active rules.
func (s *Service) Score(req transport.ScoreRequest) scoring.Result {
	return s.scores.Score(toScoringInput(req.JobType, req.Timeline, req.PhotoCount, req.HasInsuranceClaim, req.RoofSizeSqFt))
}

// Prioritized returns the tenant's open leads, highest score first. A
// non-empty status narrows the list to that status; closed statuses are
// listed only when asked for explicitly.
func (s *Service) Prioritized(ctx context.Context, tenantID uuid.UUID, status string, limit int) (transport.PrioritizedResponse, error) {
	switch {
	case limit <= 0:
		limit = defaultPrioritizedLimit
	case limit > maxPrioritizedLimit:
		limit = maxPrioritizedLimit
	}

	filter := repository.ScoreFilter{TenantID: &tenantID}
	if status = strings.ToLower(strings.TrimSpace(status)); status != "" {
		filter.Statuses = []string{status}
	} else {
		filter.ExcludeStatuses = s.closedStatuses()
	}

	inputs, err := s.repo.ListScoreInputs(ctx, filter)
	if err != nil {
		s.log.DatabaseError("leads.ListScoreInputs", err)
		return transport.PrioritizedResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load leads", err)
	}

	scorer := s.scores.Current()
	ranked := make([]scoring.Ranked[repository.ScoreInput], len(inputs))
	for i, in := range inputs {
		ranked[i] = scoring.Ranked[repository.ScoreInput]{
			Key:    in,
			Result: scorer.Score(toScoringInput(in.JobType, in.Timeline, in.PhotoCount, in.HasInsuranceClaim, in.RoofSizeSqFt)),
		}
	}
	scoring.Rank(ranked)

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	items := make([]transport.PrioritizedLead, len(ranked))
	for i, r := range ranked {
		items[i] = transport.PrioritizedLead{
			ID:                  r.Key.ID,
			ConsumerName:        r.Key.ConsumerName,
			Status:              r.Key.Status,
			EstimatedValueCents: r.Key.EstimatedValueCents,
			Score:               r.Result.Score,
			Tier:                r.Result.Tier,
			Factors:             r.Result.Factors,
		}
	}
	return transport.PrioritizedResponse{Items: items, Total: len(inputs)}, nil
}

// Rescore recomputes and stores scores for open leads. A nil tenantID covers
// every tenant; an empty leadIDs covers every lead.
func (s *Service) Rescore(ctx context.Context, tenantID *uuid.UUID, leadIDs []uuid.UUID) (int, error) {
	inputs, err := s.repo.ListScoreInputs(ctx, repository.ScoreFilter{
		TenantID:        tenantID,
		LeadIDs:         leadIDs,
		ExcludeStatuses: s.closedStatuses(),
	})
	if err != nil {
		return 0, err
	}

	scorer := s.scores.Current()
	scoredAt := s.now().UTC()
	updates := make([]repository.ScoreUpdate, 0, len(inputs))
	for _, in := range inputs {
		res := scorer.Score(toScoringInput(in.JobType, in.Timeline, in.PhotoCount, in.HasInsuranceClaim, in.RoofSizeSqFt))
		factors, err := json.Marshal(res.Factors)
		if err != nil {
			return 0, err
		}
		updates = append(updates, repository.ScoreUpdate{
			LeadID:   in.ID,
			Score:    res.Score,
			Tier:     string(res.Tier),
			Factors:  factors,
			ScoredAt: scoredAt,
		})
	}

	saved, err := s.repo.SaveScores(ctx, updates)
	if saved > 0 {
		s.invalidate(ctx, tenantID)
	}
	if err != nil {
		return saved, err
	}

	if s.bus != nil && saved > 0 {
		s.bus.Publish(ctx, events.LeadsRescored{
			BaseEvent: events.NewBaseEvent(),
			TenantID:  tenantID,
			Count:     saved,
		})
	}
	return saved, nil
}

// snapshotKey returns "" when the cache is absent or unreachable; callers
// then skip it.
func (s *Service) snapshotKey(ctx context.Context, tenantID uuid.UUID, report string) string {
	if s.cache == nil {
		return ""
	}
	key, err := s.cache.SnapshotKey(ctx, tenantID, report)
	if err != nil {
		s.log.Warn("report cache unavailable", "report", report, "error", err)
		return ""
	}
	return key
}

// invalidate drops cached reports for tenantID, or for every tenant when it
// is nil. Failures only delay freshness until the snapshot TTL.
func (s *Service) invalidate(ctx context.Context, tenantID *uuid.UUID) {
	if s.cache == nil {
		return
	}
	var err error
	if tenantID == nil {
		err = s.cache.InvalidateAll(ctx)
	} else {
		err = s.cache.InvalidateTenant(ctx, *tenantID)
	}
	if err != nil {
		s.log.Warn("report cache invalidation failed", "error", err)
	}
}

// closedStatuses are excluded from prioritization and rescoring.
func (s *Service) closedStatuses() []string {
	out := []string{string(s.table.Success()), string(lifecycle.LeadLost)}
	for _, st := range s.table.Statuses() {
		if s.table.IsTerminal(st) {
			out = append(out, string(st))
		}
	}
	return out
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("lead not found")
	case errors.Is(err, repository.ErrStatusConflict):
		return apperr.Conflict("lead status changed, reload and try again")
	default:
		return apperr.Wrap(apperr.KindInternal, "lead update failed", err)
	}
}
