package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"roofing_backend/internal/events"
	"roofing_backend/internal/leads/repository"
	"roofing_backend/internal/leads/scoring"
	"roofing_backend/internal/leads/transport"
	"roofing_backend/internal/lifecycle"
	"roofing_backend/platform/apperr"
	"roofing_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeLead struct {
	tenantID uuid.UUID
	input    repository.ScoreInput
}

type fakeRepo struct {
	mu          sync.Mutex
	leads       map[uuid.UUID]*fakeLead
	order       []uuid.UUID
	updateErr   error
	writes      int
	pipelineHit int
	saved       []repository.ScoreUpdate
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: make(map[uuid.UUID]*fakeLead)}
}

func (r *fakeRepo) add(tenantID uuid.UUID, in repository.ScoreInput) uuid.UUID {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	in.OrganizationID = tenantID
	r.leads[in.ID] = &fakeLead{tenantID: tenantID, input: in}
	r.order = append(r.order, in.ID)
	return in.ID
}

func (r *fakeRepo) GetStatus(_ context.Context, tenantID, leadID uuid.UUID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[leadID]
	if !ok || l.tenantID != tenantID {
		return "", repository.ErrNotFound
	}
	return l.input.Status, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, tenantID, leadID uuid.UUID, change lifecycle.Change, _ uuid.UUID) (repository.StatusRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := change.Verify(); err != nil {
		return repository.StatusRecord{}, err
	}
	if r.updateErr != nil {
		return repository.StatusRecord{}, r.updateErr
	}
	l, ok := r.leads[leadID]
	if !ok || l.tenantID != tenantID {
		return repository.StatusRecord{}, repository.ErrNotFound
	}
	if l.input.Status != string(change.From()) {
		return repository.StatusRecord{}, repository.ErrStatusConflict
	}
	r.writes++
	l.input.Status = string(change.To())
	return repository.StatusRecord{ID: leadID, Status: l.input.Status, UpdatedAt: time.Now()}, nil
}

func (r *fakeRepo) ListPipelineRecords(_ context.Context, tenantID uuid.UUID) ([]repository.PipelineRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pipelineHit++
	var out []repository.PipelineRecord
	for _, id := range r.order {
		l := r.leads[id]
		if l.tenantID == tenantID {
			out = append(out, repository.PipelineRecord{Status: l.input.Status, ValueCents: l.input.EstimatedValueCents})
		}
	}
	return out, nil
}

func (r *fakeRepo) ListScoreInputs(_ context.Context, filter repository.ScoreFilter) ([]repository.ScoreInput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	excluded := make(map[string]bool)
	for _, s := range filter.ExcludeStatuses {
		excluded[s] = true
	}
	included := make(map[string]bool)
	for _, s := range filter.Statuses {
		included[s] = true
	}
	wanted := make(map[uuid.UUID]bool)
	for _, id := range filter.LeadIDs {
		wanted[id] = true
	}
	var out []repository.ScoreInput
	for _, id := range r.order {
		l := r.leads[id]
		if filter.TenantID != nil && l.tenantID != *filter.TenantID {
			continue
		}
		if len(wanted) > 0 && !wanted[id] {
			continue
		}
		if len(included) > 0 && !included[l.input.Status] {
			continue
		}
		if excluded[l.input.Status] {
			continue
		}
		out = append(out, l.input)
	}
	return out, nil
}

func (r *fakeRepo) SaveScores(_ context.Context, updates []repository.ScoreUpdate) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, updates...)
	return len(updates), nil
}

type mapCache struct {
	data        map[string][]byte
	generation  map[uuid.UUID]int
	invalidated []uuid.UUID
	all         int
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}, generation: map[uuid.UUID]int{}}
}

func (c *mapCache) SnapshotKey(_ context.Context, tenantID uuid.UUID, report string, parts ...string) (string, error) {
	key := fmt.Sprintf("%s:%s:%d.%d", tenantID, report, c.all, c.generation[tenantID])
	for _, p := range parts {
		key += ":" + p
	}
	return key, nil
}

func (c *mapCache) Get(_ context.Context, key string, dst any) (bool, error) {
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *mapCache) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *mapCache) InvalidateTenant(_ context.Context, tenantID uuid.UUID) error {
	c.generation[tenantID]++
	c.invalidated = append(c.invalidated, tenantID)
	return nil
}

func (c *mapCache) InvalidateAll(context.Context) error {
	c.all++
	return nil
}

func newTestService(repo *fakeRepo) (*Service, *events.InMemoryBus) {
	bus := events.NewInMemoryBus(nil)
	return New(repo, scoring.NewStore(nil), newMapCache(), bus, logger.Discard()), bus
}

func TestUpdateStatusAppliesAllowedTransition(t *testing.T) {
	repo := newFakeRepo()
	tenant := uuid.New()
	leadID := repo.add(tenant, repository.ScoreInput{Status: "new"})
	svc, bus := newTestService(repo)

	var published []events.LeadStatusChanged
	var mu sync.Mutex
	bus.Subscribe(events.NameLeadStatusChanged, events.HandlerFunc(func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		published = append(published, e.(events.LeadStatusChanged))
		return nil
	}))

	resp, err := svc.UpdateStatus(context.Background(), tenant, leadID, uuid.New(), " Intake_Started ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bus.Wait()

	if resp.Status != "intake_started" || resp.Label != "Intake Started" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(resp.Allowed) != 3 || resp.Allowed[0] != "intake_complete" {
		t.Fatalf("expected next transitions from intake_started, got %v", resp.Allowed)
	}
	if len(published) != 1 || published[0].From != "new" || published[0].To != "intake_started" {
		t.Fatalf("expected one status event, got %+v", published)
	}
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	cases := []struct {
		name string
		from string
		to   string
	}{
		{"skips funnel", "new", "won"},
		{"self", "quote_sent", "quote_sent"},
		{"unknown target", "new", "signed"},
		{"archived is terminal", "archived", "new"},
		{"unknown current", "legacy_status", "new"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeRepo()
			tenant := uuid.New()
			leadID := repo.add(tenant, repository.ScoreInput{Status: tc.from})
			svc, _ := newTestService(repo)

			_, err := svc.UpdateStatus(context.Background(), tenant, leadID, uuid.New(), tc.to)
			var domainErr *apperr.Error
			if !errors.As(err, &domainErr) || domainErr.Kind != apperr.KindBadRequest || domainErr.Message != apperr.MsgInvalidTransition {
				t.Fatalf("expected invalid transition error, got %v", err)
			}
			if !errors.Is(err, lifecycle.ErrInvalidTransition) {
				t.Fatalf("expected error chain to include ErrInvalidTransition")
			}
			if repo.writes != 0 {
				t.Fatalf("rejected transition must not reach the repository")
			}
		})
	}
}

func TestUpdateStatusReportsAllowedTargets(t *testing.T) {
	repo := newFakeRepo()
	tenant := uuid.New()
	leadID := repo.add(tenant, repository.ScoreInput{Status: "new"})
	svc, _ := newTestService(repo)

	_, err := svc.UpdateStatus(context.Background(), tenant, leadID, uuid.New(), "won")
	var domainErr *apperr.Error
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected domain error, got %v", err)
	}
	details := domainErr.Details.(apperr.TransitionDetails)
	want := []string{"intake_started", "lost", "archived"}
	if len(details.Allowed) != len(want) {
		t.Fatalf("expected %v, got %v", want, details.Allowed)
	}
	for i := range want {
		if details.Allowed[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, details.Allowed)
		}
	}
}

func TestUpdateStatusMapsRepositoryErrors(t *testing.T) {
	repo := newFakeRepo()
	tenant := uuid.New()
	svc, _ := newTestService(repo)

	_, err := svc.UpdateStatus(context.Background(), tenant, uuid.New(), uuid.New(), "lost")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	other := uuid.New()
	leadID := repo.add(other, repository.ScoreInput{Status: "new"})
	if _, err := svc.UpdateStatus(context.Background(), tenant, leadID, uuid.New(), "lost"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected other tenant's lead to be invisible, got %v", err)
	}

	leadID = repo.add(tenant, repository.ScoreInput{Status: "new"})
	repo.updateErr = repository.ErrStatusConflict
	if _, err := svc.UpdateStatus(context.Background(), tenant, leadID, uuid.New(), "lost"); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAllowedTransitions(t *testing.T) {
	repo := newFakeRepo()
	tenant := uuid.New()
	leadID := repo.add(tenant, repository.ScoreInput{Status: "won"})
	svc, _ := newTestService(repo)

	resp, err := svc.AllowedTransitions(context.Background(), tenant, leadID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Allowed) != 1 || resp.Allowed[0].Status != "archived" || !resp.Allowed[0].Terminal {
		t.Fatalf("expected won -> archived only, got %+v", resp.Allowed)
	}
}

func TestFunnelCountsAndCaches(t *testing.T) {
	repo := newFakeRepo()
	tenant := uuid.New()
	repo.add(tenant, repository.ScoreInput{Status: "won", EstimatedValueCents: 1500_00})
	repo.add(tenant, repository.ScoreInput{Status: "new", EstimatedValueCents: 900_00})
	repo.add(tenant, repository.ScoreInput{Status: "legacy_status", EstimatedValueCents: 100})
	repo.add(uuid.New(), repository.ScoreInput{Status: "won", EstimatedValueCents: 1})
	svc, _ := newTestService(repo)

	resp, err := svc.Funnel(context.Background(), tenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Funnel) != len(lifecycle.LeadTable().Statuses()) {
		t.Fatalf("expected dense funnel, got %d stages", len(resp.Funnel))
	}
	s := resp.Summary
	if s.TotalLeads != 3 || s.WonCount != 1 || s.Unclassified != 1 || s.WonValueCents != 1500_00 || s.ConversionRate != 33.3 {
		t.Fatalf("unexpected summary %+v", s)
	}

	if _, err := svc.Funnel(context.Background(), tenant); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.pipelineHit != 1 {
		t.Fatalf("expected second funnel call to be served from cache, repo hit %d times", repo.pipelineHit)
	}
}

func TestUpdateStatusRefreshesCachedFunnel(t *testing.T) {
	repo := newFakeRepo()
	tenant := uuid.New()
	leadID := repo.add(tenant, repository.ScoreInput{Status: "quote_sent", EstimatedValueCents: 2000_00})
	snapshots := newMapCache()
	svc := New(repo, scoring.NewStore(nil), snapshots, nil, logger.Discard())
	ctx := context.Background()

	before, err := svc.Funnel(ctx, tenant)
	if err != nil || before.Summary.WonCount != 0 {
		t.Fatalf("unexpected funnel %+v (%v)", before.Summary, err)
	}

	if _, err := svc.UpdateStatus(ctx, tenant, leadID, uuid.New(), "won"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snapshots.invalidated) != 1 || snapshots.invalidated[0] != tenant {
		t.Fatalf("expected the tenant to be invalidated before returning, got %v", snapshots.invalidated)
	}

	after, err := svc.Funnel(ctx, tenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after.Summary.WonCount != 1 || after.Summary.WonValueCents != 2000_00 || repo.pipelineHit != 2 {
		t.Fatalf("expected a fresh funnel after the write, got %+v (repo hit %d)", after.Summary, repo.pipelineHit)
	}
}

func TestRejectedTransitionKeepsCache(t *testing.T) {
	repo := newFakeRepo()
	tenant := uuid.New()
	leadID := repo.add(tenant, repository.ScoreInput{Status: "new"})
	snapshots := newMapCache()
	svc := New(repo, scoring.NewStore(nil), snapshots, nil, logger.Discard())

	if _, err := svc.UpdateStatus(context.Background(), tenant, leadID, uuid.New(), "won"); err == nil {
		t.Fatal("expected new -> won to be rejected")
	}
	if len(snapshots.invalidated) != 0 {
		t.Fatalf("expected no invalidation for a rejected move, got %v", snapshots.invalidated)
	}
}

func TestPrioritizedRanksOpenLeads(t *testing.T) {
	repo := newFakeRepo()
	tenant := uuid.New()
	cool := repo.add(tenant, repository.ScoreInput{Status: "new", JobType: "inspection", Timeline: "flexible"})
	hot := repo.add(tenant, repository.ScoreInput{Status: "intake_complete", JobType: "storm_damage", Timeline: "emergency", PhotoCount: 5, HasInsuranceClaim: true})
	repo.add(tenant, repository.ScoreInput{Status: "won", JobType: "full_replacement", Timeline: "emergency"})
	repo.add(tenant, repository.ScoreInput{Status: "archived", JobType: "full_replacement", Timeline: "emergency"})
	svc, _ := newTestService(repo)

	resp, err := svc.Prioritized(context.Background(), tenant, "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 2 || len(resp.Items) != 2 {
		t.Fatalf("expected only open leads, got %+v", resp)
	}
	if resp.Items[0].ID != hot || resp.Items[1].ID != cool {
		t.Fatalf("expected hot lead first, got %+v", resp.Items)
	}
	if resp.Items[0].Score != 75 || resp.Items[0].Tier != scoring.TierHot {
		t.Fatalf("expected 20+30+10+15 = 75 hot, got %d %s", resp.Items[0].Score, resp.Items[0].Tier)
	}

	limited, err := svc.Prioritized(context.Background(), tenant, "", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(limited.Items) != 1 || limited.Total != 2 {
		t.Fatalf("expected limit to cap items but not total, got %+v", limited)
	}

	filtered, err := svc.Prioritized(context.Background(), tenant, "New", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filtered.Total != 1 || filtered.Items[0].ID != cool {
		t.Fatalf("expected status filter to keep only the new lead, got %+v", filtered)
	}

	for _, closed := range []string{"won", "archived"} {
		got, err := svc.Prioritized(context.Background(), tenant, closed, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Total != 1 || got.Items[0].Status != closed {
			t.Fatalf("expected an explicit %s filter to list closed leads, got %+v", closed, got)
		}
	}
}

func TestRescorePersistsAndPublishes(t *testing.T) {
	repo := newFakeRepo()
	tenant := uuid.New()
	repo.add(tenant, repository.ScoreInput{Status: "new", JobType: "repair", Timeline: "within_week"})
	repo.add(tenant, repository.ScoreInput{Status: "lost", JobType: "repair"})
	svc, bus := newTestService(repo)

	var rescored events.LeadsRescored
	bus.Subscribe(events.NameLeadsRescored, events.HandlerFunc(func(_ context.Context, e events.Event) error {
		rescored = e.(events.LeadsRescored)
		return nil
	}))

	n, err := svc.Rescore(context.Background(), &tenant, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bus.Wait()

	if n != 1 || len(repo.saved) != 1 {
		t.Fatalf("expected the open lead to be rescored, got %d", n)
	}
	if repo.saved[0].Score != 35 || repo.saved[0].Tier != "cool" {
		t.Fatalf("expected 15+20 = 35 cool, got %+v", repo.saved[0])
	}
	var factors []scoring.Factor
	if err := json.Unmarshal(repo.saved[0].Factors, &factors); err != nil || len(factors) != 2 {
		t.Fatalf("expected two stored factors, got %s (%v)", repo.saved[0].Factors, err)
	}
	if rescored.Count != 1 || rescored.TenantID == nil || *rescored.TenantID != tenant {
		t.Fatalf("expected rescored event for tenant, got %+v", rescored)
	}
}

func TestScoreUsesSwappedRules(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	req := transport.ScoreRequest{JobType: "gutters"}

	if got := svc.Score(req).Score; got != 8 {
		t.Fatalf("expected default gutters score 8, got %d", got)
	}

	rules := scoring.DefaultRules()
	rules.JobTypePoints["gutters"] = 30
	if err := svc.scores.Swap(rules); err != nil {
		t.Fatalf("swap: %v", err)
	}
	if got := svc.Score(req).Score; got != 30 {
		t.Fatalf("expected swapped gutters score 30, got %d", got)
	}
}

func TestRescoreInvalidatesScope(t *testing.T) {
	repo := newFakeRepo()
	tenant := uuid.New()
	repo.add(tenant, repository.ScoreInput{Status: "new", JobType: "repair"})
	snapshots := newMapCache()
	svc := New(repo, scoring.NewStore(nil), snapshots, nil, logger.Discard())

	if _, err := svc.Rescore(context.Background(), &tenant, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snapshots.invalidated) != 1 || snapshots.invalidated[0] != tenant || snapshots.all != 0 {
		t.Fatalf("expected tenant invalidation, got %v (all=%d)", snapshots.invalidated, snapshots.all)
	}

	if _, err := svc.Rescore(context.Background(), nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snapshots.all != 1 {
		t.Fatalf("expected a full invalidation for an all-tenant rescore, got %d", snapshots.all)
	}
}
