package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"roofing_backend/internal/lifecycle"

	"github.com/google/uuid"
)

func TestStatusQueriesAreTenantScoped(t *testing.T) {
	for name, query := range map[string]string{
		"get":  getStatusQuery,
		"lock": lockStatusQuery,
		"set":  setStatusQuery,
	} {
		if !strings.Contains(strings.ToLower(query), "organization_id = $2") {
			t.Fatalf("%s query must be tenant scoped", name)
		}
	}
	if !strings.Contains(strings.ToLower(listPipelineQuery), "where organization_id = $1") {
		t.Fatalf("pipeline query must be tenant scoped")
	}
}

func TestLockQueryTakesRowLock(t *testing.T) {
	if !strings.HasSuffix(strings.TrimSpace(strings.ToLower(lockStatusQuery)), "for update") {
		t.Fatalf("status check must lock the row until the write commits")
	}
}

func TestHistoryRecordsBothStatuses(t *testing.T) {
	query := strings.ToLower(insertHistoryQuery)
	for _, column := range []string{"from_status", "to_status", "actor_id", "entity_kind"} {
		if !strings.Contains(query, column) {
			t.Fatalf("history insert missing %q", column)
		}
	}
}

func TestUpdateStatusRejectsUnvalidatedChange(t *testing.T) {
	repo := New(nil)
	_, err := repo.UpdateStatus(context.Background(), uuid.New(), uuid.New(), lifecycle.Change{}, uuid.New())
	if !errors.Is(err, lifecycle.ErrUnvalidatedChange) {
		t.Fatalf("expected ErrUnvalidatedChange, got %v", err)
	}
}

func TestUpdateStatusRejectsJobChange(t *testing.T) {
	change, err := lifecycle.JobTable().Transition(lifecycle.JobScheduled, lifecycle.JobInProgress)
	if err != nil {
		t.Fatalf("unexpected transition error: %v", err)
	}
	repo := New(nil)
	if _, err := repo.UpdateStatus(context.Background(), uuid.New(), uuid.New(), change, uuid.New()); err == nil {
		t.Fatalf("expected a job change to be refused by the lead repository")
	}
}

func TestSaveScoresEmptyIsNoop(t *testing.T) {
	saved, err := New(nil).SaveScores(context.Background(), nil)
	if err != nil || saved != 0 {
		t.Fatalf("expected no-op, got %d, %v", saved, err)
	}
}
