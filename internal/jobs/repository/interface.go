package repository

import (
	"context"

	"roofing_backend/internal/lifecycle"

	"github.com/google/uuid"
)

// StatusReader provides read access to a job's current status.
type StatusReader interface {
	GetStatus(ctx context.Context, tenantID, jobID uuid.UUID) (string, error)
}

// StatusWriter persists a validated job status change.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, tenantID, jobID uuid.UUID, change lifecycle.Change, actorID uuid.UUID) (StatusRecord, error)
}

// BoardReader provides the inputs for the job board.
type BoardReader interface {
	ListBoardRecords(ctx context.Context, tenantID uuid.UUID) ([]BoardRecord, error)
}

// Lister pages through a tenant's jobs.
type Lister interface {
	List(ctx context.Context, params ListParams) ([]Job, int, error)
}

// JobsRepository is the full set of job persistence operations.
type JobsRepository interface {
	StatusReader
	StatusWriter
	BoardReader
	Lister
}

var _ JobsRepository = (*Repository)(nil)
