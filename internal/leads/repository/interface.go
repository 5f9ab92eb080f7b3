package repository

import (
	"context"

	"roofing_backend/internal/lifecycle"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// StatusReader provides read access to a lead's current status.
type StatusReader interface {
	GetStatus(ctx context.Context, tenantID, leadID uuid.UUID) (string, error)
}

// StatusWriter persists a validated status change. A zero lifecycle.Change
// is rejected with lifecycle.ErrUnvalidatedChange.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, tenantID, leadID uuid.UUID, change lifecycle.Change, actorID uuid.UUID) (StatusRecord, error)
}

// PipelineReader provides the inputs for the lead funnel.
type PipelineReader interface {
	ListPipelineRecords(ctx context.Context, tenantID uuid.UUID) ([]PipelineRecord, error)
}

// ScoreStore reads scoring signals and persists computed scores.
type ScoreStore interface {
	ListScoreInputs(ctx context.Context, filter ScoreFilter) ([]ScoreInput, error)
	SaveScores(ctx context.Context, updates []ScoreUpdate) (int, error)
}

// LeadsRepository is the full set of lead persistence operations.
type LeadsRepository interface {
	StatusReader
	StatusWriter
	PipelineReader
	ScoreStore
}

var _ LeadsRepository = (*Repository)(nil)
