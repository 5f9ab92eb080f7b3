package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roofing_backend/internal/lifecycle"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound       = errors.New("lead not found")
	ErrStatusConflict = errors.New("lead status changed concurrently")
)

const entityKind = "lead"

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// StatusRecord is a lead's status after a write.
type StatusRecord struct {
	ID        uuid.UUID
	Status    string
	UpdatedAt time.Time
}

// PipelineRecord is one lead as seen by the funnel.
type PipelineRecord struct {
	Status     string
	ValueCents int64
}

// ScoreInput holds the scoring signals stored on a lead.
type ScoreInput struct {
	ID                  uuid.UUID
	OrganizationID      uuid.UUID
	ConsumerName        string
	Status              string
	EstimatedValueCents int64
	JobType             string
	Timeline            string
	PhotoCount          int
	HasInsuranceClaim   bool
	RoofSizeSqFt        float64
}

// ScoreFilter narrows ListScoreInputs. Empty fields do not filter.
type ScoreFilter struct {
	TenantID        *uuid.UUID
	LeadIDs         []uuid.UUID
	Statuses        []string
	ExcludeStatuses []string
}

// ScoreUpdate is a computed score to persist. Factors is JSON.
type ScoreUpdate struct {
	LeadID   uuid.UUID
	Score    int
	Tier     string
	Factors  []byte
	ScoredAt time.Time
}

const getStatusQuery = `
	SELECT status
	FROM leads
	WHERE id = $1 AND organization_id = $2`

const lockStatusQuery = `
	SELECT status
	FROM leads
	WHERE id = $1 AND organization_id = $2
	FOR UPDATE`

const setStatusQuery = `
	UPDATE leads
	SET status = $3, updated_at = now()
	WHERE id = $1 AND organization_id = $2
	RETURNING updated_at`

const insertHistoryQuery = `
	INSERT INTO status_history (organization_id, entity_kind, entity_id, from_status, to_status, actor_id)
	VALUES ($1, $2, $3, $4, $5, $6)`

const listPipelineQuery = `
	SELECT status, estimated_value_cents
	FROM leads
	WHERE organization_id = $1`

const listScoreInputsQuery = `
	SELECT id, organization_id, consumer_name, status, estimated_value_cents,
		job_type, timeline, photo_count, has_insurance_claim, roof_size_sqft
	FROM leads
	WHERE ($1::uuid IS NULL OR organization_id = $1)
		AND (cardinality($2::uuid[]) = 0 OR id = ANY($2))
		AND (cardinality($3::text[]) = 0 OR status = ANY($3))
		AND NOT (status = ANY($4::text[]))
	ORDER BY created_at ASC, id ASC`

const saveScoreQuery = `
	UPDATE leads
	SET score = $2, score_tier = $3, score_factors = $4::jsonb, scored_at = $5
	WHERE id = $1`

func (r *Repository) GetStatus(ctx context.Context, tenantID, leadID uuid.UUID) (string, error) {
	var status string
	err := r.pool.QueryRow(ctx, getStatusQuery, leadID, tenantID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return status, err
}

// UpdateStatus locks the row, checks that it is still at change.From() and
// writes the new status together with a history entry.
func (r *Repository) UpdateStatus(ctx context.Context, tenantID, leadID uuid.UUID, change lifecycle.Change, actorID uuid.UUID) (StatusRecord, error) {
	if err := change.Verify(); err != nil {
		return StatusRecord{}, err
	}
	if change.Kind() != lifecycle.KindLead {
		return StatusRecord{}, fmt.Errorf("lead repository given %s change", change.Kind())
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return StatusRecord{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current string
	if err := tx.QueryRow(ctx, lockStatusQuery, leadID, tenantID).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StatusRecord{}, ErrNotFound
		}
		return StatusRecord{}, err
	}
	if current != string(change.From()) {
		return StatusRecord{}, ErrStatusConflict
	}

	rec := StatusRecord{ID: leadID, Status: string(change.To())}
	if err := tx.QueryRow(ctx, setStatusQuery, leadID, tenantID, rec.Status).Scan(&rec.UpdatedAt); err != nil {
		return StatusRecord{}, err
	}

	if _, err := tx.Exec(ctx, insertHistoryQuery, tenantID, entityKind, leadID, current, rec.Status, nullableUUID(actorID)); err != nil {
		return StatusRecord{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return StatusRecord{}, err
	}
	return rec, nil
}

func (r *Repository) ListPipelineRecords(ctx context.Context, tenantID uuid.UUID) ([]PipelineRecord, error) {
	rows, err := r.pool.Query(ctx, listPipelineQuery, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]PipelineRecord, 0)
	for rows.Next() {
		var item PipelineRecord
		if err := rows.Scan(&item.Status, &item.ValueCents); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return items, nil
}

func (r *Repository) ListScoreInputs(ctx context.Context, filter ScoreFilter) ([]ScoreInput, error) {
	ids := filter.LeadIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	rows, err := r.pool.Query(ctx, listScoreInputsQuery, filter.TenantID, ids, nonNil(filter.Statuses), nonNil(filter.ExcludeStatuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ScoreInput, 0)
	for rows.Next() {
		var item ScoreInput
		if err := rows.Scan(
			&item.ID, &item.OrganizationID, &item.ConsumerName, &item.Status, &item.EstimatedValueCents,
			&item.JobType, &item.Timeline, &item.PhotoCount, &item.HasInsuranceClaim, &item.RoofSizeSqFt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return items, nil
}

// SaveScores writes all updates in one batch and returns the rows touched.
func (r *Repository) SaveScores(ctx context.Context, updates []ScoreUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, u := range updates {
		batch.Queue(saveScoreQuery, u.LeadID, u.Score, u.Tier, string(u.Factors), u.ScoredAt)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	saved := 0
	for range updates {
		tag, err := results.Exec()
		if err != nil {
			return saved, err
		}
		saved += int(tag.RowsAffected())
	}
	return saved, nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func nullableUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}
