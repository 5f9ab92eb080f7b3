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
	ErrNotFound       = errors.New("job not found")
	ErrStatusConflict = errors.New("job status changed concurrently")
)

const entityKind = "job"

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// StatusRecord is a job's status after a write.
type StatusRecord struct {
	ID        uuid.UUID
	Status    string
	UpdatedAt time.Time
}

// BoardRecord is one job as seen by the job board.
type BoardRecord struct {
	Status     string
	ValueCents int64
}

// Job is a job row for listings.
type Job struct {
	ID                 uuid.UUID
	LeadID             *uuid.UUID
	Title              string
	Status             string
	ContractValueCents int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ListParams narrows List. An empty Status does not filter.
type ListParams struct {
	TenantID uuid.UUID
	Status   string
	Limit    int
	Offset   int
}

const getStatusQuery = `
	SELECT status
	FROM jobs
	WHERE id = $1 AND organization_id = $2`

const lockStatusQuery = `
	SELECT status
	FROM jobs
	WHERE id = $1 AND organization_id = $2
	FOR UPDATE`

const setStatusQuery = `
	UPDATE jobs
	SET status = $3, updated_at = now()
	WHERE id = $1 AND organization_id = $2
	RETURNING updated_at`

const insertHistoryQuery = `
	INSERT INTO status_history (organization_id, entity_kind, entity_id, from_status, to_status, actor_id)
	VALUES ($1, $2, $3, $4, $5, $6)`

const listBoardQuery = `
	SELECT status, contract_value_cents
	FROM jobs
	WHERE organization_id = $1`

const listJobsQuery = `
	SELECT id, lead_id, title, status, contract_value_cents, created_at, updated_at,
		COUNT(*) OVER() AS total
	FROM jobs
	WHERE organization_id = $1
		AND ($2::text = '' OR status = $2)
	ORDER BY updated_at DESC, id ASC
	LIMIT $3 OFFSET $4`

func (r *Repository) GetStatus(ctx context.Context, tenantID, jobID uuid.UUID) (string, error) {
	var status string
	err := r.pool.QueryRow(ctx, getStatusQuery, jobID, tenantID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return status, err
}

// UpdateStatus locks the row, checks that it is still at change.From() and
// writes the new status together with a history entry.
func (r *Repository) UpdateStatus(ctx context.Context, tenantID, jobID uuid.UUID, change lifecycle.Change, actorID uuid.UUID) (StatusRecord, error) {
	if err := change.Verify(); err != nil {
		return StatusRecord{}, err
	}
	if change.Kind() != lifecycle.KindJob {
		return StatusRecord{}, fmt.Errorf("job repository given %s change", change.Kind())
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return StatusRecord{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current string
	if err := tx.QueryRow(ctx, lockStatusQuery, jobID, tenantID).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StatusRecord{}, ErrNotFound
		}
		return StatusRecord{}, err
	}
	if current != string(change.From()) {
		return StatusRecord{}, ErrStatusConflict
	}

	rec := StatusRecord{ID: jobID, Status: string(change.To())}
	if err := tx.QueryRow(ctx, setStatusQuery, jobID, tenantID, rec.Status).Scan(&rec.UpdatedAt); err != nil {
		return StatusRecord{}, err
	}

	var actor any
	if actorID != uuid.Nil {
		actor = actorID
	}
	if _, err := tx.Exec(ctx, insertHistoryQuery, tenantID, entityKind, jobID, current, rec.Status, actor); err != nil {
		return StatusRecord{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return StatusRecord{}, err
	}
	return rec, nil
}

func (r *Repository) ListBoardRecords(ctx context.Context, tenantID uuid.UUID) ([]BoardRecord, error) {
	rows, err := r.pool.Query(ctx, listBoardQuery, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]BoardRecord, 0)
	for rows.Next() {
		var item BoardRecord
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

// List returns one page of jobs and the total number of matches.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Job, int, error) {
	rows, err := r.pool.Query(ctx, listJobsQuery, params.TenantID, params.Status, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]Job, 0)
	total := 0
	for rows.Next() {
		var item Job
		if err := rows.Scan(
			&item.ID, &item.LeadID, &item.Title, &item.Status, &item.ContractValueCents,
			&item.CreatedAt, &item.UpdatedAt, &total,
		); err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return items, total, nil
}
