package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Receivable is the unpaid remainder of an open invoice.
type Receivable struct {
	InvoiceID        uuid.UUID
	JobID            *uuid.UUID
	DueDate          *time.Time
	OutstandingCents int64
}

// ReceivablesReader lists a tenant's open receivables.
type ReceivablesReader interface {
	ListReceivables(ctx context.Context, tenantID uuid.UUID) ([]Receivable, error)
}

var _ ReceivablesReader = (*Repository)(nil)

const listReceivablesQuery = `
	SELECT id, job_id, due_date, amount_cents - paid_cents
	FROM invoices
	WHERE organization_id = $1
		AND status = 'open'
		AND amount_cents > paid_cents
	ORDER BY due_date ASC NULLS LAST, id ASC`

func (r *Repository) ListReceivables(ctx context.Context, tenantID uuid.UUID) ([]Receivable, error) {
	rows, err := r.pool.Query(ctx, listReceivablesQuery, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Receivable, 0)
	for rows.Next() {
		var item Receivable
		if err := rows.Scan(&item.InvoiceID, &item.JobID, &item.DueDate, &item.OutstandingCents); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return items, nil
}
