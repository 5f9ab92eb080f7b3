package service

import (
	"context"
	"errors"
	"testing"
	"time"

	jobtransport "roofing_backend/internal/jobs/transport"
	leadtransport "roofing_backend/internal/leads/transport"
	"roofing_backend/internal/reports/aging"
	"roofing_backend/internal/reports/repository"
	"roofing_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type receivablesStub struct {
	items []repository.Receivable
	err   error
	calls int
}

func (r *receivablesStub) ListReceivables(context.Context, uuid.UUID) ([]repository.Receivable, error) {
	r.calls++
	return r.items, r.err
}

type funnelStub struct {
	resp leadtransport.FunnelResponse
	err  error
}

func (f funnelStub) Funnel(context.Context, uuid.UUID) (leadtransport.FunnelResponse, error) {
	return f.resp, f.err
}

type boardStub struct {
	resp jobtransport.BoardResponse
}

func (b boardStub) Board(ctx context.Context, _ uuid.UUID) (jobtransport.BoardResponse, error) {
	return b.resp, ctx.Err()
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestReceivablesAgingBuckets(t *testing.T) {
	repo := &receivablesStub{items: []repository.Receivable{
		{InvoiceID: uuid.New(), DueDate: nil, OutstandingCents: 10_000},
		{InvoiceID: uuid.New(), DueDate: date(2026, 3, 20), OutstandingCents: 20_000},
		{InvoiceID: uuid.New(), DueDate: date(2026, 3, 1), OutstandingCents: 30_000},
		{InvoiceID: uuid.New(), DueDate: date(2026, 1, 30), OutstandingCents: 40_000},
		{InvoiceID: uuid.New(), DueDate: date(2025, 12, 1), OutstandingCents: 50_000},
	}}
	svc := New(repo, funnelStub{}, boardStub{}, nil, logger.Discard())

	resp, err := svc.ReceivablesAging(context.Background(), uuid.New(), time.Date(2026, 3, 20, 15, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "2026-03-20", resp.AsOf)
	require.Len(t, resp.Buckets, 5)
	assert.Equal(t, aging.Keys(), []string{resp.Buckets[0].Key, resp.Buckets[1].Key, resp.Buckets[2].Key, resp.Buckets[3].Key, resp.Buckets[4].Key})

	// due today and no due date are current; 19, 49 and 109 days overdue fill the rest
	assert.Equal(t, 2, resp.Buckets[0].Count)
	assert.Equal(t, int64(30_000), resp.Buckets[0].AmountCents)
	assert.Equal(t, 1, resp.Buckets[1].Count)
	assert.Equal(t, 1, resp.Buckets[2].Count)
	assert.Equal(t, 0, resp.Buckets[3].Count)
	assert.Equal(t, 1, resp.Buckets[4].Count)
	assert.Equal(t, 5, resp.TotalCount)
	assert.Equal(t, int64(150_000), resp.TotalAmountCents)
}

func TestReceivablesAgingWrapsRepositoryErrors(t *testing.T) {
	svc := New(&receivablesStub{err: errors.New("connection reset")}, funnelStub{}, boardStub{}, nil, logger.Discard())
	_, err := svc.ReceivablesAging(context.Background(), uuid.New(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load receivables")
}

func TestDashboardCombinesReports(t *testing.T) {
	repo := &receivablesStub{items: []repository.Receivable{{InvoiceID: uuid.New(), OutstandingCents: 5_000}}}
	leads := funnelStub{resp: leadtransport.FunnelResponse{Summary: leadtransport.FunnelSummary{TotalLeads: 7}}}
	jobs := boardStub{resp: jobtransport.BoardResponse{Summary: jobtransport.BoardSummary{TotalJobs: 3}}}
	svc := New(repo, leads, jobs, nil, logger.Discard())
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }

	resp, err := svc.Dashboard(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 7, resp.Leads.Summary.TotalLeads)
	assert.Equal(t, 3, resp.Jobs.Summary.TotalJobs)
	assert.Equal(t, "2026-05-01", resp.Receivables.AsOf)
	assert.Equal(t, 1, resp.Receivables.TotalCount)
}

func TestDashboardFailsWhenAnyReportFails(t *testing.T) {
	boom := errors.New("funnel unavailable")
	svc := New(&receivablesStub{}, funnelStub{err: boom}, boardStub{}, nil, logger.Discard())

	_, err := svc.Dashboard(context.Background(), uuid.New())
	assert.ErrorIs(t, err, boom)
}
