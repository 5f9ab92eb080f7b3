package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jobtransport "roofing_backend/internal/jobs/transport"
	leadtransport "roofing_backend/internal/leads/transport"
	"roofing_backend/internal/reports/repository"
	"roofing_backend/internal/reports/service"
	"roofing_backend/internal/reports/transport"
	"roofing_backend/platform/httpkit"
	"roofing_backend/platform/logger"
	"roofing_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type overdueInvoice struct{}

func (overdueInvoice) ListReceivables(context.Context, uuid.UUID) ([]repository.Receivable, error) {
	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []repository.Receivable{{InvoiceID: uuid.New(), DueDate: &due, OutstandingCents: 80_000}}, nil
}

type emptyFunnel struct{}

func (emptyFunnel) Funnel(context.Context, uuid.UUID) (leadtransport.FunnelResponse, error) {
	return leadtransport.FunnelResponse{}, nil
}

type emptyBoard struct{}

func (emptyBoard) Board(context.Context, uuid.UUID) (jobtransport.BoardResponse, error) {
	return jobtransport.BoardResponse{}, nil
}

func newEngine(withTenant bool) *gin.Engine {
	svc := service.New(overdueInvoice{}, emptyFunnel{}, emptyBoard{}, nil, logger.Discard())
	r := gin.New()
	group := r.Group("/reports", func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, uuid.New())
		if withTenant {
			c.Set(httpkit.ContextTenantIDKey, uuid.New())
		}
		c.Next()
	})
	New(svc, validator.New()).RegisterRoutes(group)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestAgingAsOf(t *testing.T) {
	r := newEngine(true)

	w := get(r, "/reports/receivables/aging?asOf=2026-01-31")
	require.Equal(t, http.StatusOK, w.Code)
	var resp transport.AgingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2026-01-31", resp.AsOf)
	assert.Equal(t, 1, resp.Buckets[1].Count)

	w = get(r, "/reports/receivables/aging?asOf=2026-06-01")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(80_000), resp.Buckets[4].AmountCents)
}

func TestAgingRejectsBadDate(t *testing.T) {
	w := get(newEngine(true), "/reports/receivables/aging?asOf=31-01-2026")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation failed")
}

func TestReportsRequireTenant(t *testing.T) {
	w := get(newEngine(false), "/reports/dashboard")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDashboard(t *testing.T) {
	w := get(newEngine(true), "/reports/dashboard")
	require.Equal(t, http.StatusOK, w.Code)
	var resp transport.DashboardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Receivables.TotalCount)
}
