package transport

import (
	"time"

	jobtransport "roofing_backend/internal/jobs/transport"
	leadtransport "roofing_backend/internal/leads/transport"
	"roofing_backend/internal/reports/aging"
)

// DateLayout is the accepted asOf format.
const DateLayout = "2006-01-02"

// Request DTOs
type AgingQuery struct {
	AsOf string `form:"asOf" validate:"omitempty,datetime=2006-01-02"`
}

// Response DTOs
type AgingResponse struct {
	AsOf             string         `json:"asOf"`
	Buckets          []aging.Bucket `json:"buckets"`
	TotalCount       int            `json:"totalCount"`
	TotalAmountCents int64          `json:"totalAmountCents"`
}

type DashboardResponse struct {
	Leads       leadtransport.FunnelResponse `json:"leads"`
	Jobs        jobtransport.BoardResponse   `json:"jobs"`
	Receivables AgingResponse                `json:"receivables"`
	GeneratedAt time.Time                    `json:"generatedAt"`
}
