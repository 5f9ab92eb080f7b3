package transport

import (
	"time"

	"roofing_backend/internal/leads/scoring"

	"github.com/google/uuid"
)

// Request DTOs
type UpdateStatusRequest struct {
	To string `json:"to" validate:"required,max=64"`
}

type PrioritizedQuery struct {
	Limit  int    `form:"limit" validate:"omitempty,gte=1,lte=100"`
	Status string `form:"status" validate:"omitempty,lead_status"`
}

type ScoreRequest struct {
	JobType           string  `json:"jobType" validate:"max=64"`
	Timeline          string  `json:"timeline" validate:"max=64"`
	PhotoCount        int     `json:"photoCount" validate:"gte=0,lte=1000"`
	HasInsuranceClaim bool    `json:"hasInsuranceClaim"`
	RoofSizeSqFt      float64 `json:"roofSizeSqFt" validate:"gte=0"`
}

type RescoreRequest struct {
	LeadIDs []uuid.UUID `json:"leadIds" validate:"max=500"`
}

// Response DTOs
type StatusOption struct {
	Status   string `json:"status"`
	Label    string `json:"label"`
	Terminal bool   `json:"terminal"`
}

type StatusResponse struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	Label     string    `json:"label"`
	Allowed   []string  `json:"allowed"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type TransitionsResponse struct {
	ID      uuid.UUID      `json:"id"`
	Status  string         `json:"status"`
	Label   string         `json:"label"`
	Allowed []StatusOption `json:"allowed"`
}

type FunnelStage struct {
	Status     string `json:"status"`
	Label      string `json:"label"`
	Count      int    `json:"count"`
	ValueCents int64  `json:"valueCents"`
}

type FunnelSummary struct {
	TotalLeads     int     `json:"totalLeads"`
	WonCount       int     `json:"wonCount"`
	Unclassified   int     `json:"unclassified"`
	WonValueCents  int64   `json:"wonValueCents"`
	ConversionRate float64 `json:"conversionRate"`
}

type FunnelResponse struct {
	Funnel  []FunnelStage `json:"funnel"`
	Summary FunnelSummary `json:"summary"`
}

type PrioritizedLead struct {
	ID                  uuid.UUID        `json:"id"`
	ConsumerName        string           `json:"consumerName"`
	Status              string           `json:"status"`
	EstimatedValueCents int64            `json:"estimatedValueCents"`
	Score               int              `json:"score"`
	Tier                scoring.Tier     `json:"tier"`
	Factors             []scoring.Factor `json:"factors"`
}

type PrioritizedResponse struct {
	Items []PrioritizedLead `json:"items"`
	Total int               `json:"total"`
}

type RescoreResponse struct {
	Scored int `json:"scored"`
}
