package transport

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs
type UpdateStatusRequest struct {
	To string `json:"to" validate:"required,max=64"`
}

type ListJobsQuery struct {
	Status   string `form:"status" validate:"omitempty,job_status"`
	Page     int    `form:"page" validate:"omitempty,gte=1,lte=10000"`
	PageSize int    `form:"pageSize" validate:"omitempty,gte=1,lte=100"`
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

type BoardColumn struct {
	Status     string `json:"status"`
	Label      string `json:"label"`
	Count      int    `json:"count"`
	ValueCents int64  `json:"valueCents"`
}

type BoardSummary struct {
	TotalJobs           int     `json:"totalJobs"`
	CompletedCount      int     `json:"completedCount"`
	Unclassified        int     `json:"unclassified"`
	CompletedValueCents int64   `json:"completedValueCents"`
	CompletionRate      float64 `json:"completionRate"`
}

type BoardResponse struct {
	Columns []BoardColumn `json:"columns"`
	Summary BoardSummary  `json:"summary"`
}

type JobResponse struct {
	ID                 uuid.UUID  `json:"id"`
	LeadID             *uuid.UUID `json:"leadId,omitempty"`
	Title              string     `json:"title"`
	Status             string     `json:"status"`
	Label              string     `json:"label"`
	ContractValueCents int64      `json:"contractValueCents"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

type JobListResponse struct {
	Items      []JobResponse `json:"items"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}
