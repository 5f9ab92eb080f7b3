// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"roofing_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// Event names double as NATS subjects.
const (
	NameLeadStatusChanged = "pipeline.lead.status_changed"
	NameJobStatusChanged  = "pipeline.job.status_changed"
	NameLeadsRescored     = "pipeline.leads.rescored"
)

// =============================================================================
// Lead Events
// =============================================================================

// LeadStatusChanged is published after a lead status change is persisted.
type LeadStatusChanged struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	TenantID uuid.UUID `json:"tenantId"`
	ActorID  uuid.UUID `json:"actorId"`
	From     string    `json:"from"`
	To       string    `json:"to"`
}

func (e LeadStatusChanged) EventName() string { return NameLeadStatusChanged }

// LeadsRescored is published after a batch of lead scores is saved.
type LeadsRescored struct {
	BaseEvent
	TenantID *uuid.UUID `json:"tenantId,omitempty"`
	Count    int        `json:"count"`
}

func (e LeadsRescored) EventName() string { return NameLeadsRescored }

// =============================================================================
// Job Events
// =============================================================================

// JobStatusChanged is published after a job status change is persisted.
type JobStatusChanged struct {
	BaseEvent
	JobID    uuid.UUID `json:"jobId"`
	TenantID uuid.UUID `json:"tenantId"`
	ActorID  uuid.UUID `json:"actorId"`
	From     string    `json:"from"`
	To       string    `json:"to"`
}

func (e JobStatusChanged) EventName() string { return NameJobStatusChanged }
