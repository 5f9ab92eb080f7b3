package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TaskLeadsRescore = "leads.rescore"

// RescorePayload selects the leads to rescore. A nil TenantID covers every
// tenant; empty LeadIDs covers every open lead.
type RescorePayload struct {
	TenantID *string  `json:"tenantId,omitempty"`
	LeadIDs  []string `json:"leadIds,omitempty"`
}

func NewRescoreTask(payload RescorePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadsRescore, data), nil
}

func ParseRescorePayload(task *asynq.Task) (RescorePayload, error) {
	var payload RescorePayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RescorePayload{}, err
	}
	return payload, nil
}

// Targets parses the payload identifiers.
func (p RescorePayload) Targets() (*uuid.UUID, []uuid.UUID, error) {
	var tenantID *uuid.UUID
	if p.TenantID != nil && *p.TenantID != "" {
		parsed, err := uuid.Parse(*p.TenantID)
		if err != nil {
			return nil, nil, fmt.Errorf("tenant id: %w", err)
		}
		tenantID = &parsed
	}

	leadIDs := make([]uuid.UUID, 0, len(p.LeadIDs))
	for _, raw := range p.LeadIDs {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("lead id %q: %w", raw, err)
		}
		leadIDs = append(leadIDs, parsed)
	}
	return tenantID, leadIDs, nil
}
