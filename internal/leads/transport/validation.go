package transport

import (
	"roofing_backend/internal/lifecycle"
	"roofing_backend/platform/validator"
)

// TagLeadStatus accepts any status of the lead table.
const TagLeadStatus = "lead_status"

// RegisterValidations registers the lead DTO tags on val.
func RegisterValidations(val *validator.Validator) error {
	table := lifecycle.LeadTable()
	return val.RegisterMembership(TagLeadStatus, func(s string) bool {
		return table.Contains(lifecycle.Status(s))
	})
}
