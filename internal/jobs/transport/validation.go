package transport

import (
	"roofing_backend/internal/lifecycle"
	"roofing_backend/platform/validator"
)

// TagJobStatus accepts any status of the job table.
const TagJobStatus = "job_status"

// RegisterValidations registers the job DTO tags on val.
func RegisterValidations(val *validator.Validator) error {
	table := lifecycle.JobTable()
	return val.RegisterMembership(TagJobStatus, func(s string) bool {
		return table.Contains(lifecycle.Status(s))
	})
}
