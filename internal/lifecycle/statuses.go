package lifecycle

// Lead funnel statuses in canonical order.
const (
	LeadNew                   Status = "new"
	LeadIntakeStarted         Status = "intake_started"
	LeadIntakeComplete        Status = "intake_complete"
	LeadEstimateGenerated     Status = "estimate_generated"
	LeadEstimateSent          Status = "estimate_sent"
	LeadConsultationScheduled Status = "consultation_scheduled"
	LeadQuoteSent             Status = "quote_sent"
	LeadWon                   Status = "won"
	LeadLost                  Status = "lost"
	LeadArchived              Status = "archived"
)

// Job lifecycle statuses in canonical order.
const (
	JobPendingStart      Status = "pending_start"
	JobMaterialsOrdered  Status = "materials_ordered"
	JobScheduled         Status = "scheduled"
	JobInProgress        Status = "in_progress"
	JobInspectionPending Status = "inspection_pending"
	JobPunchList         Status = "punch_list"
	JobCompleted         Status = "completed"
	JobWarrantyActive    Status = "warranty_active"
	JobClosed            Status = "closed"
)

// leadTable: archived is the only terminal status. A lost lead may be
// reopened as new.
var leadTable = MustTable(KindLead, LeadWon,
	Definition{Status: LeadNew, Next: []Status{LeadIntakeStarted, LeadLost, LeadArchived}},
	Definition{Status: LeadIntakeStarted, Next: []Status{LeadIntakeComplete, LeadLost, LeadArchived}},
	Definition{Status: LeadIntakeComplete, Next: []Status{LeadEstimateGenerated, LeadConsultationScheduled, LeadLost, LeadArchived}},
	Definition{Status: LeadEstimateGenerated, Next: []Status{LeadEstimateSent, LeadLost, LeadArchived}},
	Definition{Status: LeadEstimateSent, Next: []Status{LeadConsultationScheduled, LeadQuoteSent, LeadWon, LeadLost, LeadArchived}},
	Definition{Status: LeadConsultationScheduled, Next: []Status{LeadQuoteSent, LeadWon, LeadLost, LeadArchived}},
	Definition{Status: LeadQuoteSent, Next: []Status{LeadConsultationScheduled, LeadWon, LeadLost, LeadArchived}},
	Definition{Status: LeadWon, Next: []Status{LeadArchived}},
	Definition{Status: LeadLost, Next: []Status{LeadNew, LeadArchived}},
	Definition{Status: LeadArchived},
)

// jobTable encodes forward progression plus the rework loops
// punch_list <-> in_progress, inspection_pending <-> in_progress and
// completed -> punch_list. Every status except closed can be closed directly.
var jobTable = MustTable(KindJob, JobCompleted,
	Definition{Status: JobPendingStart, Next: []Status{JobMaterialsOrdered, JobScheduled, JobClosed}},
	Definition{Status: JobMaterialsOrdered, Next: []Status{JobScheduled, JobClosed}},
	Definition{Status: JobScheduled, Next: []Status{JobMaterialsOrdered, JobInProgress, JobClosed}},
	Definition{Status: JobInProgress, Next: []Status{JobInspectionPending, JobPunchList, JobClosed}},
	Definition{Status: JobInspectionPending, Next: []Status{JobInProgress, JobPunchList, JobCompleted, JobClosed}},
	Definition{Status: JobPunchList, Next: []Status{JobInProgress, JobInspectionPending, JobCompleted, JobClosed}},
	Definition{Status: JobCompleted, Next: []Status{JobPunchList, JobWarrantyActive, JobClosed}},
	Definition{Status: JobWarrantyActive, Next: []Status{JobClosed}},
	Definition{Status: JobClosed},
)

// LeadTable returns the lead funnel table.
func LeadTable() *Table { return leadTable }

// JobTable returns the job lifecycle table.
func JobTable() *Table { return jobTable }

// TableFor returns the default table for kind, or nil.
func TableFor(kind Kind) *Table {
	switch kind {
	case KindLead:
		return leadTable
	case KindJob:
		return jobTable
	default:
		return nil
	}
}
