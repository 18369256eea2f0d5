package instrumentation

// Metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	// Calendar backends
	BackendGoogle = "google"
	BackendLocal  = "local"

	// Scheduling modes
	ModeManual = "manual"
	ModeAuto   = "auto"
	ModeSweep  = "sweep"
	ModeFind   = "find"
	ModeHours  = "hours"

	// Scheduling outcomes
	OutcomePlaced         = "placed"
	OutcomeEscalated      = "escalated"
	OutcomeDeadlineMissed = "deadline_missed"
	OutcomeNoAvailability = "no_availability"
	OutcomeError          = "error"

	// Conflict reschedule results
	ConflictRescheduled  = "rescheduled"
	ConflictFixed        = "fixed"
	ConflictDeadlineMiss = "deadline_missed"
	ConflictDepthCapped  = "depth_capped"
	ConflictUnplaced     = "unplaced"
	ConflictAllDay       = "all_day"
)
