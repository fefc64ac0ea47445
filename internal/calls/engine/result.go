package engine

// Status describes what the engine did with one inbound event. Failure paths
// degrade to logged skips, so tests and callers observe outcomes through
// Result rather than log lines.
type Status string

const (
	// StatusDropped: malformed or missing required fields, no state change.
	StatusDropped Status = "dropped"
	// StatusDuplicate: absorbed by the dedupe window (possibly patching the
	// last event's duration).
	StatusDuplicate Status = "duplicate"
	// StatusIntermediate: appended and handled as an intermediate signal.
	StatusIntermediate Status = "intermediate"
	// StatusFinalized: the session's single terminal commit was issued.
	StatusFinalized Status = "finalized"
	// StatusCorrected: one-time authoritative correction after finalize.
	StatusCorrected Status = "corrected"
)

// Result reports how an inbound event was reconciled.
type Result struct {
	Status   Status
	Identity string
}
