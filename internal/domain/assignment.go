package domain

import "time"

// AssignmentMode tells whether an assignment came from the batch
// scheduler or an operator override.
type AssignmentMode string

const (
	AssignmentModeAuto   AssignmentMode = "auto"
	AssignmentModeManual AssignmentMode = "manual"
)

// AssignmentCandidate is a transient snapshot of an eligible technician
// at scoring time. It is persisted only inside an AssignmentResult for
// auditability and recomputed on every scoring call.
type AssignmentCandidate struct {
	TechnicianID   string   `json:"technician_id"`
	TechnicianName string   `json:"technician_name"`
	Specialties    []string `json:"specialties"`
	Workload       int      `json:"workload"`
}

// AssignmentResult records one assignment attempt, successful or not.
// Immutable once created.
type AssignmentResult struct {
	ID            string
	TicketID      string
	TechnicianID  *string
	Succeeded     bool
	FailureReason string
	Score         int
	Justification string
	Candidates    []AssignmentCandidate
	Mode          AssignmentMode
	ActorID       string
	CreatedAt     time.Time
}
