package dto

import (
	"time"

	"github.com/soportec/triage-service/internal/domain"
)

// CandidateResponse annotates one eligible technician.
type CandidateResponse struct {
	TechnicianID   string   `json:"technician_id"`
	TechnicianName string   `json:"technician_name"`
	Specialties    []string `json:"specialties"`
	Workload       int      `json:"workload"`
}

// AssignmentResultResponse is one assignment attempt, success or not.
type AssignmentResultResponse struct {
	ID            string                `json:"id"`
	TicketID      string                `json:"ticket_id"`
	TechnicianID  *string               `json:"tecnico_id"`
	Succeeded     bool                  `json:"succeeded"`
	FailureReason string                `json:"failure_reason,omitempty"`
	Score         int                   `json:"score"`
	Justification string                `json:"justification"`
	Candidates    []CandidateResponse   `json:"candidates"`
	Mode          domain.AssignmentMode `json:"mode"`
	ActorID       string                `json:"actor_id"`
	CreatedAt     time.Time             `json:"created_at"`
}

// BatchReportResponse aggregates one AutoTriage run.
type BatchReportResponse struct {
	TotalProcessed int                        `json:"total_processed"`
	Assigned       int                        `json:"assigned"`
	Failed         int                        `json:"failed"`
	Assignments    []AssignmentResultResponse `json:"assignments"`
}

// ManualAssignmentInfoResponse is the prepare-step payload.
type ManualAssignmentInfoResponse struct {
	Ticket     TicketDetailResponse `json:"ticket"`
	Candidates []CandidateResponse  `json:"candidates"`
}

// ConfirmAssignmentRequest payload for operator overrides.
type ConfirmAssignmentRequest struct {
	TechnicianID  string `json:"technician_id"`
	Justification string `json:"justification"`
}

// StatsBucketResponse is one hourly assignment counter.
type StatsBucketResponse struct {
	Hour  time.Time `json:"hour"`
	Count int64     `json:"count"`
}

// TriageStatsResponse is the stats read surface.
type TriageStatsResponse struct {
	PendingCount int                   `json:"pending_count"`
	Buckets      []StatsBucketResponse `json:"assignments_per_hour"`
}
