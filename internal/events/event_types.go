package events

import (
	"time"

	"github.com/soportec/triage-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTriageCompleted     EventType = "triage_completed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type         domain.ActorType `json:"type"`
	TechnicianID *string          `json:"technician_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	CategoryID string                `json:"category_id"`
	Priority   domain.TicketPriority `json:"priority"`
	Title      string                `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus     domain.TicketStatus `json:"old_status"`
	NewStatus     domain.TicketStatus `json:"new_status"`
	Justification string              `json:"justification,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	TechnicianID string                `json:"technician_id"`
	Mode         domain.AssignmentMode `json:"mode"`
	Score        int                   `json:"score"`
}

// TriageCompletedPayload payload.
type TriageCompletedPayload struct {
	TotalProcessed int `json:"total_processed"`
	Assigned       int `json:"assigned"`
	Failed         int `json:"failed"`
}
