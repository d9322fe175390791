package domain

import "time"

// StatusChangeRecord is an immutable audit entry appended on every
// validated transition.
type StatusChangeRecord struct {
	ID             string
	TicketID       string
	PreviousStatus TicketStatus
	NewStatus      TicketStatus
	ActorType      ActorType
	ActorID        string
	Justification  string
	EvidenceRef    *string
	CreatedAt      time.Time
}
