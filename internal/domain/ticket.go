package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. Values are the
// wire tokens shared with the rest of the platform.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "pendiente"
	TicketStatusAssigned   TicketStatus = "asignado"
	TicketStatusInProgress TicketStatus = "en_proceso"
	TicketStatusResolved   TicketStatus = "resuelto"
	TicketStatusClosed     TicketStatus = "cerrado"
)

// TicketPriority enumerates urgency tags.
type TicketPriority string

const (
	TicketPriorityHigh   TicketPriority = "alta"
	TicketPriorityMedium TicketPriority = "media"
	TicketPriorityLow    TicketPriority = "baja"
)

// Ticket is the aggregate for support requests. A ticket with status
// other than pendiente carries a non-nil TechnicianID.
type Ticket struct {
	ID           string
	Folio        string
	Title        string
	Description  string
	Status       TicketStatus
	Priority     TicketPriority
	CategoryID   string
	SLAID        *string
	TechnicianID *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	AssignedAt   *time.Time
	ClosedAt     *time.Time
}
