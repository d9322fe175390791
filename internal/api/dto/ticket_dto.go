package dto

import (
	"time"

	"github.com/soportec/triage-service/internal/domain"
	"github.com/soportec/triage-service/internal/sla"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	CategoryID  string                `json:"category_id"`
}

// UpdateStatusRequest payload for PATCH /tickets/:id/status.
type UpdateStatusRequest struct {
	NewStatus     domain.TicketStatus `json:"new_status"`
	Justification string              `json:"justification"`
	EvidenceRef   *string             `json:"evidence_ref,omitempty"`
}

// SLAClockResponse exposes the SLA clock reading for a ticket.
type SLAClockResponse struct {
	ResponseDeadline   time.Time   `json:"response_deadline"`
	ResolutionDeadline time.Time   `json:"resolution_deadline"`
	MinutesRemaining   int         `json:"minutes_remaining"`
	Urgency            sla.Urgency `json:"urgency"`
}

// TicketSummary response.
type TicketSummary struct {
	ID           string                `json:"id"`
	Folio        string                `json:"folio"`
	Title        string                `json:"title"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	CategoryID   string                `json:"category_id"`
	TechnicianID *string               `json:"tecnico_id"`
	Clock        SLAClockResponse      `json:"sla_clock"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID           string                 `json:"id"`
	Folio        string                 `json:"folio"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	Status       domain.TicketStatus    `json:"status"`
	Priority     domain.TicketPriority  `json:"priority"`
	CategoryID   string                 `json:"category_id"`
	SLAID        *string                `json:"sla_id"`
	TechnicianID *string                `json:"tecnico_id"`
	Clock        SLAClockResponse       `json:"sla_clock"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	AssignedAt   *time.Time             `json:"assigned_at"`
	ClosedAt     *time.Time             `json:"closed_at"`
	History      []StatusChangeResponse `json:"history"`
}

// StatusChangeResponse is one audit entry.
type StatusChangeResponse struct {
	ID             string              `json:"id"`
	PreviousStatus domain.TicketStatus `json:"previous_status"`
	NewStatus      domain.TicketStatus `json:"new_status"`
	ActorType      domain.ActorType    `json:"actor_type"`
	ActorID        string              `json:"actor_id"`
	Justification  string              `json:"justification"`
	EvidenceRef    *string             `json:"evidence_ref,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}
