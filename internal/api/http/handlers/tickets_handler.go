package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/soportec/triage-service/internal/api/dto"
	"github.com/soportec/triage-service/internal/auth"
	"github.com/soportec/triage-service/internal/domain"
	"github.com/soportec/triage-service/internal/repository"
	"github.com/soportec/triage-service/internal/service"
	"github.com/soportec/triage-service/internal/sla"
	apperrors "github.com/soportec/triage-service/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"id":     ticket.ID,
		"folio":  ticket.Folio,
		"status": ticket.Status,
	}})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	views, err := h.service.ListTickets(c.UserContext(), parseTicketQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(views)})
}

// ListPending GET /tickets/pending.
func (h *TicketsHandler) ListPending(c *fiber.Ctx) error {
	views, err := h.service.ListPending(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(views)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	view, history, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(view, history)})
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("technician required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.UpdateStatus(c.UserContext(), principal.Technician, c.Params("id"), service.StatusUpdateInput{
		NewStatus:     req.NewStatus,
		Justification: req.Justification,
		EvidenceRef:   req.EvidenceRef,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"id":          ticket.ID,
		"status":      ticket.Status,
		"tecnico_id":  ticket.TechnicianID,
		"assigned_at": ticket.AssignedAt,
		"closed_at":   ticket.ClosedAt,
	}})
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if category := c.Query("category_id"); category != "" {
		filter.CategoryID = &category
	}
	if technician := c.Query("tecnico_id"); technician != "" {
		filter.TechnicianID = &technician
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func clockResponse(snapshot sla.Snapshot) dto.SLAClockResponse {
	return dto.SLAClockResponse{
		ResponseDeadline:   snapshot.ResponseDeadline,
		ResolutionDeadline: snapshot.ResolutionDeadline,
		MinutesRemaining:   snapshot.MinutesRemaining,
		Urgency:            snapshot.Urgency,
	}
}

func ticketSummaries(views []service.TicketView) []dto.TicketSummary {
	items := make([]dto.TicketSummary, 0, len(views))
	for _, view := range views {
		items = append(items, dto.TicketSummary{
			ID:           view.Ticket.ID,
			Folio:        view.Ticket.Folio,
			Title:        view.Ticket.Title,
			Status:       view.Ticket.Status,
			Priority:     view.Ticket.Priority,
			CategoryID:   view.Ticket.CategoryID,
			TechnicianID: view.Ticket.TechnicianID,
			Clock:        clockResponse(view.Clock),
			CreatedAt:    view.Ticket.CreatedAt,
			UpdatedAt:    view.Ticket.UpdatedAt,
		})
	}
	return items
}

func ticketDetail(view *service.TicketView, history []domain.StatusChangeRecord) dto.TicketDetailResponse {
	records := make([]dto.StatusChangeResponse, 0, len(history))
	for _, entry := range history {
		records = append(records, dto.StatusChangeResponse{
			ID:             entry.ID,
			PreviousStatus: entry.PreviousStatus,
			NewStatus:      entry.NewStatus,
			ActorType:      entry.ActorType,
			ActorID:        entry.ActorID,
			Justification:  entry.Justification,
			EvidenceRef:    entry.EvidenceRef,
			CreatedAt:      entry.CreatedAt,
		})
	}
	return dto.TicketDetailResponse{
		ID:           view.Ticket.ID,
		Folio:        view.Ticket.Folio,
		Title:        view.Ticket.Title,
		Description:  view.Ticket.Description,
		Status:       view.Ticket.Status,
		Priority:     view.Ticket.Priority,
		CategoryID:   view.Ticket.CategoryID,
		SLAID:        view.Ticket.SLAID,
		TechnicianID: view.Ticket.TechnicianID,
		Clock:        clockResponse(view.Clock),
		CreatedAt:    view.Ticket.CreatedAt,
		UpdatedAt:    view.Ticket.UpdatedAt,
		AssignedAt:   view.Ticket.AssignedAt,
		ClosedAt:     view.Ticket.ClosedAt,
		History:      records,
	}
}
