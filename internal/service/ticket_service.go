package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/soportec/triage-service/internal/domain"
	"github.com/soportec/triage-service/internal/events"
	"github.com/soportec/triage-service/internal/lifecycle"
	"github.com/soportec/triage-service/internal/repository"
	"github.com/soportec/triage-service/internal/sla"
	apperrors "github.com/soportec/triage-service/pkg/util"
)

// TicketService coordinates ticket workflows: intake, listing with SLA
// clock projections, and validated status transitions.
type TicketService struct {
	tickets     repository.TicketRepository
	technicians repository.TechnicianRepository
	categories  repository.CategoryRepository
	slas        repository.SLARepository
	history     repository.StatusHistoryRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	clock       func() time.Time
}

// TicketDependencies bundles repositories for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	TechnicianRepo repository.TechnicianRepository
	CategoryRepo   repository.CategoryRepository
	SLARepo        repository.SLARepository
	HistoryRepo    repository.StatusHistoryRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	CategoryID  string
}

// TicketView pairs a ticket with its SLA clock reading.
type TicketView struct {
	Ticket domain.Ticket
	Clock  sla.Snapshot
}

// StatusUpdateInput describes a requested transition.
type StatusUpdateInput struct {
	NewStatus     domain.TicketStatus
	Justification string
	EvidenceRef   *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		technicians: deps.TechnicianRepo,
		categories:  deps.CategoryRepo,
		slas:        deps.SLARepo,
		history:     deps.HistoryRepo,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		clock:       time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *TicketService) WithClock(clock func() time.Time) *TicketService {
	s.clock = clock
	return s
}

// CreateTicket opens a ticket in pendiente and resolves its SLA
// reference from the category.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || input.CategoryID == "" {
		return nil, apperrors.NewValidationError("title and category_id required", nil)
	}

	cat, err := s.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": input.CategoryID})
		}
		return nil, apperrors.MapError(err)
	}
	if !cat.Active {
		return nil, apperrors.NewValidationError("category inactive", map[string]any{"category_id": cat.ID})
	}

	ticket := &domain.Ticket{
		Folio:       generateFolio(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusPending,
		Priority:    input.Priority,
		CategoryID:  cat.ID,
		SLAID:       &cat.SLAID,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{Type: domain.ActorTypeSystem},
		Payload: events.TicketCreatedPayload{
			CategoryID: ticket.CategoryID,
			Priority:   ticket.Priority,
			Title:      ticket.Title,
		},
	})
	return ticket, nil
}

// GetTicket fetches a ticket with its clock reading and history.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*TicketView, []domain.StatusChangeRecord, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	view, err := s.withClock(ctx, *ticket)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return view, records, nil
}

// ListTickets returns filtered tickets with clock readings.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]TicketView, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.withClocks(ctx, tickets)
}

// ListPending returns the pendiente projection consumed by the
// scheduler and the manual-assignment UI, in arrival order.
func (s *TicketService) ListPending(ctx context.Context) ([]TicketView, error) {
	tickets, err := s.tickets.ListPending(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.withClocks(ctx, tickets)
}

// UpdateStatus applies one validated forward transition and appends the
// audit record. The validator never touches storage: technician
// presence is resolved here and passed as a boolean.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.Technician, ticketID string, input StatusUpdateInput) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("technician required")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	if err := lifecycle.Validate(lifecycle.Request{
		Current:       ticket.Status,
		Requested:     input.NewStatus,
		HasTechnician: ticket.TechnicianID != nil,
		Justification: input.Justification,
	}); err != nil {
		return nil, mapTransitionError(err)
	}

	now := s.clock()
	previous := ticket.Status
	ticket.Status = input.NewStatus
	if input.NewStatus == domain.TicketStatusAssigned && ticket.AssignedAt == nil {
		ticket.AssignedAt = &now
	}
	if input.NewStatus == domain.TicketStatusClosed {
		ticket.ClosedAt = &now
	}

	if err := s.tickets.UpdateStatus(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	// Workload counts asignado/en_proceso: leaving en_proceso for
	// resuelto releases one unit of the technician's load.
	if input.NewStatus == domain.TicketStatusResolved && ticket.TechnicianID != nil {
		if err := s.technicians.IncrementWorkload(ctx, *ticket.TechnicianID, -1); err != nil {
			s.logger.Warn("failed to release technician workload",
				zap.String("technician_id", *ticket.TechnicianID), zap.Error(err))
		}
	}

	if err := s.history.Create(ctx, &domain.StatusChangeRecord{
		TicketID:       ticket.ID,
		PreviousStatus: previous,
		NewStatus:      input.NewStatus,
		ActorType:      domain.ActorTypeTechnician,
		ActorID:        actor.ID,
		Justification:  input.Justification,
		EvidenceRef:    input.EvidenceRef,
	}); err != nil {
		return nil, apperrors.MapError(err)
	}

	actorID := actor.ID
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.Actor{Type: domain.ActorTypeTechnician, TechnicianID: &actorID},
		Payload: events.TicketStatusChangedPayload{
			OldStatus:     previous,
			NewStatus:     input.NewStatus,
			Justification: input.Justification,
		},
	})
	return ticket, nil
}

func (s *TicketService) withClocks(ctx context.Context, tickets []domain.Ticket) ([]TicketView, error) {
	views := make([]TicketView, 0, len(tickets))
	for _, ticket := range tickets {
		view, err := s.withClock(ctx, ticket)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

func (s *TicketService) withClock(ctx context.Context, ticket domain.Ticket) (*TicketView, error) {
	view := &TicketView{Ticket: ticket}
	slaID := ""
	if ticket.SLAID != nil {
		slaID = *ticket.SLAID
	} else {
		cat, err := s.categories.GetByID(ctx, ticket.CategoryID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		slaID = cat.SLAID
	}
	tmpl, err := s.slas.GetByID(ctx, slaID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	assigned := ticket.Status != domain.TicketStatusPending
	view.Clock = sla.Evaluate(ticket.CreatedAt, assigned, *tmpl, s.clock())
	return view, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generateFolio() string {
	return "TKT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
