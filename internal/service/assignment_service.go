package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/soportec/triage-service/internal/domain"
	"github.com/soportec/triage-service/internal/events"
	"github.com/soportec/triage-service/internal/lifecycle"
	"github.com/soportec/triage-service/internal/repository"
	"github.com/soportec/triage-service/internal/sla"
	"github.com/soportec/triage-service/internal/triage"
	apperrors "github.com/soportec/triage-service/pkg/util"
)

const (
	batchLockKey           = "triage:batch:lock"
	assignmentBucketPrefix = "triage:assigned"
	noCandidateReason      = "no available technician with the required specialty"
)

// BatchLocker serializes AutoTriage runs so two batches never race on
// the workload counters.
type BatchLocker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// AssignmentCounter feeds the hourly assignment buckets behind the
// stats surface.
type AssignmentCounter interface {
	IncrementHourBucket(ctx context.Context, prefix string, at time.Time, retention time.Duration) error
}

// BatchReport aggregates one AutoTriage run.
type BatchReport struct {
	TotalProcessed int
	Assigned       int
	Failed         int
	Results        []domain.AssignmentResult
}

// ManualAssignmentInfo is the prepare-step payload for an operator
// override: ticket detail plus the eligible candidates, no winner
// pre-selected.
type ManualAssignmentInfo struct {
	Ticket     domain.Ticket
	Clock      sla.Snapshot
	Candidates []domain.AssignmentCandidate
}

// AssignmentService runs the AutoTriage batch scheduler and the manual
// assignment flow. Both share the scorer and the commit path.
type AssignmentService struct {
	tickets     repository.TicketRepository
	technicians repository.TechnicianRepository
	categories  repository.CategoryRepository
	slas        repository.SLARepository
	history     repository.StatusHistoryRepository
	results     repository.AssignmentResultRepository
	locker      BatchLocker
	counter     AssignmentCounter
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	lockTTL     time.Duration
	statsWindow time.Duration
	clock       func() time.Time
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	TicketRepo     repository.TicketRepository
	TechnicianRepo repository.TechnicianRepository
	CategoryRepo   repository.CategoryRepository
	SLARepo        repository.SLARepository
	HistoryRepo    repository.StatusHistoryRepository
	ResultRepo     repository.AssignmentResultRepository
	Locker         BatchLocker
	Counter        AssignmentCounter
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	LockTTL        time.Duration
	StatsWindow    time.Duration
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	lockTTL := deps.LockTTL
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}
	statsWindow := deps.StatsWindow
	if statsWindow <= 0 {
		statsWindow = 24 * time.Hour
	}
	return &AssignmentService{
		tickets:     deps.TicketRepo,
		technicians: deps.TechnicianRepo,
		categories:  deps.CategoryRepo,
		slas:        deps.SLARepo,
		history:     deps.HistoryRepo,
		results:     deps.ResultRepo,
		locker:      deps.Locker,
		counter:     deps.Counter,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		lockTTL:     lockTTL,
		statsWindow: statsWindow,
		clock:       time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *AssignmentService) WithClock(clock func() time.Time) *AssignmentService {
	s.clock = clock
	return s
}

// RunBatch processes every pendiente ticket once, in arrival order,
// assigning each to its best eligible technician. A ticket without
// candidates yields a failed report row; the batch always completes.
func (s *AssignmentService) RunBatch(ctx context.Context) (*BatchReport, error) {
	if s.locker != nil {
		acquired, err := s.locker.AcquireLock(ctx, batchLockKey, s.lockTTL)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !acquired {
			return nil, apperrors.NewConflict("a triage batch is already running", nil)
		}
		defer func() {
			if err := s.locker.ReleaseLock(ctx, batchLockKey); err != nil {
				s.logger.Warn("failed to release batch lock", zap.Error(err))
			}
		}()
	}

	pending, err := s.tickets.ListPending(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	roster, err := s.technicians.List(ctx, repository.TechnicianFilter{Limit: 1000})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	// Workloads are tracked in memory for the duration of the run so
	// each assignment is visible to the tickets that follow it.
	workloads := make(map[string]int, len(roster))
	for _, tech := range roster {
		workloads[tech.ID] = tech.Workload
	}

	report := &BatchReport{Results: make([]domain.AssignmentResult, 0, len(pending))}
	categoryCache := make(map[string]*domain.Category)
	slaCache := make(map[string]*domain.SLA)

	for i := range pending {
		ticket := pending[i]
		report.TotalProcessed++

		outcome, err := s.scoreTicket(ctx, ticket, roster, workloads, categoryCache, slaCache)
		if err != nil {
			return nil, err
		}

		if outcome.Winner == nil {
			failure := s.recordFailure(ctx, ticket, outcome, domain.AssignmentModeAuto, domain.SystemActorID, noCandidateReason)
			if failure == nil {
				return nil, apperrors.NewInternalError(errors.New("failed to record assignment result"))
			}
			report.Failed++
			report.Results = append(report.Results, *failure)
			continue
		}

		result, err := s.commitAssignment(ctx, &ticket, *outcome.Winner, outcome, domain.AssignmentModeAuto, domain.ActorTypeSystem, domain.SystemActorID, outcome.Justification)
		if err != nil {
			if errors.Is(err, repository.ErrTicketClaimed) {
				failure := s.recordFailure(ctx, ticket, outcome, domain.AssignmentModeAuto, domain.SystemActorID, "ticket was modified concurrently")
				if failure != nil {
					report.Failed++
					report.Results = append(report.Results, *failure)
				}
				continue
			}
			return nil, apperrors.MapError(err)
		}

		workloads[outcome.Winner.ID]++
		report.Assigned++
		report.Results = append(report.Results, *result)
	}

	s.logger.Info("triage batch completed",
		zap.Int("processed", report.TotalProcessed),
		zap.Int("assigned", report.Assigned),
		zap.Int("failed", report.Failed),
	)
	s.publishEvent(ctx, events.Event{
		Type:  events.EventTriageCompleted,
		Actor: events.Actor{Type: domain.ActorTypeSystem},
		Payload: events.TriageCompletedPayload{
			TotalProcessed: report.TotalProcessed,
			Assigned:       report.Assigned,
			Failed:         report.Failed,
		},
	})
	return report, nil
}

// PrepareManualAssignment returns a pendiente ticket together with its
// eligible candidate list for operator selection.
func (s *AssignmentService) PrepareManualAssignment(ctx context.Context, ticketID string) (*ManualAssignmentInfo, error) {
	ticket, outcome, snapshot, err := s.loadForManual(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return &ManualAssignmentInfo{
		Ticket:     *ticket,
		Clock:      snapshot,
		Candidates: outcome.Candidates,
	}, nil
}

// ConfirmManualAssignment validates an operator's explicit choice and
// commits it through the same path as the batch scheduler.
func (s *AssignmentService) ConfirmManualAssignment(ctx context.Context, actor *domain.Technician, ticketID, technicianID, justification string) (*domain.AssignmentResult, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("technician required")
	}
	ticket, outcome, _, err := s.loadForManual(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if len(outcome.Candidates) == 0 {
		return nil, apperrors.NewRuleViolation("NO_ELIGIBLE_CANDIDATES", noCandidateReason, map[string]any{"ticket_id": ticketID})
	}
	if technicianID == "" {
		return nil, apperrors.NewRuleViolation("TECHNICIAN_NOT_SELECTED", "a technician must be selected", nil)
	}
	if err := lifecycle.Validate(lifecycle.Request{
		Current:       ticket.Status,
		Requested:     domain.TicketStatusAssigned,
		HasTechnician: true,
		Justification: justification,
	}); err != nil {
		return nil, mapTransitionError(err)
	}

	var chosen *domain.Technician
	for _, candidate := range outcome.Candidates {
		if candidate.TechnicianID == technicianID {
			tech, err := s.technicians.GetByID(ctx, technicianID)
			if err != nil {
				return nil, apperrors.MapError(err)
			}
			chosen = tech
			break
		}
	}
	if chosen == nil {
		// Defends against stale client state: the candidate list may
		// have changed since the prepare call.
		return nil, apperrors.NewRuleViolation("TECHNICIAN_NOT_ELIGIBLE", "chosen technician is not in the eligible list", map[string]any{"technician_id": technicianID})
	}

	result, err := s.commitAssignment(ctx, ticket, *chosen, outcome, domain.AssignmentModeManual, domain.ActorTypeTechnician, actor.ID, justification)
	if err != nil {
		if errors.Is(err, repository.ErrTicketClaimed) {
			return nil, apperrors.NewConflict("ticket was assigned concurrently; re-fetch and retry", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// ListResults returns the assignment attempt history for one ticket,
// failures included.
func (s *AssignmentService) ListResults(ctx context.Context, ticketID string) ([]domain.AssignmentResult, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	results, err := s.results.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return results, nil
}

// RecentResults returns assignment attempts inside the stats window,
// newest first.
func (s *AssignmentService) RecentResults(ctx context.Context, limit int) ([]domain.AssignmentResult, error) {
	if limit <= 0 {
		limit = 50
	}
	results, err := s.results.ListRecent(ctx, s.clock().Add(-s.statsWindow), limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return results, nil
}

func (s *AssignmentService) loadForManual(ctx context.Context, ticketID string) (*domain.Ticket, triage.Outcome, sla.Snapshot, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, triage.Outcome{}, sla.Snapshot{}, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, triage.Outcome{}, sla.Snapshot{}, apperrors.MapError(err)
	}
	if ticket.Status != domain.TicketStatusPending {
		return nil, triage.Outcome{}, sla.Snapshot{}, apperrors.NewConflict("ticket is no longer pending", map[string]any{"ticket_id": ticketID, "status": ticket.Status})
	}

	roster, err := s.technicians.List(ctx, repository.TechnicianFilter{Limit: 1000})
	if err != nil {
		return nil, triage.Outcome{}, sla.Snapshot{}, apperrors.MapError(err)
	}

	categoryCache := make(map[string]*domain.Category)
	slaCache := make(map[string]*domain.SLA)
	workloads := make(map[string]int, len(roster))
	for _, tech := range roster {
		workloads[tech.ID] = tech.Workload
	}
	outcome, err := s.scoreTicket(ctx, *ticket, roster, workloads, categoryCache, slaCache)
	if err != nil {
		return nil, triage.Outcome{}, sla.Snapshot{}, err
	}

	snapshot, err := s.clockSnapshot(ctx, *ticket, categoryCache, slaCache)
	if err != nil {
		return nil, triage.Outcome{}, sla.Snapshot{}, err
	}
	return ticket, outcome, snapshot, nil
}

func (s *AssignmentService) scoreTicket(ctx context.Context, ticket domain.Ticket, roster []domain.Technician, workloads map[string]int, categoryCache map[string]*domain.Category, slaCache map[string]*domain.SLA) (triage.Outcome, error) {
	cat, err := s.categoryFor(ctx, ticket.CategoryID, categoryCache)
	if err != nil {
		return triage.Outcome{}, err
	}
	snapshot, err := s.clockSnapshot(ctx, ticket, categoryCache, slaCache)
	if err != nil {
		return triage.Outcome{}, err
	}

	view := make([]domain.Technician, len(roster))
	for i, tech := range roster {
		view[i] = tech
		view[i].Workload = workloads[tech.ID]
	}
	return triage.Score(ticket, *cat, snapshot.MinutesRemaining, view), nil
}

func (s *AssignmentService) clockSnapshot(ctx context.Context, ticket domain.Ticket, categoryCache map[string]*domain.Category, slaCache map[string]*domain.SLA) (sla.Snapshot, error) {
	tmpl, err := s.slaForTicket(ctx, ticket, categoryCache, slaCache)
	if err != nil {
		return sla.Snapshot{}, err
	}
	assigned := ticket.Status != domain.TicketStatusPending
	return sla.Evaluate(ticket.CreatedAt, assigned, *tmpl, s.clock()), nil
}

func (s *AssignmentService) slaForTicket(ctx context.Context, ticket domain.Ticket, categoryCache map[string]*domain.Category, slaCache map[string]*domain.SLA) (*domain.SLA, error) {
	slaID := ""
	if ticket.SLAID != nil {
		slaID = *ticket.SLAID
	} else {
		cat, err := s.categoryFor(ctx, ticket.CategoryID, categoryCache)
		if err != nil {
			return nil, err
		}
		slaID = cat.SLAID
	}
	if cached, ok := slaCache[slaID]; ok {
		return cached, nil
	}
	tmpl, err := s.slas.GetByID(ctx, slaID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	slaCache[slaID] = tmpl
	return tmpl, nil
}

func (s *AssignmentService) categoryFor(ctx context.Context, id string, cache map[string]*domain.Category) (*domain.Category, error) {
	if cached, ok := cache[id]; ok {
		return cached, nil
	}
	cat, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	cache[id] = cat
	return cat, nil
}

// commitAssignment is the shared commit path for auto and manual
// assignment: transition validation, guarded claim, atomic workload
// increment, audit records, then events and counters.
func (s *AssignmentService) commitAssignment(ctx context.Context, ticket *domain.Ticket, winner domain.Technician, outcome triage.Outcome, mode domain.AssignmentMode, actorType domain.ActorType, actorID, justification string) (*domain.AssignmentResult, error) {
	if err := lifecycle.Validate(lifecycle.Request{
		Current:       ticket.Status,
		Requested:     domain.TicketStatusAssigned,
		HasTechnician: true,
		Justification: justification,
	}); err != nil {
		return nil, mapTransitionError(err)
	}

	now := s.clock()
	if err := s.tickets.ClaimForAssignment(ctx, ticket.ID, winner.ID, now); err != nil {
		return nil, err
	}
	if err := s.technicians.IncrementWorkload(ctx, winner.ID, 1); err != nil {
		return nil, err
	}

	previous := ticket.Status
	ticket.Status = domain.TicketStatusAssigned
	ticket.TechnicianID = &winner.ID
	ticket.AssignedAt = &now

	if err := s.history.Create(ctx, &domain.StatusChangeRecord{
		TicketID:       ticket.ID,
		PreviousStatus: previous,
		NewStatus:      domain.TicketStatusAssigned,
		ActorType:      actorType,
		ActorID:        actorID,
		Justification:  justification,
	}); err != nil {
		return nil, err
	}

	result := &domain.AssignmentResult{
		TicketID:      ticket.ID,
		TechnicianID:  &winner.ID,
		Succeeded:     true,
		Score:         outcome.Score,
		Justification: justification,
		Candidates:    outcome.Candidates,
		Mode:          mode,
		ActorID:       actorID,
	}
	if err := s.results.Create(ctx, result); err != nil {
		return nil, err
	}

	if s.counter != nil {
		if err := s.counter.IncrementHourBucket(ctx, assignmentBucketPrefix, now, s.statsWindow); err != nil {
			s.logger.Warn("failed to record assignment bucket", zap.Error(err))
		}
	}

	eventActor := events.Actor{Type: actorType}
	if actorType == domain.ActorTypeTechnician {
		id := actorID
		eventActor.TechnicianID = &id
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    eventActor,
		Payload: events.TicketAssignedPayload{
			TechnicianID: winner.ID,
			Mode:         mode,
			Score:        outcome.Score,
		},
	})
	return result, nil
}

func (s *AssignmentService) recordFailure(ctx context.Context, ticket domain.Ticket, outcome triage.Outcome, mode domain.AssignmentMode, actorID, reason string) *domain.AssignmentResult {
	result := &domain.AssignmentResult{
		TicketID:      ticket.ID,
		Succeeded:     false,
		FailureReason: reason,
		Score:         outcome.Score,
		Candidates:    outcome.Candidates,
		Mode:          mode,
		ActorID:       actorID,
	}
	if err := s.results.Create(ctx, result); err != nil {
		s.logger.Error("failed to record assignment failure",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
		return nil
	}
	return result
}

func (s *AssignmentService) publishEvent(ctx context.Context, event events.Event) {
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

// mapTransitionError surfaces a lifecycle violation under its rule code.
func mapTransitionError(err error) error {
	var violation *lifecycle.ViolationError
	if errors.As(err, &violation) {
		return apperrors.NewRuleViolation(string(violation.Rule), violation.Message, nil)
	}
	return apperrors.MapError(err)
}
