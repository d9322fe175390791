package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soportec/triage-service/internal/domain"
	"github.com/soportec/triage-service/internal/service"
	apperrors "github.com/soportec/triage-service/pkg/util"
)

type assignmentFixture struct {
	tickets     *ticketRepoFake
	technicians *technicianRepoFake
	history     *historyRepoFake
	results     *resultRepoFake
	locker      *lockerFake
	counter     *counterFake
	svc         *service.AssignmentService
	now         time.Time
}

func newAssignmentFixture() *assignmentFixture {
	f := &assignmentFixture{
		tickets:     newTicketRepoFake(),
		technicians: newTechnicianRepoFake(),
		history:     &historyRepoFake{},
		results:     &resultRepoFake{},
		locker:      &lockerFake{},
		counter:     &counterFake{},
		now:         time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	categories := newCategoryRepoFake(
		domain.Category{ID: "cat-net", Name: "Redes", RequiredSpecialties: []string{"Networking"}, SLAID: "sla-std", Active: true},
		domain.Category{ID: "cat-prn", Name: "Impresoras", RequiredSpecialties: []string{"Impresoras"}, SLAID: "sla-std", Active: true},
	)
	slas := newSLARepoFake(
		domain.SLA{ID: "sla-std", Name: "Estandar", ResponseMinutes: 120, ResolutionMinutes: 480},
	)
	f.svc = service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:     f.tickets,
		TechnicianRepo: f.technicians,
		CategoryRepo:   categories,
		SLARepo:        slas,
		HistoryRepo:    f.history,
		ResultRepo:     f.results,
		Locker:         f.locker,
		Counter:        f.counter,
	}).WithClock(func() time.Time { return f.now })
	return f
}

func (f *assignmentFixture) addTechnician(id string, specialties []string, workload int, available bool) {
	f.technicians.add(domain.Technician{
		ID:          id,
		Name:        "Tech " + id,
		Email:       id + "@soportec.mx",
		Role:        domain.RoleTechnician,
		Specialties: specialties,
		Available:   available,
		Workload:    workload,
	})
}

func (f *assignmentFixture) addPendingTicket(id, categoryID string, priority domain.TicketPriority, createdAt time.Time) domain.Ticket {
	slaID := "sla-std"
	return f.tickets.add(domain.Ticket{
		ID:         id,
		Folio:      "TKT-" + id,
		Title:      "ticket " + id,
		Status:     domain.TicketStatusPending,
		Priority:   priority,
		CategoryID: categoryID,
		SLAID:      &slaID,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	})
}

func requireDomainCode(t *testing.T, err error, code string) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %T", err)
	assert.Equal(t, code, domainErr.Code)
	return domainErr
}

func TestRunBatchEmptyQueue(t *testing.T) {
	f := newAssignmentFixture()
	f.addTechnician("tech-a", []string{"Networking"}, 0, true)

	report, err := f.svc.RunBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalProcessed)
	assert.Equal(t, 0, report.Assigned)
	assert.Equal(t, 0, report.Failed)
	assert.Empty(t, report.Results)
	assert.Equal(t, 1, f.locker.acquires)
	assert.Equal(t, 1, f.locker.releases)
}

func TestRunBatchBalancesWorkloadWithinRun(t *testing.T) {
	f := newAssignmentFixture()
	f.addTechnician("tech-a", []string{"Networking"}, 0, true)
	f.addTechnician("tech-b", []string{"Networking"}, 0, true)
	f.addPendingTicket("tic-001", "cat-net", domain.TicketPriorityHigh, f.now.Add(-90*time.Minute))
	f.addPendingTicket("tic-002", "cat-net", domain.TicketPriorityHigh, f.now.Add(-60*time.Minute))

	report, err := f.svc.RunBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalProcessed)
	assert.Equal(t, 2, report.Assigned)
	assert.Equal(t, 0, report.Failed)
	require.Len(t, report.Results, 2)

	// First arrival wins the tie on id, second sees the updated load.
	assert.Equal(t, "tic-001", report.Results[0].TicketID)
	require.NotNil(t, report.Results[0].TechnicianID)
	assert.Equal(t, "tech-a", *report.Results[0].TechnicianID)
	require.NotNil(t, report.Results[1].TechnicianID)
	assert.Equal(t, "tech-b", *report.Results[1].TechnicianID)

	assert.Equal(t, 1, f.technicians.workload("tech-a"))
	assert.Equal(t, 1, f.technicians.workload("tech-b"))

	for _, result := range report.Results {
		assert.True(t, result.Succeeded)
		assert.Equal(t, domain.AssignmentModeAuto, result.Mode)
		assert.Equal(t, domain.SystemActorID, result.ActorID)
		assert.Contains(t, result.Justification, "assigned to")
		assert.NotEmpty(t, result.Candidates)
	}

	ticket, err := f.tickets.GetByID(context.Background(), "tic-001")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAssigned, ticket.Status)
	require.NotNil(t, ticket.AssignedAt)
	assert.Equal(t, f.now, *ticket.AssignedAt)

	assert.Len(t, f.history.records, 2)
	assert.Equal(t, domain.ActorTypeSystem, f.history.records[0].ActorType)
	assert.Equal(t, domain.SystemActorID, f.history.records[0].ActorID)
	assert.Len(t, f.counter.hours, 2)
}

func TestRunBatchPrefersLowestWorkload(t *testing.T) {
	f := newAssignmentFixture()
	f.addTechnician("tech-a", []string{"Networking"}, 5, true)
	f.addTechnician("tech-b", []string{"Networking"}, 1, true)
	f.addPendingTicket("tic-001", "cat-net", domain.TicketPriorityMedium, f.now.Add(-time.Hour))

	report, err := f.svc.RunBatch(context.Background())

	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	require.NotNil(t, report.Results[0].TechnicianID)
	assert.Equal(t, "tech-b", *report.Results[0].TechnicianID)
}

func TestRunBatchRecordsFailureAndContinues(t *testing.T) {
	f := newAssignmentFixture()
	f.addTechnician("tech-a", []string{"Networking"}, 0, true)
	f.addPendingTicket("tic-001", "cat-prn", domain.TicketPriorityHigh, f.now.Add(-90*time.Minute))
	f.addPendingTicket("tic-002", "cat-net", domain.TicketPriorityLow, f.now.Add(-60*time.Minute))

	report, err := f.svc.RunBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalProcessed)
	assert.Equal(t, 1, report.Assigned)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Results, 2)

	failure := report.Results[0]
	assert.False(t, failure.Succeeded)
	assert.Nil(t, failure.TechnicianID)
	assert.Equal(t, "no available technician with the required specialty", failure.FailureReason)
	assert.Equal(t, domain.AssignmentModeAuto, failure.Mode)

	// The unassignable ticket stays pendiente for the next run.
	ticket, err := f.tickets.GetByID(context.Background(), "tic-001")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPending, ticket.Status)

	assert.True(t, report.Results[1].Succeeded)
}

func TestRunBatchSkipsUnavailableTechnicians(t *testing.T) {
	f := newAssignmentFixture()
	f.addTechnician("tech-a", []string{"Networking"}, 0, false)
	f.addPendingTicket("tic-001", "cat-net", domain.TicketPriorityHigh, f.now.Add(-time.Hour))

	report, err := f.svc.RunBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Assigned)
}

func TestRunBatchLockDenied(t *testing.T) {
	f := newAssignmentFixture()
	f.locker.denied = true

	_, err := f.svc.RunBatch(context.Background())

	domainErr := requireDomainCode(t, err, "CONFLICT")
	assert.True(t, domainErr.Retryable)
	assert.Equal(t, 0, f.locker.releases)
}

func TestPrepareManualAssignment(t *testing.T) {
	f := newAssignmentFixture()
	f.addTechnician("tech-a", []string{"Networking"}, 2, true)
	f.addTechnician("tech-b", []string{"Networking"}, 0, true)
	f.addTechnician("tech-c", []string{"Impresoras"}, 0, true)
	f.addPendingTicket("tic-001", "cat-net", domain.TicketPriorityHigh, f.now.Add(-90*time.Minute))

	info, err := f.svc.PrepareManualAssignment(context.Background(), "tic-001")

	require.NoError(t, err)
	assert.Equal(t, "tic-001", info.Ticket.ID)
	require.Len(t, info.Candidates, 2)
	assert.Equal(t, "tech-b", info.Candidates[0].TechnicianID, "lowest workload first")
	assert.Equal(t, "tech-a", info.Candidates[1].TechnicianID)
	// 120-minute response SLA, 90 minutes elapsed.
	assert.Equal(t, 30, info.Clock.MinutesRemaining)
}

func TestPrepareManualAssignmentErrors(t *testing.T) {
	f := newAssignmentFixture()
	f.addTechnician("tech-a", []string{"Networking"}, 0, true)

	t.Run("unknown ticket", func(t *testing.T) {
		_, err := f.svc.PrepareManualAssignment(context.Background(), "tic-404")
		requireDomainCode(t, err, "NOT_FOUND")
	})

	t.Run("ticket no longer pending", func(t *testing.T) {
		ticket := f.addPendingTicket("tic-001", "cat-net", domain.TicketPriorityHigh, f.now.Add(-time.Hour))
		require.NoError(t, f.tickets.ClaimForAssignment(context.Background(), ticket.ID, "tech-a", f.now))

		_, err := f.svc.PrepareManualAssignment(context.Background(), ticket.ID)
		domainErr := requireDomainCode(t, err, "CONFLICT")
		assert.True(t, domainErr.Retryable)
	})
}

func TestConfirmManualAssignment(t *testing.T) {
	f := newAssignmentFixture()
	f.addTechnician("tech-a", []string{"Networking"}, 0, true)
	f.addTechnician("tech-b", []string{"Networking"}, 0, true)
	f.addPendingTicket("tic-001", "cat-net", domain.TicketPriorityMedium, f.now.Add(-time.Hour))
	actor := &domain.Technician{ID: "admin-1", Role: domain.RoleAdmin}

	result, err := f.svc.ConfirmManualAssignment(context.Background(), actor, "tic-001", "tech-b", "cliente solicitó al técnico de su sede")

	require.NoError(t, err)
	assert.True(t, result.Succeeded)
	assert.Equal(t, domain.AssignmentModeManual, result.Mode)
	assert.Equal(t, "admin-1", result.ActorID)
	require.NotNil(t, result.TechnicianID)
	assert.Equal(t, "tech-b", *result.TechnicianID)

	ticket, err := f.tickets.GetByID(context.Background(), "tic-001")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAssigned, ticket.Status)
	require.NotNil(t, ticket.TechnicianID)
	assert.Equal(t, "tech-b", *ticket.TechnicianID)
	assert.Equal(t, 1, f.technicians.workload("tech-b"))
	assert.Equal(t, 0, f.technicians.workload("tech-a"))

	require.Len(t, f.history.records, 1)
	assert.Equal(t, domain.ActorTypeTechnician, f.history.records[0].ActorType)
	assert.Equal(t, "admin-1", f.history.records[0].ActorID)
}

func TestConfirmManualAssignmentValidation(t *testing.T) {
	actor := &domain.Technician{ID: "admin-1", Role: domain.RoleAdmin}

	t.Run("no eligible candidates", func(t *testing.T) {
		f := newAssignmentFixture()
		f.addTechnician("tech-a", []string{"Networking"}, 0, true)
		f.addPendingTicket("tic-001", "cat-prn", domain.TicketPriorityHigh, f.now.Add(-time.Hour))

		_, err := f.svc.ConfirmManualAssignment(context.Background(), actor, "tic-001", "tech-a", "justificación suficiente")
		requireDomainCode(t, err, "NO_ELIGIBLE_CANDIDATES")
	})

	t.Run("technician not selected", func(t *testing.T) {
		f := newAssignmentFixture()
		f.addTechnician("tech-a", []string{"Networking"}, 0, true)
		f.addPendingTicket("tic-001", "cat-net", domain.TicketPriorityHigh, f.now.Add(-time.Hour))

		_, err := f.svc.ConfirmManualAssignment(context.Background(), actor, "tic-001", "", "justificación suficiente")
		requireDomainCode(t, err, "TECHNICIAN_NOT_SELECTED")
	})

	t.Run("justification too short", func(t *testing.T) {
		f := newAssignmentFixture()
		f.addTechnician("tech-a", []string{"Networking"}, 0, true)
		f.addPendingTicket("tic-001", "cat-net", domain.TicketPriorityHigh, f.now.Add(-time.Hour))

		_, err := f.svc.ConfirmManualAssignment(context.Background(), actor, "tic-001", "tech-a", "corto")
		requireDomainCode(t, err, "JUSTIFICATION_TOO_SHORT")
	})

	t.Run("technician not eligible", func(t *testing.T) {
		f := newAssignmentFixture()
		f.addTechnician("tech-a", []string{"Networking"}, 0, true)
		f.addTechnician("tech-x", []string{"Impresoras"}, 0, true)
		f.addPendingTicket("tic-001", "cat-net", domain.TicketPriorityHigh, f.now.Add(-time.Hour))

		_, err := f.svc.ConfirmManualAssignment(context.Background(), actor, "tic-001", "tech-x", "justificación suficiente")
		requireDomainCode(t, err, "TECHNICIAN_NOT_ELIGIBLE")

		// Nothing committed.
		ticket, getErr := f.tickets.GetByID(context.Background(), "tic-001")
		require.NoError(t, getErr)
		assert.Equal(t, domain.TicketStatusPending, ticket.Status)
		assert.Equal(t, 0, f.technicians.workload("tech-x"))
	})

	t.Run("missing actor", func(t *testing.T) {
		f := newAssignmentFixture()
		_, err := f.svc.ConfirmManualAssignment(context.Background(), nil, "tic-001", "tech-a", "justificación suficiente")
		requireDomainCode(t, err, "UNAUTHORIZED")
	})
}

func TestListResults(t *testing.T) {
	f := newAssignmentFixture()
	f.addTechnician("tech-a", []string{"Networking"}, 0, true)
	f.addPendingTicket("tic-001", "cat-net", domain.TicketPriorityHigh, f.now.Add(-time.Hour))

	_, err := f.svc.RunBatch(context.Background())
	require.NoError(t, err)

	results, err := f.svc.ListResults(context.Background(), "tic-001")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Succeeded)

	_, err = f.svc.ListResults(context.Background(), "tic-404")
	requireDomainCode(t, err, "NOT_FOUND")
}

func TestRecentResults(t *testing.T) {
	f := newAssignmentFixture()
	f.addTechnician("tech-a", []string{"Networking"}, 0, true)
	f.addPendingTicket("tic-001", "cat-net", domain.TicketPriorityHigh, f.now.Add(-time.Hour))
	f.addPendingTicket("tic-002", "cat-prn", domain.TicketPriorityLow, f.now.Add(-30*time.Minute))

	_, err := f.svc.RunBatch(context.Background())
	require.NoError(t, err)

	results, err := f.svc.RecentResults(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, results, 2, "failures are part of the audit trail")
}
