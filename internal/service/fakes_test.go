package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/soportec/triage-service/internal/domain"
	"github.com/soportec/triage-service/internal/repository"
)

// In-memory repository fakes. They mirror the guard semantics of the
// SQL implementations so the services can be exercised without a
// database.

type ticketRepoFake struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket
}

func newTicketRepoFake() *ticketRepoFake {
	return &ticketRepoFake{tickets: make(map[string]*domain.Ticket)}
}

func (f *ticketRepoFake) add(ticket domain.Ticket) domain.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ticket.ID == "" {
		f.seq++
		ticket.ID = fmt.Sprintf("tic-%03d", f.seq)
	}
	stored := ticket
	f.tickets[stored.ID] = &stored
	return stored
}

func (f *ticketRepoFake) Create(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	ticket.ID = fmt.Sprintf("tic-%03d", f.seq)
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	stored := *ticket
	f.tickets[stored.ID] = &stored
	return nil
}

func (f *ticketRepoFake) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *stored
	return &out, nil
}

func (f *ticketRepoFake) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for _, stored := range f.tickets {
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if stored.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, *stored)
	}
	sortTickets(out)
	return out, nil
}

func (f *ticketRepoFake) ListPending(_ context.Context) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for _, stored := range f.tickets {
		if stored.Status == domain.TicketStatusPending {
			out = append(out, *stored)
		}
	}
	sortTickets(out)
	return out, nil
}

func (f *ticketRepoFake) CountPending(ctx context.Context) (int, error) {
	pending, err := f.ListPending(ctx)
	return len(pending), err
}

func (f *ticketRepoFake) UpdateStatus(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Status = ticket.Status
	stored.AssignedAt = ticket.AssignedAt
	stored.ClosedAt = ticket.ClosedAt
	stored.UpdatedAt = time.Now()
	return nil
}

func (f *ticketRepoFake) ClaimForAssignment(_ context.Context, ticketID, technicianID string, assignedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tickets[ticketID]
	if !ok || stored.Status != domain.TicketStatusPending || stored.TechnicianID != nil {
		return repository.ErrTicketClaimed
	}
	stored.Status = domain.TicketStatusAssigned
	stored.TechnicianID = &technicianID
	at := assignedAt
	stored.AssignedAt = &at
	stored.UpdatedAt = assignedAt
	return nil
}

func sortTickets(tickets []domain.Ticket) {
	sort.Slice(tickets, func(i, j int) bool {
		if !tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
			return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
		}
		return tickets[i].ID < tickets[j].ID
	})
}

type technicianRepoFake struct {
	mu          sync.Mutex
	technicians map[string]*domain.Technician
}

func newTechnicianRepoFake() *technicianRepoFake {
	return &technicianRepoFake{technicians: make(map[string]*domain.Technician)}
}

func (f *technicianRepoFake) add(tech domain.Technician) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := tech
	f.technicians[stored.ID] = &stored
}

func (f *technicianRepoFake) workload(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.technicians[id].Workload
}

func (f *technicianRepoFake) Create(_ context.Context, tech *domain.Technician) error {
	f.add(*tech)
	return nil
}

func (f *technicianRepoFake) Update(_ context.Context, tech *domain.Technician) error {
	f.add(*tech)
	return nil
}

func (f *technicianRepoFake) GetByID(_ context.Context, id string) (*domain.Technician, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.technicians[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *stored
	return &out, nil
}

func (f *technicianRepoFake) GetByEmail(_ context.Context, email string) (*domain.Technician, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.technicians {
		if stored.Email == email {
			out := *stored
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *technicianRepoFake) List(_ context.Context, filter repository.TechnicianFilter) ([]domain.Technician, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Technician
	for _, stored := range f.technicians {
		if filter.Available != nil && stored.Available != *filter.Available {
			continue
		}
		if filter.Role != nil && stored.Role != *filter.Role {
			continue
		}
		out = append(out, *stored)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *technicianRepoFake) IncrementWorkload(_ context.Context, id string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.technicians[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Workload+delta < 0 {
		return fmt.Errorf("workload for %s would go negative", id)
	}
	stored.Workload += delta
	return nil
}

type categoryRepoFake struct {
	categories map[string]domain.Category
}

func newCategoryRepoFake(categories ...domain.Category) *categoryRepoFake {
	f := &categoryRepoFake{categories: make(map[string]domain.Category)}
	for _, cat := range categories {
		f.categories[cat.ID] = cat
	}
	return f
}

func (f *categoryRepoFake) GetByID(_ context.Context, id string) (*domain.Category, error) {
	cat, ok := f.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &cat, nil
}

func (f *categoryRepoFake) List(_ context.Context) ([]domain.Category, error) {
	var out []domain.Category
	for _, cat := range f.categories {
		out = append(out, cat)
	}
	return out, nil
}

type slaRepoFake struct {
	slas map[string]domain.SLA
}

func newSLARepoFake(slas ...domain.SLA) *slaRepoFake {
	f := &slaRepoFake{slas: make(map[string]domain.SLA)}
	for _, tmpl := range slas {
		f.slas[tmpl.ID] = tmpl
	}
	return f
}

func (f *slaRepoFake) GetByID(_ context.Context, id string) (*domain.SLA, error) {
	tmpl, ok := f.slas[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &tmpl, nil
}

func (f *slaRepoFake) List(_ context.Context) ([]domain.SLA, error) {
	var out []domain.SLA
	for _, tmpl := range f.slas {
		out = append(out, tmpl)
	}
	return out, nil
}

type historyRepoFake struct {
	mu      sync.Mutex
	seq     int
	records []domain.StatusChangeRecord
}

func (f *historyRepoFake) Create(_ context.Context, record *domain.StatusChangeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	record.ID = fmt.Sprintf("hist-%03d", f.seq)
	record.CreatedAt = time.Now()
	f.records = append(f.records, *record)
	return nil
}

func (f *historyRepoFake) ListByTicket(_ context.Context, ticketID string) ([]domain.StatusChangeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.StatusChangeRecord
	for _, record := range f.records {
		if record.TicketID == ticketID {
			out = append(out, record)
		}
	}
	return out, nil
}

type resultRepoFake struct {
	mu      sync.Mutex
	seq     int
	results []domain.AssignmentResult
}

func (f *resultRepoFake) Create(_ context.Context, result *domain.AssignmentResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	result.ID = fmt.Sprintf("res-%03d", f.seq)
	result.CreatedAt = time.Now()
	f.results = append(f.results, *result)
	return nil
}

func (f *resultRepoFake) ListByTicket(_ context.Context, ticketID string) ([]domain.AssignmentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AssignmentResult
	for _, result := range f.results {
		if result.TicketID == ticketID {
			out = append(out, result)
		}
	}
	return out, nil
}

func (f *resultRepoFake) ListRecent(_ context.Context, since time.Time, limit int) ([]domain.AssignmentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AssignmentResult
	for _, result := range f.results {
		if result.CreatedAt.Before(since) {
			continue
		}
		out = append(out, result)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type lockerFake struct {
	mu       sync.Mutex
	denied   bool
	acquires int
	releases int
}

func (f *lockerFake) AcquireLock(_ context.Context, _ string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denied {
		return false, nil
	}
	f.acquires++
	return true, nil
}

func (f *lockerFake) ReleaseLock(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
	return nil
}

type counterFake struct {
	mu    sync.Mutex
	hours []time.Time
}

func (f *counterFake) IncrementHourBucket(_ context.Context, _ string, at time.Time, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hours = append(f.hours, at.Truncate(time.Hour))
	return nil
}
