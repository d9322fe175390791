package triage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soportec/triage-service/internal/domain"
	"github.com/soportec/triage-service/internal/triage"
)

func TestPriorityWeight(t *testing.T) {
	assert.Equal(t, 3, triage.PriorityWeight(domain.TicketPriorityHigh))
	assert.Equal(t, 2, triage.PriorityWeight(domain.TicketPriorityMedium))
	assert.Equal(t, 1, triage.PriorityWeight(domain.TicketPriorityLow))
	assert.Equal(t, 1, triage.PriorityWeight(domain.TicketPriority("")))
}

func TestTicketScore(t *testing.T) {
	tests := []struct {
		name     string
		priority domain.TicketPriority
		minutes  int
		want     int
	}{
		{"high priority close to breach", domain.TicketPriorityHigh, 45, 2955},
		{"medium priority already breached", domain.TicketPriorityMedium, -10, 2010},
		{"low priority far from breach", domain.TicketPriorityLow, 500, 500},
		{"high always beats medium", domain.TicketPriorityHigh, 999, 2001},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, triage.TicketScore(tc.priority, tc.minutes))
		})
	}
}

func TestEligible(t *testing.T) {
	cat := domain.Category{RequiredSpecialties: []string{"Networking"}}
	roster := []domain.Technician{
		{ID: "tech-a", Name: "Ana", Available: true, Specialties: []string{"Networking", "Hardware"}, Workload: 2},
		{ID: "tech-b", Name: "Bruno", Available: true, Specialties: []string{"Software"}, Workload: 0},
		{ID: "tech-c", Name: "Carla", Available: false, Specialties: []string{"Networking"}, Workload: 0},
		{ID: "tech-d", Name: "Diego", Available: true, Specialties: []string{"Networking"}, Workload: 1},
	}

	eligible := triage.Eligible(cat, roster)

	require.Len(t, eligible, 2)
	assert.Equal(t, "tech-d", eligible[0].ID, "lowest workload first")
	assert.Equal(t, "tech-a", eligible[1].ID)
}

func TestEligibleTieBreaksOnID(t *testing.T) {
	cat := domain.Category{RequiredSpecialties: []string{"Software"}}
	roster := []domain.Technician{
		{ID: "tech-z", Available: true, Specialties: []string{"Software"}, Workload: 1},
		{ID: "tech-a", Available: true, Specialties: []string{"Software"}, Workload: 1},
	}

	eligible := triage.Eligible(cat, roster)

	require.Len(t, eligible, 2)
	assert.Equal(t, "tech-a", eligible[0].ID)
}

func TestScore(t *testing.T) {
	cat := domain.Category{ID: "cat-net", RequiredSpecialties: []string{"Networking"}}
	ticket := domain.Ticket{ID: "tic-1", Priority: domain.TicketPriorityHigh}
	roster := []domain.Technician{
		{ID: "tech-a", Name: "Ana", Available: true, Specialties: []string{"Networking"}, Workload: 3},
		{ID: "tech-b", Name: "Bruno", Available: true, Specialties: []string{"Networking", "Hardware"}, Workload: 1},
	}

	outcome := triage.Score(ticket, cat, 45, roster)

	assert.Equal(t, 2955, outcome.Score)
	assert.Equal(t, 45, outcome.MinutesRemaining)
	require.NotNil(t, outcome.Winner)
	assert.Equal(t, "tech-b", outcome.Winner.ID)
	require.Len(t, outcome.Candidates, 2)
	assert.Equal(t, "tech-b", outcome.Candidates[0].TechnicianID)
	assert.Contains(t, outcome.Justification, "priority alta (weight 3)")
	assert.Contains(t, outcome.Justification, "45 minutes to SLA breach")
	assert.Contains(t, outcome.Justification, "ticket score 2955")
	assert.Contains(t, outcome.Justification, "assigned to Bruno")
	assert.GreaterOrEqual(t, len(outcome.Justification), 10)
}

func TestScoreNoEligibleCandidates(t *testing.T) {
	cat := domain.Category{RequiredSpecialties: []string{"Impresoras"}}
	ticket := domain.Ticket{Priority: domain.TicketPriorityMedium}
	roster := []domain.Technician{
		{ID: "tech-a", Available: true, Specialties: []string{"Networking"}, Workload: 0},
	}

	outcome := triage.Score(ticket, cat, 120, roster)

	assert.Nil(t, outcome.Winner)
	assert.Empty(t, outcome.Candidates)
	assert.Empty(t, outcome.Justification)
	assert.Equal(t, 1880, outcome.Score)
}

func TestScoreEmptyRoster(t *testing.T) {
	outcome := triage.Score(domain.Ticket{Priority: domain.TicketPriorityLow}, domain.Category{RequiredSpecialties: []string{"Networking"}}, 30, nil)

	assert.Nil(t, outcome.Winner)
	assert.Empty(t, outcome.Candidates)
}
