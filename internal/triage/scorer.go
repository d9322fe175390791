// Package triage scores pending tickets against the technician roster.
// Scoring is deterministic and free of I/O; the scheduler and the
// manual-assignment flow both run through it.
package triage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/soportec/triage-service/internal/domain"
)

// priorityWeightFactor guarantees priority always dominates the
// SLA-minutes spread in the ticket score.
const priorityWeightFactor = 1000

// Outcome is the result of scoring one ticket against the roster.
// Winner is nil when no technician is eligible; that is a reportable
// condition, not an error.
type Outcome struct {
	Score            int
	MinutesRemaining int
	Winner           *domain.Technician
	Candidates       []domain.AssignmentCandidate
	Justification    string
}

// PriorityWeight maps a priority tag to its scoring weight.
func PriorityWeight(p domain.TicketPriority) int {
	switch p {
	case domain.TicketPriorityHigh:
		return 3
	case domain.TicketPriorityMedium:
		return 2
	default:
		return 1
	}
}

// TicketScore computes the suitability score for a ticket. Higher
// priority dominates; within a tier, tickets closer to (or past) SLA
// breach score higher.
func TicketScore(p domain.TicketPriority, minutesRemaining int) int {
	return PriorityWeight(p)*priorityWeightFactor - minutesRemaining
}

// Eligible filters the roster to available technicians whose specialty
// set intersects the category's required specialties, ordered by
// workload then id so the first entry is the automatic winner.
func Eligible(cat domain.Category, roster []domain.Technician) []domain.Technician {
	eligible := make([]domain.Technician, 0, len(roster))
	for _, tech := range roster {
		if !tech.Available {
			continue
		}
		if !tech.HasSpecialty(cat.RequiredSpecialties) {
			continue
		}
		eligible = append(eligible, tech)
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].Workload != eligible[j].Workload {
			return eligible[i].Workload < eligible[j].Workload
		}
		return eligible[i].ID < eligible[j].ID
	})
	return eligible
}

// Score runs the full scoring pass for one ticket: eligibility filter,
// ticket score, winner selection, and the audit justification string.
// Roster workloads must already reflect any assignments committed
// earlier in the same batch run.
func Score(ticket domain.Ticket, cat domain.Category, minutesRemaining int, roster []domain.Technician) Outcome {
	outcome := Outcome{
		Score:            TicketScore(ticket.Priority, minutesRemaining),
		MinutesRemaining: minutesRemaining,
	}

	eligible := Eligible(cat, roster)
	if len(eligible) == 0 {
		return outcome
	}

	outcome.Candidates = make([]domain.AssignmentCandidate, 0, len(eligible))
	for _, tech := range eligible {
		outcome.Candidates = append(outcome.Candidates, domain.AssignmentCandidate{
			TechnicianID:   tech.ID,
			TechnicianName: tech.Name,
			Specialties:    tech.Specialties,
			Workload:       tech.Workload,
		})
	}

	winner := eligible[0]
	outcome.Winner = &winner
	outcome.Justification = fmt.Sprintf(
		"priority %s (weight %d), %d minutes to SLA breach, ticket score %d; assigned to %s (specialties %s, workload %d)",
		ticket.Priority,
		PriorityWeight(ticket.Priority),
		minutesRemaining,
		outcome.Score,
		winner.Name,
		strings.Join(winner.Specialties, ","),
		winner.Workload,
	)
	return outcome
}
