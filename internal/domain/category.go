package domain

import "time"

// Category groups tickets and carries the specialty requirements and
// SLA template used by assignment.
type Category struct {
	ID                  string
	Name                string
	RequiredSpecialties []string
	SLAID               string
	Active              bool
	CreatedAt           time.Time
}

// SLA is a named pair of time budgets. ResolutionMinutes is always
// greater than ResponseMinutes (enforced by the schema).
type SLA struct {
	ID                string
	Name              string
	ResponseMinutes   int
	ResolutionMinutes int
	CreatedAt         time.Time
}
