package domain

import "time"

// TechnicianRole enumerates operator roles.
type TechnicianRole string

const (
	RoleTechnician TechnicianRole = "TECHNICIAN"
	RoleAdmin      TechnicianRole = "ADMIN"
)

// ActorType distinguishes who performed a change.
type ActorType string

const (
	ActorTypeTechnician ActorType = "technician"
	ActorTypeSystem     ActorType = "system"
)

// SystemActorID identifies the batch scheduler in audit records.
const SystemActorID = "autotriage"

// Technician models a support operator. Workload counts tickets
// currently in asignado/en_proceso and is mutated only through the
// assignment and closure flows.
type Technician struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         TechnicianRole
	Specialties  []string
	Available    bool
	Workload     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasSpecialty reports whether the technician covers any of the
// required specialties.
func (t Technician) HasSpecialty(required []string) bool {
	for _, need := range required {
		for _, have := range t.Specialties {
			if have == need {
				return true
			}
		}
	}
	return false
}
