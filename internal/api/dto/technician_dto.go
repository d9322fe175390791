package dto

import (
	"time"

	"github.com/soportec/triage-service/internal/domain"
)

// TechnicianResponse is the roster projection: specialty set,
// availability and workload are hard dependencies of the scorer.
type TechnicianResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Email       string                `json:"email"`
	Role        domain.TechnicianRole `json:"role"`
	Specialties []string              `json:"specialties"`
	Available   bool                  `json:"available"`
	Workload    int                   `json:"carga_trabajo"`
	CreatedAt   time.Time             `json:"created_at"`
}

// CreateTechnicianRequest payload for roster registration.
type CreateTechnicianRequest struct {
	Name        string                `json:"name"`
	Email       string                `json:"email"`
	Password    string                `json:"password"`
	Role        domain.TechnicianRole `json:"role"`
	Specialties []string              `json:"specialties"`
}

// UpdateAvailabilityRequest payload for the availability toggle.
type UpdateAvailabilityRequest struct {
	Available bool `json:"available"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse payload.
type LoginResponse struct {
	Token      string             `json:"token"`
	ExpiresAt  time.Time          `json:"expires_at"`
	Technician TechnicianResponse `json:"technician"`
}
