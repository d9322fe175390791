package dto

// CategoryResponse is one category lookup row.
type CategoryResponse struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	RequiredSpecialties []string `json:"required_specialties"`
	SLAID               string   `json:"sla_id"`
	Active              bool     `json:"active"`
}

// SLAResponse is one SLA template lookup row.
type SLAResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	ResponseMinutes   int    `json:"response_minutes"`
	ResolutionMinutes int    `json:"resolution_minutes"`
}
