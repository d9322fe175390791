package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/soportec/triage-service/internal/api/dto"
	"github.com/soportec/triage-service/internal/auth"
	"github.com/soportec/triage-service/internal/domain"
	"github.com/soportec/triage-service/internal/repository"
	apperrors "github.com/soportec/triage-service/pkg/util"
)

// TechniciansHandler exposes the roster surfaces: listing for the
// manual-assignment UI, plus admin registration and availability.
type TechniciansHandler struct {
	technicians repository.TechnicianRepository
	bcryptCost  int
}

// NewTechniciansHandler constructs handler.
func NewTechniciansHandler(technicians repository.TechnicianRepository, bcryptCost int) *TechniciansHandler {
	return &TechniciansHandler{technicians: technicians, bcryptCost: bcryptCost}
}

// ListTechnicians GET /technicians.
func (h *TechniciansHandler) ListTechnicians(c *fiber.Ctx) error {
	filter := repository.TechnicianFilter{Limit: parseInt(c.Query("limit"), 100)}
	if available := c.Query("available"); available != "" {
		val := available == "true"
		filter.Available = &val
	}
	if role := c.Query("role"); role != "" {
		r := domain.TechnicianRole(role)
		filter.Role = &r
	}

	roster, err := h.technicians.List(c.UserContext(), filter)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.TechnicianResponse, 0, len(roster))
	for i := range roster {
		items = append(items, technicianResponse(&roster[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateTechnician POST /technicians.
func (h *TechniciansHandler) CreateTechnician(c *fiber.Ctx) error {
	var req dto.CreateTechnicianRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("name, email and password required", nil)
	}
	if len(req.Specialties) == 0 {
		return apperrors.NewValidationError("at least one specialty required", nil)
	}
	role := req.Role
	if role == "" {
		role = domain.RoleTechnician
	}

	hash, err := auth.HashPassword(req.Password, h.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	tech := &domain.Technician{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         role,
		Specialties:  req.Specialties,
		Available:    true,
	}
	if err := h.technicians.Create(c.UserContext(), tech); err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": technicianResponse(tech)})
}

// UpdateAvailability PATCH /technicians/:id/availability.
func (h *TechniciansHandler) UpdateAvailability(c *fiber.Ctx) error {
	var req dto.UpdateAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	tech, err := h.technicians.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("technician", map[string]any{"technician_id": c.Params("id")})
		}
		return apperrors.MapError(err)
	}
	tech.Available = req.Available
	if err := h.technicians.Update(c.UserContext(), tech); err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": technicianResponse(tech)})
}

func technicianResponse(tech *domain.Technician) dto.TechnicianResponse {
	return dto.TechnicianResponse{
		ID:          tech.ID,
		Name:        tech.Name,
		Email:       tech.Email,
		Role:        tech.Role,
		Specialties: tech.Specialties,
		Available:   tech.Available,
		Workload:    tech.Workload,
		CreatedAt:   tech.CreatedAt,
	}
}
