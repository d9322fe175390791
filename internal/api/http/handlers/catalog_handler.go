package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soportec/triage-service/internal/api/dto"
	"github.com/soportec/triage-service/internal/repository"
	apperrors "github.com/soportec/triage-service/pkg/util"
)

// CatalogHandler exposes the category and SLA lookup surfaces. Both are
// read-only here; their lifecycle belongs to an external collaborator.
type CatalogHandler struct {
	categories repository.CategoryRepository
	slas       repository.SLARepository
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(categories repository.CategoryRepository, slas repository.SLARepository) *CatalogHandler {
	return &CatalogHandler{categories: categories, slas: slas}
}

// ListCategories GET /categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.categories.List(c.UserContext())
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		items = append(items, dto.CategoryResponse{
			ID:                  cat.ID,
			Name:                cat.Name,
			RequiredSpecialties: cat.RequiredSpecialties,
			SLAID:               cat.SLAID,
			Active:              cat.Active,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListSLAs GET /slas.
func (h *CatalogHandler) ListSLAs(c *fiber.Ctx) error {
	slas, err := h.slas.List(c.UserContext())
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.SLAResponse, 0, len(slas))
	for _, tmpl := range slas {
		items = append(items, dto.SLAResponse{
			ID:                tmpl.ID,
			Name:              tmpl.Name,
			ResponseMinutes:   tmpl.ResponseMinutes,
			ResolutionMinutes: tmpl.ResolutionMinutes,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
