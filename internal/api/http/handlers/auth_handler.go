package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/soportec/triage-service/internal/api/dto"
	"github.com/soportec/triage-service/internal/service"
	apperrors "github.com/soportec/triage-service/pkg/util"
)

// AuthHandler exposes technician login.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	result, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:      result.Token,
		ExpiresAt:  result.ExpiresAt,
		Technician: technicianResponse(result.Technician),
	}})
}
