package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/soportec/triage-service/internal/auth"
	"github.com/soportec/triage-service/internal/config"
	"github.com/soportec/triage-service/internal/domain"
	"github.com/soportec/triage-service/internal/repository"
	apperrors "github.com/soportec/triage-service/pkg/util"
)

// AuthService authenticates technicians and administrators.
type AuthService struct {
	technicians repository.TechnicianRepository
	tokens      *auth.TokenManager
	bcryptCost  int
}

// LoginResult carries the issued token.
type LoginResult struct {
	Token      string
	ExpiresAt  time.Time
	Technician *domain.Technician
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig, technicians repository.TechnicianRepository) *AuthService {
	return &AuthService{
		technicians: technicians,
		tokens:      auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost:  cfg.BcryptCost,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Login verifies credentials and issues a JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	tech, err := s.technicians.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(tech.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(tech.ID, tech.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Technician: tech}, nil
}
