package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/okr-api/internal/application/admin"
	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/domain"
	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/domain/repository"
	"github.com/jhoicas/okr-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de autenticación: login y resolución del llamante.
type AuthUseCase struct {
	profiles repository.ProfileRepository
	jwtCfg   JWTConfig
	now      func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(profiles repository.ProfileRepository, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{profiles: profiles, jwtCfg: jwtCfg, now: time.Now}
}

// Login verifica email/password de un perfil activo, genera JWT y actualiza LastLoginAt.
// Email inexistente y contraseña incorrecta devuelven el mismo error.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.profiles.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if !user.IsActive() {
		return nil, fmt.Errorf("%w: usuario %s", domain.ErrForbidden, user.Status)
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.CompanyID, user.RoleType, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	user.LastLoginAt = &now
	user.UpdatedAt = now
	if err := uc.profiles.Update(ctx, user); err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:             token,
		MustResetPassword: user.MustResetPassword,
		User:              *admin.ToUserResponse(user),
	}, nil
}

// ResolveCaller carga el perfil del usuario autenticado. Un perfil inexistente o
// inactivo no puede operar: ErrUnauthorized.
func (uc *AuthUseCase) ResolveCaller(ctx context.Context, userID string) (*entity.Profile, error) {
	p, err := uc.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.IsActive() {
		return nil, domain.ErrUnauthorized
	}
	return p, nil
}
