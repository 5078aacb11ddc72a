package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/okr-api/internal/application/auth"
	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/domain"
	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/infrastructure/memory"
	pkgjwt "github.com/jhoicas/okr-api/pkg/jwt"
)

const secret = "test-secret-key-for-unit-tests"

func newAuth(t *testing.T, status string) (*auth.AuthUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	hash, err := bcrypt.GenerateFromPassword([]byte("Cambiar123!"), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now()
	require.NoError(t, store.Repositories().Profiles.Create(context.Background(), &entity.Profile{
		ID: "u1", Email: "ana@acme.co", RoleType: entity.RoleGerente, CompanyID: "c1",
		Status: status, PasswordHash: string(hash), CreatedAt: now, UpdatedAt: now,
	}))
	return auth.NewAuthUseCase(store.Repositories().Profiles, auth.JWTConfig{Secret: secret, ExpMinutes: 60, Issuer: "okr-test"}), store
}

func TestLogin_GeneraTokenConRol(t *testing.T) {
	uc, store := newAuth(t, entity.UserStatusActive)

	resp, err := uc.Login(context.Background(), dto.LoginRequest{Email: "ANA@acme.co", Password: "Cambiar123!"})
	require.NoError(t, err)

	claims, err := pkgjwt.Parse(secret, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, entity.RoleGerente, claims.Role)
	assert.Equal(t, "c1", claims.CompanyID)

	p, err := store.Repositories().Profiles.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, p.LastLoginAt)
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	uc, _ := newAuth(t, entity.UserStatusActive)

	_, err := uc.Login(context.Background(), dto.LoginRequest{Email: "ana@acme.co", Password: "otra"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(context.Background(), dto.LoginRequest{Email: "nadie@acme.co", Password: "Cambiar123!"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_UsuarioInactivo(t *testing.T) {
	uc, _ := newAuth(t, entity.UserStatusInactive)

	_, err := uc.Login(context.Background(), dto.LoginRequest{Email: "ana@acme.co", Password: "Cambiar123!"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestResolveCaller(t *testing.T) {
	uc, _ := newAuth(t, entity.UserStatusActive)

	p, err := uc.ResolveCaller(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleGerente, p.RoleType)

	_, err = uc.ResolveCaller(context.Background(), "desconocido")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
