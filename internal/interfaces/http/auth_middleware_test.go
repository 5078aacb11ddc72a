package http_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/okr-api/internal/domain/entity"
	apphttp "github.com/jhoicas/okr-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_SinHeaderDevuelve401(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodGet, "/api/onboarding/session", "", nil)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	env := decode(t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "MISSING_TOKEN", env.Error.Code)
}

func TestAuthMiddleware_FormatoInvalido(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodGet, "/api/onboarding/session", "Token abc", nil)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", decode(t, resp).Error.Code)
}

func TestAuthMiddleware_FirmaIncorrecta(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodGet, "/api/onboarding/session", "Bearer eyJhbGciOiJIUzI1NiJ9.e30.firma", nil)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_UsuarioInactivoDevuelve401(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodGet, "/api/onboarding/session", bearer(t, valentinaID, entity.RoleEmpleado), nil)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode,
		"un perfil inactivo no puede operar aunque el token sea válido")
}

func TestAuthMiddleware_UsuarioInexistenteDevuelve401(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodGet, "/api/admin/users", bearer(t, "no-existe", entity.RoleCorporativo), nil)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// RequireRole
// ──────────────────────────────────────────────────────────────────────────────

func TestRequireRole_EmpleadoBloqueadoEnAdmin(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodGet, "/api/admin/users", bearer(t, camiloID, entity.RoleEmpleado), nil)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decode(t, resp).Error.Code)
}

func TestRequireRole_RolDelTokenNoEscala(t *testing.T) {
	s := newTestServer(t, nil)
	// Camilo es empleado en la DB; el claim "corporativo" no le da acceso.
	resp := s.do(t, http.MethodGet, "/api/admin/users", bearer(t, camiloID, entity.RoleCorporativo), nil)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRequireRole_GerenteBloqueadoEnReporte(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodGet, "/api/admin/dashboard/report", bearer(t, andresID, entity.RoleGerente), nil)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRequireRole_Jerarquia(t *testing.T) {
	cases := []struct {
		role     string
		required string
		want     int
	}{
		{entity.RoleCorporativo, entity.RoleGerente, fiber.StatusOK},
		{entity.RoleGerente, entity.RoleGerente, fiber.StatusOK},
		{entity.RoleEmpleado, entity.RoleGerente, fiber.StatusForbidden},
		{"", entity.RoleEmpleado, fiber.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.role+"->"+tc.required, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(zerolog.Nop())})
			app.Get("/x",
				func(c *fiber.Ctx) error {
					if tc.role != "" {
						c.Locals(apphttp.LocalRole, tc.role)
					}
					return c.Next()
				},
				apphttp.RequireRole(tc.required),
				func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) },
			)
			req, err := http.NewRequest(http.MethodGet, "/x", nil)
			require.NoError(t, err)
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
