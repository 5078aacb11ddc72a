package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/domain/entity"
	apphttp "github.com/jhoicas/okr-api/internal/interfaces/http"
)

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestTestDB_Memoria(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodGet, "/api/test-db", "", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decode(t, resp)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"driver":"memory"`)
}

func TestRutaInexistente404(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodGet, "/no-existe", "", nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decode(t, resp).Error.Code)
}

func TestRutaAPIInexistenteExigeToken(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodGet, "/api/no-existe", "", nil)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMetricsExpuestas(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, http.MethodGet, "/health", "", nil)

	resp := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "okr_http_requests_total")
}

// ──────────────────────────────────────────────────────────────────────────────
// Login
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_OK(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Email: "laura.corp@acme-andina.co", Password: "Cambiar123!",
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decode(t, resp)
	var out dto.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, entity.RoleCorporativo, out.User.RoleType)
}

func TestLogin_ClaveIncorrecta401(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Email: "laura.corp@acme-andina.co", Password: "otra",
	})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_CuerpoInvalido(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "no-es-email"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeValidation, decode(t, resp).Error.Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Onboarding
// ──────────────────────────────────────────────────────────────────────────────

func TestOnboarding_ValidarPasoFueraDeRango(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodPost, "/api/onboarding/validate", bearer(t, mateoID, entity.RoleEmpleado),
		dto.ValidateStepRequest{Step: 9, Data: map[string]any{"full_name": "Mateo"}})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeValidation, decode(t, resp).Error.Code)
}

func TestOnboarding_ValidarPasoValido(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodPost, "/api/onboarding/validate", bearer(t, mateoID, entity.RoleEmpleado),
		dto.ValidateStepRequest{Step: 1, Data: map[string]any{
			"full_name": "Mateo Rincón",
			"email":     "nuevo.usuario@gmail.com",
			"job_title": "Analista de producto",
		}})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res dto.ValidationResult
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &res))
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
}

func TestOnboarding_ValidarDatosIncompletosDevuelveResultado(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodPost, "/api/onboarding/validate", bearer(t, mateoID, entity.RoleEmpleado),
		dto.ValidateStepRequest{Step: 1, Data: map[string]any{"full_name": "M"}})

	require.Equal(t, http.StatusOK, resp.StatusCode, "validar no es guardar: el resultado viaja en 200")
	var res dto.ValidationResult
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &res))
	assert.False(t, res.IsValid)
	assert.NotEmpty(t, res.Errors)
}

func TestOnboarding_SesionYPaso(t *testing.T) {
	s := newTestServer(t, nil)
	auth := bearer(t, mateoID, entity.RoleEmpleado)

	resp := s.do(t, http.MethodPost, "/api/onboarding/session", auth, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sess dto.SessionResponse
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &sess))
	assert.Equal(t, 1, sess.CurrentStep)
	assert.Equal(t, entity.SessionInProgress, sess.Status)

	// Paso inválido: no se guarda.
	resp = s.do(t, http.MethodPost, "/api/onboarding/steps/1", auth, dto.SaveStepRequest{
		Data: map[string]any{"full_name": "M"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/onboarding/steps/1", auth, dto.SaveStepRequest{
		Data: map[string]any{
			"full_name": "Mateo Rincón",
			"email":     "nuevo.usuario@gmail.com",
			"job_title": "Analista de producto",
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var saved dto.SaveStepResponse
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &saved))
	assert.Equal(t, 2, saved.Session.CurrentStep)
	assert.Equal(t, 20, saved.Session.CompletionPercentage)

	resp = s.do(t, http.MethodPost, "/api/onboarding/steps/abc", auth, dto.SaveStepRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Admin: usuarios
// ──────────────────────────────────────────────────────────────────────────────

func TestAdminUsers_GerenteVeSoloSuEmpresa(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodGet, "/api/admin/users", bearer(t, andresID, entity.RoleGerente), nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.UserListResponse
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &out))
	assert.Equal(t, 4, out.Pagination.Total)
	for _, u := range out.Users {
		assert.Equal(t, acmeID, u.CompanyID)
	}
}

func TestAdminUsers_GerenteNoConsultaOtraEmpresa(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodGet, "/api/admin/users/"+valentinaID, bearer(t, andresID, entity.RoleGerente), nil)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminUsers_BatchDeleteSinForce(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodPost, "/api/admin/users", bearer(t, lauraID, entity.RoleCorporativo), dto.BatchUserRequest{
		UserIDs: []string{camiloID, andresID},
		Action:  dto.BatchDelete,
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.BatchUserResponse
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &out))
	assert.Equal(t, 2, out.Summary.Total)
	assert.Equal(t, 0, out.Summary.Successful)
	assert.Equal(t, 2, out.Summary.Failed)
}

func TestAdminUsers_BatchAccionDesconocida(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodPost, "/api/admin/users", bearer(t, lauraID, entity.RoleCorporativo), map[string]any{
		"userIds": []string{camiloID},
		"action":  "explode",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Admin: invitaciones
// ──────────────────────────────────────────────────────────────────────────────

func TestInvitations_CrearYDuplicada(t *testing.T) {
	s := newTestServer(t, nil)
	auth := bearer(t, andresID, entity.RoleGerente)
	req := dto.CreateInvitationRequest{
		Email: "nueva.persona@acme-andina.co", CompanyID: acmeID, RoleType: entity.RoleEmpleado,
	}

	resp := s.do(t, http.MethodPost, "/api/admin/invitations", auth, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var inv dto.InvitationResponse
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &inv))
	assert.Len(t, inv.InvitationCode, 32)
	assert.Equal(t, entity.InvitationPending, inv.Status)

	resp = s.do(t, http.MethodPost, "/api/admin/invitations", auth, req)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, apphttp.CodeConflict, body.Error.Code)
	assert.NotContains(t, body.Error.Message, req.Email, "el mensaje no repite el error interno")
}

func TestInvitations_EmailInvalido(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodPost, "/api/admin/invitations", bearer(t, andresID, entity.RoleGerente),
		dto.CreateInvitationRequest{Email: "sin-arroba", CompanyID: acmeID, RoleType: entity.RoleEmpleado})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeValidation, decode(t, resp).Error.Code)
}

func TestInvitations_GerenteNoInvitaGerente(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodPost, "/api/admin/invitations", bearer(t, andresID, entity.RoleGerente),
		dto.CreateInvitationRequest{Email: "otro@acme-andina.co", CompanyID: acmeID, RoleType: entity.RoleGerente})

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Dashboard
// ──────────────────────────────────────────────────────────────────────────────

func TestDashboard_Resumen(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodGet, "/api/admin/dashboard", bearer(t, andresID, entity.RoleGerente), nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode(t, resp).Success)
}

func TestDashboard_ReportePDF(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodGet, "/api/admin/dashboard/report", bearer(t, lauraID, entity.RoleCorporativo), nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "%PDF"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Rate limit
// ──────────────────────────────────────────────────────────────────────────────

func TestRateLimit_Estricto429(t *testing.T) {
	limiter := apphttp.NewRateLimiter(apphttp.RateLimiterConfig{
		GeneralRate: 100, GeneralBurst: 100,
		StrictRate: 0.001, StrictBurst: 1,
		CleanupInterval: time.Minute,
	}, nil, zerolog.Nop())
	t.Cleanup(limiter.Stop)
	s := newTestServer(t, limiter)
	auth := bearer(t, andresID, entity.RoleGerente)

	first := s.do(t, http.MethodPost, "/api/admin/invitations", auth, dto.CreateInvitationRequest{
		Email: "primera@acme-andina.co", CompanyID: acmeID, RoleType: entity.RoleEmpleado,
	})
	require.Equal(t, http.StatusCreated, first.StatusCode)

	second := s.do(t, http.MethodPost, "/api/admin/invitations", auth, dto.CreateInvitationRequest{
		Email: "segunda@acme-andina.co", CompanyID: acmeID, RoleType: entity.RoleEmpleado,
	})
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	assert.NotEmpty(t, second.Header.Get("Retry-After"))
	assert.Equal(t, apphttp.CodeRateLimited, decode(t, second).Error.Code)

	// El límite es por usuario.
	other := s.do(t, http.MethodPost, "/api/admin/invitations", bearer(t, lauraID, entity.RoleCorporativo), dto.CreateInvitationRequest{
		Email: "tercera@acme-andina.co", CompanyID: acmeID, RoleType: entity.RoleEmpleado,
	})
	assert.Equal(t, http.StatusCreated, other.StatusCode)
}
