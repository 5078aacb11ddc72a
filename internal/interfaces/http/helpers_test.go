package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/okr-api/internal/application/admin"
	"github.com/jhoicas/okr-api/internal/application/auth"
	"github.com/jhoicas/okr-api/internal/application/onboarding"
	"github.com/jhoicas/okr-api/internal/application/transform"
	"github.com/jhoicas/okr-api/internal/application/validation"
	"github.com/jhoicas/okr-api/internal/infrastructure/fixtures"
	"github.com/jhoicas/okr-api/internal/infrastructure/memory"
	"github.com/jhoicas/okr-api/internal/infrastructure/metrics"
	"github.com/jhoicas/okr-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/okr-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/okr-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testIssuer    = "okr-api-test"
	testExpMin    = 60

	acmeID      = "7b0a3c1e-2f4d-4e5a-9b6c-1d2e3f4a5b60"
	lauraID     = "0b9c6a40-1e2f-4a3b-8c4d-5e6f7a8b9c01" // corporativo
	andresID    = "1c0d9e20-3b4a-4f58-8d7c-6e5f4a3b2c02" // gerente, Acme
	camiloID    = "4f3a2b50-6e7d-4c8b-8a1f-9b8c7d6e5f04" // empleado, Acme
	valentinaID = "5a4b3c60-7f8e-4d9c-9b2a-0c9d8e7f6a06" // empleada inactiva
	mateoID     = "6b5c4d70-8a9f-4e0d-8c3b-1d0e9f8a7b07" // empleado sin empresa
)

type testServer struct {
	app   *fiber.App
	store *memory.Store
	reg   *prometheus.Registry
}

// newTestServer arma la API completa sobre el store en memoria con los fixtures embebidos.
// limiter puede ser nil.
func newTestServer(t *testing.T, limiter *apphttp.RateLimiter) *testServer {
	t.Helper()
	nop := zerolog.Nop()

	store := memory.NewStore()
	set, err := fixtures.Default()
	require.NoError(t, err)
	_, err = fixtures.Seed(context.Background(), store.Repositories(), set, time.Now())
	require.NoError(t, err)
	repos := store.Repositories()

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	activity := admin.NewActivityLog(store.Activity(), nop)
	authUC := auth.NewAuthUseCase(repos.Profiles, auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer})
	valSvc := validation.NewService(validation.Config{}, nil, nil, collector, nop)
	pipeline := transform.NewPipeline(transform.Config{}, valSvc, nil, nil, nil, store, collector, nop)

	deps := apphttp.RouterDeps{
		AuthUC:       authUC,
		OnboardingUC: onboarding.NewUseCase(repos.Sessions, repos.Progress, store, valSvc, pipeline, 0, nop),
		Validation:   valSvc,
		UserUC:       admin.NewUserUseCase(repos.Profiles, repos.Organizations, activity, nop),
		InvitationUC: admin.NewInvitationUseCase(repos, store, nil, activity, collector, nop),
		DashboardUC:  admin.NewDashboardUseCase(repos, store.Activity(), pdf.NewMarotoReportGenerator("okr-api"), nop),
		Activity:     activity,
		Store:        store,
		StoreDriver:  "memory",
		Version:      "test",
		JWTSecret:    testJWTSecret,
		RateLimiter:  limiter,
		Metrics:      collector,
		Gatherer:     reg,
		Log:          nop,
	}
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(nop)})
	apphttp.Middlewares(app, deps)
	apphttp.Router(app, deps)
	return &testServer{app: app, store: store, reg: reg}
}

// bearer genera el header Authorization para un usuario de los fixtures.
func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, userID, "", role, testIssuer, testExpMin)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok
}

func (s *testServer) do(t *testing.T, method, path, auth string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// envelope cuerpo uniforme decodificado.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}
