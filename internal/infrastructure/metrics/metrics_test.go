package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/okr-api/internal/infrastructure/metrics"
)

func TestCollector_ContadoresDeDominio(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.ValidationCompleted(2, true, false)
	c.ValidationCompleted(2, true, false)
	c.ValidationCompleted(2, true, true)
	c.AIRequestFailed("validation")
	c.OnboardingCompleted()
	c.InvitationCreated()
	c.InvitationCreated()

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			values[mf.GetName()] += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 3.0, values["okr_validations_total"])
	assert.Equal(t, 1.0, values["okr_ai_failures_total"])
	assert.Equal(t, 1.0, values["okr_onboarding_completed_total"])
	assert.Equal(t, 2.0, values["okr_invitations_created_total"])
}

func TestCollector_HTTPYRateLimit(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.RecordHTTPRequest("GET", "/api/admin/users", 200, 15*time.Millisecond)
	c.RecordRateLimited("general")

	assert.Equal(t, 1, testutil.CollectAndCount(reg, "okr_http_requests_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "okr_http_request_duration_seconds"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "okr_rate_limited_total"))
}

func TestHandler_ExponeMetricas(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)
	c.OnboardingCompleted()

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "okr_onboarding_completed_total 1")
}
