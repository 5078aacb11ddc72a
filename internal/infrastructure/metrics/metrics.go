// Package metrics recoge y expone las métricas Prometheus del servicio.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/okr-api/internal/application/ports"
)

const namespace = "okr"

// Collector implementa ports.Metrics y las métricas HTTP del servidor.
type Collector struct {
	validations   *prometheus.CounterVec
	aiFailures    *prometheus.CounterVec
	onboardings   prometheus.Counter
	invitations   prometheus.Counter
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	rateLimitHits *prometheus.CounterVec
}

var _ ports.Metrics = (*Collector)(nil)

// NewCollector crea el Collector y registra sus métricas en reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Validaciones de pasos del onboarding por paso, resultado y origen.",
		}, []string{"step", "valid", "cached"}),
		aiFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_failures_total",
			Help:      "Llamadas al asistente de IA fallidas por operación.",
		}, []string{"operation"}),
		onboardings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "onboarding_completed_total",
			Help:      "Onboardings completados.",
		}),
		invitations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitations_created_total",
			Help:      "Invitaciones creadas.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Solicitudes HTTP por método, ruta y estado.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latencia de las solicitudes HTTP (segundos).",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rateLimitHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Solicitudes rechazadas con 429 por limitador.",
		}, []string{"limiter"}),
	}

	reg.MustRegister(
		c.validations,
		c.aiFailures,
		c.onboardings,
		c.invitations,
		c.httpRequests,
		c.httpLatency,
		c.rateLimitHits,
	)
	return c
}

func (c *Collector) ValidationCompleted(step int, valid, cached bool) {
	c.validations.WithLabelValues(strconv.Itoa(step), strconv.FormatBool(valid), strconv.FormatBool(cached)).Inc()
}

func (c *Collector) AIRequestFailed(operation string) {
	c.aiFailures.WithLabelValues(operation).Inc()
}

func (c *Collector) OnboardingCompleted() {
	c.onboardings.Inc()
}

func (c *Collector) InvitationCreated() {
	c.invitations.Inc()
}

// RecordHTTPRequest registra una solicitud servida. route es el patrón, no la URL, para acotar cardinalidad.
func (c *Collector) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordRateLimited registra un rechazo por límite de tasa.
func (c *Collector) RecordRateLimited(limiter string) {
	c.rateLimitHits.WithLabelValues(limiter).Inc()
}

// Handler handler HTTP para el scrape de Prometheus.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
