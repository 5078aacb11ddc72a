package ports

import (
	"context"
	"time"

	"github.com/jhoicas/okr-api/internal/application/dto"
)

// Eventos de analítica emitidos por el onboarding.
const (
	EventOnboardingTransformed = "onboarding.transformed"
	EventOnboardingCompleted   = "onboarding.completed"
	EventInvitationCreated     = "invitation.created"
	EventInvitationAccepted    = "invitation.accepted"
)

// EventPublisher emite eventos de analítica. Un fallo al publicar nunca debe romper la operación.
type EventPublisher interface {
	Publish(ctx context.Context, event string, payload any) error
}

// Cache caché en memoria con TTL para resultados de validación y transformación.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
}

// ActivityLogger registra acciones administrativas. No devuelve error: los fallos se registran en log.
type ActivityLogger interface {
	Record(ctx context.Context, actorID, action, targetType, targetID string, metadata map[string]any)
}

// ReportGenerator genera el reporte PDF del dashboard administrativo.
type ReportGenerator interface {
	GenerateDashboardReport(ctx context.Context, summary *dto.DashboardSummary) ([]byte, error)
}

// Metrics contadores de dominio expuestos en /metrics.
type Metrics interface {
	ValidationCompleted(step int, valid, cached bool)
	AIRequestFailed(operation string)
	OnboardingCompleted()
	InvitationCreated()
}

// NopMetrics implementación vacía de Metrics.
type NopMetrics struct{}

func (NopMetrics) ValidationCompleted(int, bool, bool) {}
func (NopMetrics) AIRequestFailed(string)              {}
func (NopMetrics) OnboardingCompleted()                {}
func (NopMetrics) InvitationCreated()                  {}
