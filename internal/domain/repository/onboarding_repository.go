package repository

import (
	"context"
	"time"

	"github.com/jhoicas/okr-api/internal/domain/entity"
)

// SessionRepository persistencia de sesiones de onboarding.
type SessionRepository interface {
	Create(ctx context.Context, s *entity.OnboardingSession) error
	GetByID(ctx context.Context, id string) (*entity.OnboardingSession, error)
	// GetByIDForUpdate como GetByID, bloqueando la fila hasta el fin de la transacción.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.OnboardingSession, error)
	// GetLatestByUser devuelve la sesión más reciente del usuario o (nil, nil).
	GetLatestByUser(ctx context.Context, userID string) (*entity.OnboardingSession, error)
	Update(ctx context.Context, s *entity.OnboardingSession) error
	// ExpireStale marca como expired las sesiones en curso vencidas antes de now.
	ExpireStale(ctx context.Context, now time.Time) (int, error)
	Stats(ctx context.Context) (SessionStats, error)
}

// ProgressRepository filas de progreso por (sesión, paso).
type ProgressRepository interface {
	// Upsert inserta o reemplaza la fila del paso.
	Upsert(ctx context.Context, p *entity.OnboardingProgress) error
	ListBySession(ctx context.Context, sessionID string) ([]*entity.OnboardingProgress, error)
}
