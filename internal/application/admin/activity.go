// Package admin casos de uso administrativos: usuarios, invitaciones, dashboard
// y registro de actividad.
package admin

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/application/ports"
	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/domain/repository"
)

// Acciones registradas en la actividad.
const (
	ActionUserUpdated         = "user.updated"
	ActionUserBatch           = "user.batch"
	ActionInvitationCreated   = "invitation.created"
	ActionInvitationResent    = "invitation.resent"
	ActionInvitationCancelled = "invitation.cancelled"
	ActionInvitationAccepted  = "invitation.accepted"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

// ActivityLog registra acciones administrativas en el repositorio y en el log.
type ActivityLog struct {
	repo repository.ActivityRepository
	log  zerolog.Logger
	now  func() time.Time
}

var _ ports.ActivityLogger = (*ActivityLog)(nil)

// NewActivityLog construye el registro de actividad.
func NewActivityLog(repo repository.ActivityRepository, log zerolog.Logger) *ActivityLog {
	return &ActivityLog{repo: repo, log: log, now: time.Now}
}

// Record guarda la entrada. Un fallo solo se registra en el log.
func (a *ActivityLog) Record(ctx context.Context, actorID, action, targetType, targetID string, metadata map[string]any) {
	a.log.Info().
		Str("actor_id", actorID).
		Str("action", action).
		Str("target_type", targetType).
		Str("target_id", targetID).
		Interface("metadata", metadata).
		Msg("actividad administrativa")
	if a.repo == nil {
		return
	}
	entry := &entity.ActivityEntry{
		ID:         uuid.New().String(),
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   metadata,
		CreatedAt:  a.now(),
	}
	if err := a.repo.Create(ctx, entry); err != nil {
		a.log.Error().Err(err).Str("action", action).Msg("no se pudo registrar la actividad")
	}
}

// List últimas entradas; limit fuera de rango usa 50 (máximo 200).
func (a *ActivityLog) List(ctx context.Context, limit int) ([]dto.ActivityResponse, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	entries, err := a.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toActivityResponses(entries), nil
}

func toActivityResponses(entries []*entity.ActivityEntry) []dto.ActivityResponse {
	out := make([]dto.ActivityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.ActivityResponse{
			ID:         e.ID,
			ActorID:    e.ActorID,
			Action:     e.Action,
			TargetType: e.TargetType,
			TargetID:   e.TargetID,
			Metadata:   e.Metadata,
			CreatedAt:  e.CreatedAt,
		})
	}
	return out
}

// nopActivity se usa cuando no se inyecta registro.
type nopActivity struct{}

func (nopActivity) Record(context.Context, string, string, string, string, map[string]any) {}
