package repository

import (
	"context"
	"time"

	"github.com/jhoicas/okr-api/internal/domain/entity"
)

// InvitationFilter filtros y paginación del listado de invitaciones.
type InvitationFilter struct {
	Status    string
	CompanyID string
	RoleType  string
	Email     string
	Limit     int
	Offset    int
}

// InvitationRepository persistencia de invitaciones.
// GetByID y GetByCode devuelven (nil, nil) si no existe.
// Solo puede haber una invitación pending/sent por (email, companyID): Create y Update
// devuelven ErrConflict si la violan.
type InvitationRepository interface {
	Create(ctx context.Context, inv *entity.Invitation) error
	GetByID(ctx context.Context, id string) (*entity.Invitation, error)
	GetByCode(ctx context.Context, code string) (*entity.Invitation, error)
	Update(ctx context.Context, inv *entity.Invitation) error
	List(ctx context.Context, f InvitationFilter) ([]*entity.Invitation, int, error)
	// FindActive devuelve una invitación pending/sent sin vencer para (email, companyID) o (nil, nil).
	FindActive(ctx context.Context, email, companyID string, now time.Time) (*entity.Invitation, error)
	// ExpireOverdue marca como expired las pending/sent vencidas de (email, companyID).
	ExpireOverdue(ctx context.Context, email, companyID string, now time.Time) (int, error)
	Stats(ctx context.Context, companyID string, now time.Time) (InvitationStats, error)
}

// ActivityRepository registro de acciones administrativas.
type ActivityRepository interface {
	Create(ctx context.Context, e *entity.ActivityEntry) error
	ListRecent(ctx context.Context, limit int) ([]*entity.ActivityEntry, error)
}
