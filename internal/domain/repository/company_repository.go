package repository

import (
	"context"

	"github.com/jhoicas/okr-api/internal/domain/entity"
)

// OrganizationRepository define el puerto de persistencia para organizaciones.
// GetByID y GetBySlug devuelven (nil, nil) si no existe.
type OrganizationRepository interface {
	Create(ctx context.Context, o *entity.Organization) error
	GetByID(ctx context.Context, id string) (*entity.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Organization, error)
	Update(ctx context.Context, o *entity.Organization) error
	// AddMember es idempotente: si el usuario ya es miembro no cambia su rol.
	AddMember(ctx context.Context, m *entity.OrganizationMember) error
	ListMembers(ctx context.Context, organizationID string) ([]*entity.OrganizationMember, error)
	Count(ctx context.Context) (int, error)
}
