package repository

import (
	"context"

	"github.com/jhoicas/okr-api/internal/domain/entity"
)

// Campos por los que se puede ordenar el listado de usuarios.
const (
	SortByCreatedAt   = "createdAt"
	SortByEmail       = "email"
	SortByFullName    = "fullName"
	SortByRoleType    = "roleType"
	SortByLastLoginAt = "lastLoginAt"
)

// ProfileFilter filtros, orden y paginación del listado de usuarios.
// Campos vacíos no filtran. Search busca en email y nombre (sin distinguir mayúsculas).
type ProfileFilter struct {
	RoleType  string
	CompanyID string
	Status    string
	Search    string
	SortBy    string
	SortOrder string // asc | desc
	Limit     int
	Offset    int
}

// ProfileRepository define el puerto de persistencia para perfiles de usuario (DIP).
// GetByID y GetByEmail devuelven (nil, nil) si no existe.
type ProfileRepository interface {
	Create(ctx context.Context, p *entity.Profile) error
	GetByID(ctx context.Context, id string) (*entity.Profile, error)
	GetByEmail(ctx context.Context, email string) (*entity.Profile, error)
	Update(ctx context.Context, p *entity.Profile) error
	// List devuelve la página pedida y el total filtrado (sin paginar).
	List(ctx context.Context, f ProfileFilter) ([]*entity.Profile, int, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, companyID string) (ProfileStats, error)
}
