package repository

import (
	"context"

	"github.com/jhoicas/okr-api/internal/domain/entity"
)

// OKRRepository persistencia de objetivos y resultados clave.
type OKRRepository interface {
	CreateObjective(ctx context.Context, o *entity.Objective) error
	CreateKeyResult(ctx context.Context, kr *entity.KeyResult) error
	ListObjectives(ctx context.Context, organizationID string) ([]*entity.Objective, error)
	ListKeyResults(ctx context.Context, objectiveID string) ([]*entity.KeyResult, error)
	// Stats agrega objetivos y KRs; organizationID vacío = todas.
	Stats(ctx context.Context, organizationID string) (OKRStats, error)
}
