package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/domain/repository"
)

var _ repository.OKRRepository = (*OKRRepo)(nil)

// OKRRepo objetivos y resultados clave sobre PostgreSQL.
type OKRRepo struct {
	db Queryer
}

// NewOKRRepository construye el repositorio.
func NewOKRRepository(db Queryer) *OKRRepo {
	return &OKRRepo{db: db}
}

// CreateObjective inserta un objetivo; organización inexistente: ErrNotFound.
func (r *OKRRepo) CreateObjective(ctx context.Context, o *entity.Objective) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO objectives (id, organization_id, owner_id, title, description, category, priority, timeframe,
			status, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		o.ID, o.OrganizationID, o.OwnerID, o.Title, o.Description, o.Category, o.Priority, o.Timeframe,
		o.Status, o.StartDate, o.EndDate, o.CreatedAt, o.UpdatedAt,
	)
	return translate("insert objective", err)
}

// CreateKeyResult inserta un resultado clave; objetivo inexistente: ErrNotFound.
func (r *OKRRepo) CreateKeyResult(ctx context.Context, kr *entity.KeyResult) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO key_results (id, objective_id, title, target_value, current_value, unit, due_date, status,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		kr.ID, kr.ObjectiveID, kr.Title, kr.TargetValue, kr.CurrentValue, kr.Unit, kr.DueDate, kr.Status,
		kr.CreatedAt, kr.UpdatedAt,
	)
	return translate("insert key result", err)
}

// ListObjectives objetivos de la organización por fecha de creación.
func (r *OKRRepo) ListObjectives(ctx context.Context, organizationID string) ([]*entity.Objective, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, organization_id, owner_id, title, description, category, priority, timeframe, status,
		       start_date, end_date, created_at, updated_at
		  FROM objectives
		 WHERE organization_id = $1
		 ORDER BY created_at, id`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list objectives: %w", err)
	}
	defer rows.Close()
	out := []*entity.Objective{}
	for rows.Next() {
		var o entity.Objective
		if err := rows.Scan(&o.ID, &o.OrganizationID, &o.OwnerID, &o.Title, &o.Description, &o.Category,
			&o.Priority, &o.Timeframe, &o.Status, &o.StartDate, &o.EndDate, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}

// ListKeyResults resultados clave del objetivo por fecha de creación.
func (r *OKRRepo) ListKeyResults(ctx context.Context, objectiveID string) ([]*entity.KeyResult, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, objective_id, title, target_value, current_value, unit, due_date, status, created_at, updated_at
		  FROM key_results
		 WHERE objective_id = $1
		 ORDER BY created_at, id`, objectiveID)
	if err != nil {
		return nil, fmt.Errorf("list key results: %w", err)
	}
	defer rows.Close()
	out := []*entity.KeyResult{}
	for rows.Next() {
		var k entity.KeyResult
		if err := rows.Scan(&k.ID, &k.ObjectiveID, &k.Title, &k.TargetValue, &k.CurrentValue, &k.Unit,
			&k.DueDate, &k.Status, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &k)
	}
	return out, rows.Err()
}

// Stats cuenta objetivos y KRs y promedia el avance (0–100) de los KRs.
func (r *OKRRepo) Stats(ctx context.Context, organizationID string) (repository.OKRStats, error) {
	var st repository.OKRStats
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM objectives WHERE ($1 = '' OR organization_id = $1)`, organizationID,
	).Scan(&st.Objectives); err != nil {
		return st, fmt.Errorf("count objectives: %w", err)
	}
	var avg float64
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(AVG(CASE WHEN k.target_value = 0 THEN 0
		                         ELSE LEAST(GREATEST(k.current_value / k.target_value * 100, 0), 100) END), 0)::float8
		  FROM key_results k
		  JOIN objectives o ON o.id = k.objective_id
		 WHERE ($1 = '' OR o.organization_id = $1)`, organizationID,
	).Scan(&st.KeyResults, &avg); err != nil {
		return st, fmt.Errorf("key result stats: %w", err)
	}
	st.AverageProgress = decimal.NewFromFloat(avg).Round(2)
	return st, nil
}
