package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/domain/repository"
)

var _ repository.ActivityRepository = (*ActivityRepo)(nil)

// ActivityRepo registro de actividad (tabla activity_log).
type ActivityRepo struct {
	db Queryer
}

// NewActivityRepository construye el repositorio.
func NewActivityRepository(db Queryer) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) Create(ctx context.Context, e *entity.ActivityEntry) error {
	meta, err := jsonOrEmpty(e.Metadata)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO activity_log (id, actor_id, action, target_type, target_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.ActorID, e.Action, e.TargetType, e.TargetID, meta, e.CreatedAt,
	)
	return translate("insert activity", err)
}

// ListRecent últimas entradas, la más reciente primero.
func (r *ActivityRepo) ListRecent(ctx context.Context, limit int) ([]*entity.ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, actor_id, action, target_type, target_id, metadata, created_at
		  FROM activity_log
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()
	out := []*entity.ActivityEntry{}
	for rows.Next() {
		var e entity.ActivityEntry
		var meta []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.TargetType, &e.TargetID, &meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		if e.Metadata, err = decodeMap(meta); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
