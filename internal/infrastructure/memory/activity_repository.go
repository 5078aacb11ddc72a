package memory

import (
	"context"

	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/domain/repository"
)

// maxActivity entradas retenidas en memoria.
const maxActivity = 1000

// ActivityRepo implementa repository.ActivityRepository en memoria (anillo acotado).
type ActivityRepo struct {
	src source
}

var _ repository.ActivityRepository = (*ActivityRepo)(nil)

func (r *ActivityRepo) Create(_ context.Context, e *entity.ActivityEntry) error {
	return r.src.write(func(s *snapshot) error {
		c := *e
		s.activity = append(s.activity, &c)
		if over := len(s.activity) - maxActivity; over > 0 {
			s.activity = append([]*entity.ActivityEntry(nil), s.activity[over:]...)
		}
		return nil
	})
}

// ListRecent devuelve las últimas entradas, la más reciente primero.
func (r *ActivityRepo) ListRecent(_ context.Context, limit int) ([]*entity.ActivityEntry, error) {
	out := []*entity.ActivityEntry{}
	err := r.src.read(func(s *snapshot) error {
		for i := len(s.activity) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
			c := *s.activity[i]
			out = append(out, &c)
		}
		return nil
	})
	return out, err
}
