package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/okr-api/internal/domain"
	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/domain/repository"
)

// OKRRepo implementa repository.OKRRepository en memoria.
type OKRRepo struct {
	src source
}

var _ repository.OKRRepository = (*OKRRepo)(nil)

func (r *OKRRepo) CreateObjective(_ context.Context, o *entity.Objective) error {
	return r.src.write(func(s *snapshot) error {
		if _, ok := s.objectives[o.ID]; ok {
			return domain.ErrDuplicate
		}
		if _, ok := s.orgs[o.OrganizationID]; !ok {
			return domain.ErrNotFound
		}
		c := *o
		s.objectives[o.ID] = &c
		return nil
	})
}

func (r *OKRRepo) CreateKeyResult(_ context.Context, kr *entity.KeyResult) error {
	return r.src.write(func(s *snapshot) error {
		if _, ok := s.keyResults[kr.ID]; ok {
			return domain.ErrDuplicate
		}
		if _, ok := s.objectives[kr.ObjectiveID]; !ok {
			return domain.ErrNotFound
		}
		c := *kr
		s.keyResults[kr.ID] = &c
		return nil
	})
}

func (r *OKRRepo) ListObjectives(_ context.Context, organizationID string) ([]*entity.Objective, error) {
	out := []*entity.Objective{}
	err := r.src.read(func(s *snapshot) error {
		for _, o := range s.objectives {
			if o.OrganizationID == organizationID {
				c := *o
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (r *OKRRepo) ListKeyResults(_ context.Context, objectiveID string) ([]*entity.KeyResult, error) {
	out := []*entity.KeyResult{}
	err := r.src.read(func(s *snapshot) error {
		for _, k := range s.keyResults {
			if k.ObjectiveID == objectiveID {
				c := *k
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (r *OKRRepo) Stats(_ context.Context, organizationID string) (repository.OKRStats, error) {
	var st repository.OKRStats
	err := r.src.read(func(s *snapshot) error {
		sum := decimal.Zero
		for _, o := range s.objectives {
			if organizationID == "" || o.OrganizationID == organizationID {
				st.Objectives++
			}
		}
		for _, k := range s.keyResults {
			o, ok := s.objectives[k.ObjectiveID]
			if !ok || (organizationID != "" && o.OrganizationID != organizationID) {
				continue
			}
			st.KeyResults++
			sum = sum.Add(k.Progress())
		}
		if st.KeyResults > 0 {
			st.AverageProgress = sum.Div(decimal.NewFromInt(int64(st.KeyResults))).Round(2)
		}
		return nil
	})
	return st, err
}
