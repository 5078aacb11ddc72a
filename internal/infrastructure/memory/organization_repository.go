package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/okr-api/internal/domain"
	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/domain/repository"
)

// OrganizationRepo implementa repository.OrganizationRepository en memoria.
type OrganizationRepo struct {
	src source
}

var _ repository.OrganizationRepository = (*OrganizationRepo)(nil)

func (r *OrganizationRepo) Create(_ context.Context, o *entity.Organization) error {
	return r.src.write(func(s *snapshot) error {
		if _, ok := s.orgs[o.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, other := range s.orgs {
			if other.Slug == o.Slug {
				return domain.ErrDuplicate
			}
		}
		s.orgs[o.ID] = o.Clone()
		return nil
	})
}

func (r *OrganizationRepo) GetByID(_ context.Context, id string) (*entity.Organization, error) {
	var out *entity.Organization
	err := r.src.read(func(s *snapshot) error {
		out = s.orgs[id].Clone()
		return nil
	})
	return out, err
}

func (r *OrganizationRepo) GetBySlug(_ context.Context, slug string) (*entity.Organization, error) {
	var out *entity.Organization
	err := r.src.read(func(s *snapshot) error {
		for _, o := range s.orgs {
			if o.Slug == slug {
				out = o.Clone()
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *OrganizationRepo) Update(_ context.Context, o *entity.Organization) error {
	return r.src.write(func(s *snapshot) error {
		if _, ok := s.orgs[o.ID]; !ok {
			return domain.ErrNotFound
		}
		s.orgs[o.ID] = o.Clone()
		return nil
	})
}

func (r *OrganizationRepo) AddMember(_ context.Context, m *entity.OrganizationMember) error {
	return r.src.write(func(s *snapshot) error {
		if _, ok := s.orgs[m.OrganizationID]; !ok {
			return domain.ErrNotFound
		}
		users := s.members[m.OrganizationID]
		if users == nil {
			users = map[string]*entity.OrganizationMember{}
			s.members[m.OrganizationID] = users
		}
		if _, exists := users[m.UserID]; exists {
			return nil
		}
		c := *m
		users[m.UserID] = &c
		return nil
	})
}

func (r *OrganizationRepo) ListMembers(_ context.Context, organizationID string) ([]*entity.OrganizationMember, error) {
	out := []*entity.OrganizationMember{}
	err := r.src.read(func(s *snapshot) error {
		for _, m := range s.members[organizationID] {
			c := *m
			out = append(out, &c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, err
}

func (r *OrganizationRepo) Count(_ context.Context) (int, error) {
	n := 0
	err := r.src.read(func(s *snapshot) error {
		n = len(s.orgs)
		return nil
	})
	return n, err
}
