package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/okr-api/internal/domain"
	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/domain/repository"
)

// ProfileRepo implementa repository.ProfileRepository en memoria.
type ProfileRepo struct {
	src source
}

var _ repository.ProfileRepository = (*ProfileRepo)(nil)

// Create inserta el perfil; el email es único (sin distinguir mayúsculas).
func (r *ProfileRepo) Create(_ context.Context, p *entity.Profile) error {
	return r.src.write(func(s *snapshot) error {
		if _, ok := s.profiles[p.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, other := range s.profiles {
			if strings.EqualFold(other.Email, p.Email) {
				return domain.ErrDuplicate
			}
		}
		s.profiles[p.ID] = p.Clone()
		return nil
	})
}

func (r *ProfileRepo) GetByID(_ context.Context, id string) (*entity.Profile, error) {
	var out *entity.Profile
	err := r.src.read(func(s *snapshot) error {
		out = s.profiles[id].Clone()
		return nil
	})
	return out, err
}

func (r *ProfileRepo) GetByEmail(_ context.Context, email string) (*entity.Profile, error) {
	var out *entity.Profile
	err := r.src.read(func(s *snapshot) error {
		for _, p := range s.profiles {
			if strings.EqualFold(p.Email, email) {
				out = p.Clone()
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *ProfileRepo) Update(_ context.Context, p *entity.Profile) error {
	return r.src.write(func(s *snapshot) error {
		if _, ok := s.profiles[p.ID]; !ok {
			return domain.ErrNotFound
		}
		s.profiles[p.ID] = p.Clone()
		return nil
	})
}

// Delete borrado físico; la acción de lote "delete" usa borrado lógico vía Update.
func (r *ProfileRepo) Delete(_ context.Context, id string) error {
	return r.src.write(func(s *snapshot) error {
		if _, ok := s.profiles[id]; !ok {
			return domain.ErrNotFound
		}
		delete(s.profiles, id)
		return nil
	})
}

func (r *ProfileRepo) List(_ context.Context, f repository.ProfileFilter) ([]*entity.Profile, int, error) {
	var matched []*entity.Profile
	err := r.src.read(func(s *snapshot) error {
		search := strings.ToLower(strings.TrimSpace(f.Search))
		for _, p := range s.profiles {
			if f.RoleType != "" && p.RoleType != f.RoleType {
				continue
			}
			if f.CompanyID != "" && p.CompanyID != f.CompanyID {
				continue
			}
			if f.Status != "" && p.Status != f.Status {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(p.Email), search) &&
				!strings.Contains(strings.ToLower(p.FullName), search) {
				continue
			}
			matched = append(matched, p.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sortProfiles(matched, f.SortBy, f.SortOrder)
	total := len(matched)
	return paginate(matched, f.Limit, f.Offset), total, nil
}

func sortProfiles(ps []*entity.Profile, by, order string) {
	desc := order != "asc"
	if by == "" {
		by = repository.SortByCreatedAt
	}
	less := func(a, b *entity.Profile) bool {
		switch by {
		case repository.SortByEmail:
			return strings.ToLower(a.Email) < strings.ToLower(b.Email)
		case repository.SortByFullName:
			return strings.ToLower(a.FullName) < strings.ToLower(b.FullName)
		case repository.SortByRoleType:
			return entity.RoleLevel(a.RoleType) < entity.RoleLevel(b.RoleType)
		case repository.SortByLastLoginAt:
			return timeOrZero(a.LastLoginAt).Before(timeOrZero(b.LastLoginAt))
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if less(a, b) == less(b, a) {
			return a.ID < b.ID // desempate estable entre ejecuciones
		}
		if desc {
			return less(b, a)
		}
		return less(a, b)
	})
}

func (r *ProfileRepo) Stats(_ context.Context, companyID string) (repository.ProfileStats, error) {
	st := repository.ProfileStats{ByRole: map[string]int{}, ByStatus: map[string]int{}}
	err := r.src.read(func(s *snapshot) error {
		for _, p := range s.profiles {
			if companyID != "" && p.CompanyID != companyID {
				continue
			}
			st.Total++
			if p.Status == entity.UserStatusActive {
				st.Active++
			}
			st.ByRole[p.RoleType]++
			st.ByStatus[p.Status]++
		}
		return nil
	})
	return st, err
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
