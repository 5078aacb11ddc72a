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

// InvitationRepo implementa repository.InvitationRepository en memoria.
type InvitationRepo struct {
	src source
}

var _ repository.InvitationRepository = (*InvitationRepo)(nil)

func cloneInvitation(i *entity.Invitation) *entity.Invitation {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

func (r *InvitationRepo) Create(_ context.Context, inv *entity.Invitation) error {
	return r.src.write(func(s *snapshot) error {
		if _, ok := s.invitations[inv.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, other := range s.invitations {
			if other.InvitationCode == inv.InvitationCode {
				return domain.ErrDuplicate
			}
		}
		if openClash(s, inv) {
			return domain.ErrConflict
		}
		s.invitations[inv.ID] = cloneInvitation(inv)
		return nil
	})
}

func isOpen(inv *entity.Invitation) bool {
	return inv.Status == entity.InvitationPending || inv.Status == entity.InvitationSent
}

// openClash replica el índice único parcial de Postgres: una sola pending/sent por (email, empresa).
func openClash(s *snapshot, inv *entity.Invitation) bool {
	if !isOpen(inv) {
		return false
	}
	for _, other := range s.invitations {
		if other.ID != inv.ID && isOpen(other) && other.CompanyID == inv.CompanyID &&
			strings.EqualFold(other.Email, inv.Email) {
			return true
		}
	}
	return false
}

func (r *InvitationRepo) GetByID(_ context.Context, id string) (*entity.Invitation, error) {
	var out *entity.Invitation
	err := r.src.read(func(s *snapshot) error {
		out = cloneInvitation(s.invitations[id])
		return nil
	})
	return out, err
}

func (r *InvitationRepo) GetByCode(_ context.Context, code string) (*entity.Invitation, error) {
	var out *entity.Invitation
	err := r.src.read(func(s *snapshot) error {
		for _, inv := range s.invitations {
			if inv.InvitationCode == code {
				out = cloneInvitation(inv)
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *InvitationRepo) Update(_ context.Context, inv *entity.Invitation) error {
	return r.src.write(func(s *snapshot) error {
		if _, ok := s.invitations[inv.ID]; !ok {
			return domain.ErrNotFound
		}
		if openClash(s, inv) {
			return domain.ErrConflict
		}
		s.invitations[inv.ID] = cloneInvitation(inv)
		return nil
	})
}

func (r *InvitationRepo) List(_ context.Context, f repository.InvitationFilter) ([]*entity.Invitation, int, error) {
	var matched []*entity.Invitation
	err := r.src.read(func(s *snapshot) error {
		for _, inv := range s.invitations {
			if f.Status != "" && inv.Status != f.Status {
				continue
			}
			if f.CompanyID != "" && inv.CompanyID != f.CompanyID {
				continue
			}
			if f.RoleType != "" && inv.RoleType != f.RoleType {
				continue
			}
			if f.Email != "" && !strings.EqualFold(inv.Email, f.Email) {
				continue
			}
			matched = append(matched, cloneInvitation(inv))
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, f.Limit, f.Offset), len(matched), nil
}

func (r *InvitationRepo) FindActive(_ context.Context, email, companyID string, now time.Time) (*entity.Invitation, error) {
	var out *entity.Invitation
	err := r.src.read(func(s *snapshot) error {
		for _, inv := range s.invitations {
			if strings.EqualFold(inv.Email, email) && inv.CompanyID == companyID && inv.IsActive(now) {
				out = cloneInvitation(inv)
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *InvitationRepo) ExpireOverdue(_ context.Context, email, companyID string, now time.Time) (int, error) {
	n := 0
	err := r.src.write(func(s *snapshot) error {
		for _, inv := range s.invitations {
			if inv.CompanyID == companyID && strings.EqualFold(inv.Email, email) && inv.RefreshStatus(now) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *InvitationRepo) Stats(_ context.Context, companyID string, now time.Time) (repository.InvitationStats, error) {
	st := repository.InvitationStats{ByStatus: map[string]int{}}
	err := r.src.read(func(s *snapshot) error {
		for _, inv := range s.invitations {
			if companyID != "" && inv.CompanyID != companyID {
				continue
			}
			c := *inv
			c.RefreshStatus(now)
			st.Total++
			st.ByStatus[c.Status]++
		}
		return nil
	})
	return st, err
}
