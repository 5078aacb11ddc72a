package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/okr-api/internal/domain"
	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/domain/repository"
)

// SessionRepo implementa repository.SessionRepository en memoria.
type SessionRepo struct {
	src source
}

var _ repository.SessionRepository = (*SessionRepo)(nil)

func (r *SessionRepo) Create(_ context.Context, sess *entity.OnboardingSession) error {
	return r.src.write(func(s *snapshot) error {
		if _, ok := s.sessions[sess.ID]; ok {
			return domain.ErrDuplicate
		}
		s.sessions[sess.ID] = sess.Clone()
		return nil
	})
}

func (r *SessionRepo) GetByID(_ context.Context, id string) (*entity.OnboardingSession, error) {
	var out *entity.OnboardingSession
	err := r.src.read(func(s *snapshot) error {
		out = s.sessions[id].Clone()
		return nil
	})
	return out, err
}

// GetByIDForUpdate dentro de WithinTx el bloqueo de escritura del store ya serializa.
func (r *SessionRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.OnboardingSession, error) {
	return r.GetByID(ctx, id)
}

func (r *SessionRepo) GetLatestByUser(_ context.Context, userID string) (*entity.OnboardingSession, error) {
	var out *entity.OnboardingSession
	err := r.src.read(func(s *snapshot) error {
		for _, sess := range s.sessions {
			if sess.UserID != userID {
				continue
			}
			if out == nil || sess.CreatedAt.After(out.CreatedAt) {
				out = sess
			}
		}
		out = out.Clone()
		return nil
	})
	return out, err
}

func (r *SessionRepo) Update(_ context.Context, sess *entity.OnboardingSession) error {
	return r.src.write(func(s *snapshot) error {
		if _, ok := s.sessions[sess.ID]; !ok {
			return domain.ErrNotFound
		}
		s.sessions[sess.ID] = sess.Clone()
		return nil
	})
}

func (r *SessionRepo) ExpireStale(_ context.Context, now time.Time) (int, error) {
	n := 0
	err := r.src.write(func(s *snapshot) error {
		for _, sess := range s.sessions {
			if sess.IsExpired(now) {
				sess.Expire(now)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *SessionRepo) Stats(_ context.Context) (repository.SessionStats, error) {
	var st repository.SessionStats
	err := r.src.read(func(s *snapshot) error {
		sum := 0
		for _, sess := range s.sessions {
			st.Total++
			sum += sess.CompletionPercentage
			switch sess.Status {
			case entity.SessionInProgress:
				st.InProgress++
			case entity.SessionCompleted:
				st.Completed++
			case entity.SessionExpired:
				st.Expired++
			}
		}
		if st.Total > 0 {
			st.AverageCompletion = decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(st.Total))).Round(2)
		}
		return nil
	})
	return st, err
}

// ProgressRepo implementa repository.ProgressRepository en memoria.
type ProgressRepo struct {
	src source
}

var _ repository.ProgressRepository = (*ProgressRepo)(nil)

func (r *ProgressRepo) Upsert(_ context.Context, p *entity.OnboardingProgress) error {
	return r.src.write(func(s *snapshot) error {
		if _, ok := s.sessions[p.SessionID]; !ok {
			return domain.ErrNotFound
		}
		steps := s.progress[p.SessionID]
		if steps == nil {
			steps = map[int]*entity.OnboardingProgress{}
			s.progress[p.SessionID] = steps
		}
		cp := p.Clone()
		if prev, ok := steps[p.StepNumber]; ok {
			cp.ID = prev.ID
			cp.CreatedAt = prev.CreatedAt
		}
		steps[p.StepNumber] = cp
		return nil
	})
}

func (r *ProgressRepo) ListBySession(_ context.Context, sessionID string) ([]*entity.OnboardingProgress, error) {
	out := []*entity.OnboardingProgress{}
	err := r.src.read(func(s *snapshot) error {
		for _, p := range s.progress[sessionID] {
			out = append(out, p.Clone())
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StepNumber < out[j].StepNumber })
	return out, err
}
