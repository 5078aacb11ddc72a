package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/domain/repository"
)

var (
	_ repository.SessionRepository  = (*SessionRepo)(nil)
	_ repository.ProgressRepository = (*ProgressRepo)(nil)
)

// SessionRepo sesiones de onboarding sobre PostgreSQL. FormData se guarda como JSONB.
type SessionRepo struct {
	db Queryer
}

// NewSessionRepository construye el repositorio.
func NewSessionRepository(db Queryer) *SessionRepo {
	return &SessionRepo{db: db}
}

const sessionColumns = `id, user_id, total_steps, current_step, status, completion_percentage, form_data,
	created_at, updated_at, expires_at, completed_at`

func scanSession(row rowScanner) (*entity.OnboardingSession, error) {
	var s entity.OnboardingSession
	var form []byte
	if err := row.Scan(&s.ID, &s.UserID, &s.TotalSteps, &s.CurrentStep, &s.Status, &s.CompletionPercentage,
		&form, &s.CreatedAt, &s.UpdatedAt, &s.ExpiresAt, &s.CompletedAt); err != nil {
		return nil, err
	}
	s.FormData = map[string]map[string]any{}
	if len(form) > 0 {
		if err := json.Unmarshal(form, &s.FormData); err != nil {
			return nil, fmt.Errorf("decode form_data: %w", err)
		}
	}
	return &s, nil
}

func encodeForm(form map[string]map[string]any) ([]byte, error) {
	if form == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(form)
}

// Create inserta la sesión.
func (r *SessionRepo) Create(ctx context.Context, s *entity.OnboardingSession) error {
	form, err := encodeForm(s.FormData)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO onboarding_sessions (id, user_id, total_steps, current_step, status, completion_percentage,
			form_data, created_at, updated_at, expires_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID, s.UserID, s.TotalSteps, s.CurrentStep, s.Status, s.CompletionPercentage,
		form, s.CreatedAt, s.UpdatedAt, s.ExpiresAt, s.CompletedAt,
	)
	return translate("insert session", err)
}

func (r *SessionRepo) get(ctx context.Context, query string, arg any) (*entity.OnboardingSession, error) {
	s, err := scanSession(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// GetByID obtiene una sesión.
func (r *SessionRepo) GetByID(ctx context.Context, id string) (*entity.OnboardingSession, error) {
	return r.get(ctx, `SELECT `+sessionColumns+` FROM onboarding_sessions WHERE id = $1`, id)
}

// GetByIDForUpdate obtiene la sesión con SELECT ... FOR UPDATE; usar dentro de WithinTx.
func (r *SessionRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.OnboardingSession, error) {
	return r.get(ctx, `SELECT `+sessionColumns+` FROM onboarding_sessions WHERE id = $1 FOR UPDATE`, id)
}

// GetLatestByUser sesión más reciente del usuario.
func (r *SessionRepo) GetLatestByUser(ctx context.Context, userID string) (*entity.OnboardingSession, error) {
	return r.get(ctx, `SELECT `+sessionColumns+` FROM onboarding_sessions
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`, userID)
}

// Update reemplaza el estado de la sesión.
func (r *SessionRepo) Update(ctx context.Context, s *entity.OnboardingSession) error {
	form, err := encodeForm(s.FormData)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE onboarding_sessions
		   SET current_step = $2, status = $3, completion_percentage = $4, form_data = $5,
		       updated_at = $6, expires_at = $7, completed_at = $8
		 WHERE id = $1`,
		s.ID, s.CurrentStep, s.Status, s.CompletionPercentage, form, s.UpdatedAt, s.ExpiresAt, s.CompletedAt,
	)
	return expectOne(tag, err, "update session")
}

// ExpireStale marca como expired las sesiones en curso vencidas.
func (r *SessionRepo) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE onboarding_sessions
		   SET status = 'expired', updated_at = $1
		 WHERE status = 'in_progress' AND expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("expire sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Stats conteo por estado y promedio de avance.
func (r *SessionRepo) Stats(ctx context.Context) (repository.SessionStats, error) {
	var st repository.SessionStats
	var avg float64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'in_progress'),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COUNT(*) FILTER (WHERE status = 'expired'),
		       COALESCE(AVG(completion_percentage), 0)::float8
		  FROM onboarding_sessions`,
	).Scan(&st.Total, &st.InProgress, &st.Completed, &st.Expired, &avg)
	if err != nil {
		return st, fmt.Errorf("session stats: %w", err)
	}
	st.AverageCompletion = decimal.NewFromFloat(avg).Round(2)
	return st, nil
}

// ProgressRepo filas de progreso sobre PostgreSQL.
type ProgressRepo struct {
	db Queryer
}

// NewProgressRepository construye el repositorio.
func NewProgressRepository(db Queryer) *ProgressRepo {
	return &ProgressRepo{db: db}
}

// Upsert inserta o reemplaza la fila (session_id, step_number); conserva id y created_at.
func (r *ProgressRepo) Upsert(ctx context.Context, p *entity.OnboardingProgress) error {
	data, err := jsonOrEmpty(p.StepData)
	if err != nil {
		return err
	}
	var validation []byte
	if len(p.AIValidation) > 0 {
		validation = p.AIValidation
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO onboarding_progress (id, session_id, step_number, step_name, step_data, completed, skipped,
			ai_validation, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (session_id, step_number) DO UPDATE
		   SET step_name = EXCLUDED.step_name, step_data = EXCLUDED.step_data, completed = EXCLUDED.completed,
		       skipped = EXCLUDED.skipped, ai_validation = EXCLUDED.ai_validation,
		       completed_at = EXCLUDED.completed_at, updated_at = EXCLUDED.updated_at`,
		p.ID, p.SessionID, p.StepNumber, p.StepName, data, p.Completed, p.Skipped,
		validation, p.CompletedAt, p.CreatedAt, p.UpdatedAt,
	)
	return translate("upsert progress", err)
}

// ListBySession filas de la sesión ordenadas por paso.
func (r *ProgressRepo) ListBySession(ctx context.Context, sessionID string) ([]*entity.OnboardingProgress, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, session_id, step_number, step_name, step_data, completed, skipped, ai_validation,
		       completed_at, created_at, updated_at
		  FROM onboarding_progress
		 WHERE session_id = $1
		 ORDER BY step_number`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()
	out := []*entity.OnboardingProgress{}
	for rows.Next() {
		var p entity.OnboardingProgress
		var data []byte
		if err := rows.Scan(&p.ID, &p.SessionID, &p.StepNumber, &p.StepName, &data, &p.Completed, &p.Skipped,
			&p.AIValidation, &p.CompletedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if p.StepData, err = decodeMap(data); err != nil {
			return nil, fmt.Errorf("decode step_data: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
