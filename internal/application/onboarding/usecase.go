// Package onboarding casos de uso de la sesión del asistente: inicio, guardado de
// pasos, vista previa, cierre y expiración.
package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/application/ports"
	"github.com/jhoicas/okr-api/internal/application/transform"
	"github.com/jhoicas/okr-api/internal/application/validation"
	"github.com/jhoicas/okr-api/internal/domain"
	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/domain/repository"
)

const defaultSessionTTL = 7 * 24 * time.Hour

// StepValidator valida los datos de un paso.
type StepValidator interface {
	ValidateStep(ctx context.Context, step int, data map[string]any) (*dto.ValidationResult, error)
}

// Transformer transforma y guarda los datos del asistente.
type Transformer interface {
	Transform(ctx context.Context, form dto.WizardData, opts transform.Options) (*dto.TransformResult, error)
	Save(ctx context.Context, result *dto.TransformResult, userID, sessionID string) (*dto.SaveResult, error)
}

// UseCase casos de uso del onboarding.
type UseCase struct {
	sessions    repository.SessionRepository
	progress    repository.ProgressRepository
	tx          ports.TxRunner
	validator   StepValidator
	transformer Transformer
	ttl         time.Duration
	log         zerolog.Logger
	now         func() time.Time
}

// NewUseCase construye el caso de uso. ttl <= 0 usa 7 días.
func NewUseCase(
	sessions repository.SessionRepository,
	progress repository.ProgressRepository,
	tx ports.TxRunner,
	validator StepValidator,
	transformer Transformer,
	ttl time.Duration,
	log zerolog.Logger,
) *UseCase {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &UseCase{
		sessions:    sessions,
		progress:    progress,
		tx:          tx,
		validator:   validator,
		transformer: transformer,
		ttl:         ttl,
		log:         log,
		now:         time.Now,
	}
}

// Start retoma la sesión en curso del usuario o crea una nueva.
// Una sesión ya completada devuelve ErrSessionCompleted.
func (uc *UseCase) Start(ctx context.Context, userID string) (*dto.SessionResponse, error) {
	now := uc.now()
	latest, err := uc.sessions.GetLatestByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		switch {
		case latest.Status == entity.SessionCompleted:
			return nil, domain.ErrSessionCompleted
		case latest.IsExpired(now):
			latest.Expire(now)
			if err := uc.sessions.Update(ctx, latest); err != nil {
				return nil, err
			}
		case latest.Status == entity.SessionInProgress:
			return uc.toResponse(ctx, latest)
		}
	}
	sess := entity.NewOnboardingSession(uuid.New().String(), userID, now, uc.ttl)
	if err := uc.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	uc.log.Info().Str("session_id", sess.ID).Str("user_id", userID).Msg("sesión de onboarding iniciada")
	return uc.toResponse(ctx, sess)
}

// Get devuelve la sesión actual con su progreso. Si venció se marca expired
// (persistido) y se devuelve ErrSessionExpired.
func (uc *UseCase) Get(ctx context.Context, userID string) (*dto.SessionResponse, error) {
	sess, err := uc.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	return uc.toResponse(ctx, sess)
}

// current sesión más reciente aplicando la expiración perezosa.
func (uc *UseCase) current(ctx context.Context, userID string) (*entity.OnboardingSession, error) {
	sess, err := uc.sessions.GetLatestByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, domain.ErrNotFound
	}
	now := uc.now()
	if sess.IsExpired(now) {
		sess.Expire(now)
		if err := uc.sessions.Update(ctx, sess); err != nil {
			return nil, err
		}
	}
	if sess.Status == entity.SessionExpired {
		return nil, domain.ErrSessionExpired
	}
	return sess, nil
}

// active sesión en curso (ni expirada ni completada).
func (uc *UseCase) active(ctx context.Context, userID string) (*entity.OnboardingSession, error) {
	sess, err := uc.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess.Status == entity.SessionCompleted {
		return nil, domain.ErrSessionCompleted
	}
	return sess, nil
}

// SaveStep valida y guarda un paso, o lo marca como saltado (solo pasos 3 y 5).
// Con datos inválidos devuelve *validation.ResultError.
func (uc *UseCase) SaveStep(ctx context.Context, userID string, step int, data map[string]any, skip bool) (*dto.SaveStepResponse, error) {
	if entity.StepName(step) == "" {
		return nil, fmt.Errorf("%w: paso %d fuera de rango", domain.ErrInvalidInput, step)
	}
	if skip && !entity.IsOptionalStep(step) {
		return nil, fmt.Errorf("%w: el paso %d es obligatorio y no se puede saltar", domain.ErrInvalidInput, step)
	}
	if uc.tx == nil {
		return nil, errors.New("onboarding: sin TxRunner configurado")
	}
	sess, err := uc.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	row := &entity.OnboardingProgress{
		ID:         uuid.New().String(),
		SessionID:  sess.ID,
		StepNumber: step,
		StepName:   entity.StepName(step),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var res *dto.ValidationResult
	if skip {
		row.Skipped = true
		row.StepData = map[string]any{}
	} else {
		res, err = uc.validator.ValidateStep(ctx, step, data)
		if err != nil {
			return nil, err
		}
		if !res.IsValid {
			return nil, &validation.ResultError{Result: res}
		}
		row.StepData = validation.NormalizeKeys(data)
		row.Completed = true
		row.CompletedAt = &now
		if raw, err := json.Marshal(res); err == nil {
			row.AIValidation = raw
		}
	}

	// FormData se relee con la fila bloqueada: dos pasos guardados a la vez no se pisan.
	var rows []*entity.OnboardingProgress
	err = uc.tx.WithinTx(ctx, func(r ports.Repositories) error {
		locked, err := r.Sessions.GetByIDForUpdate(ctx, sess.ID)
		if err != nil {
			return err
		}
		switch {
		case locked == nil:
			return domain.ErrNotFound
		case locked.Status == entity.SessionCompleted:
			return domain.ErrSessionCompleted
		case locked.Status == entity.SessionExpired, locked.IsExpired(now):
			return domain.ErrSessionExpired
		}
		if skip {
			delete(locked.FormData, entity.StepKey(step))
		} else {
			if locked.FormData == nil {
				locked.FormData = map[string]map[string]any{}
			}
			locked.FormData[entity.StepKey(step)] = row.StepData
		}
		if err := r.Progress.Upsert(ctx, row); err != nil {
			return err
		}
		rows, err = r.Progress.ListBySession(ctx, locked.ID)
		if err != nil {
			return err
		}
		done := make(map[int]bool, len(rows))
		for _, p := range rows {
			done[p.StepNumber] = p.Completed || p.Skipped
		}
		locked.CompletionPercentage, locked.CurrentStep = completion(done, locked.TotalSteps)
		locked.UpdatedAt = now
		if err := r.Sessions.Update(ctx, locked); err != nil {
			return err
		}
		sess = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp, err := uc.toResponseWith(sess, rows)
	if err != nil {
		return nil, err
	}
	return &dto.SaveStepResponse{Session: *resp, Validation: res}, nil
}

// completion porcentaje de pasos completados o saltados y primer paso pendiente.
func completion(done map[int]bool, total int) (int, int) {
	if total <= 0 {
		total = entity.TotalOnboardingSteps
	}
	n, next := 0, 0
	for step := 1; step <= total; step++ {
		if done[step] {
			n++
		} else if next == 0 {
			next = step
		}
	}
	if next == 0 {
		next = total
	}
	return n * 100 / total, next
}

// Preview transforma los datos guardados sin persistir.
func (uc *UseCase) Preview(ctx context.Context, userID string) (*dto.TransformResult, error) {
	sess, err := uc.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	return uc.transformer.Transform(ctx, dto.WizardData(sess.FormData), transform.Options{
		Validate:      true,
		EnhanceWithAI: true,
		CacheKey:      sess.ID,
		Revision:      sess.UpdatedAt,
	})
}

// Complete ejecuta la transformación estricta y la guarda en una transacción.
func (uc *UseCase) Complete(ctx context.Context, userID string) (*dto.CompleteResponse, error) {
	sess, err := uc.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	result, err := uc.transformer.Transform(ctx, dto.WizardData(sess.FormData), transform.Options{
		Validate:      true,
		Strict:        true,
		EnhanceWithAI: true,
		CacheKey:      sess.ID,
		Revision:      sess.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}
	saved, err := uc.transformer.Save(ctx, result, userID, sess.ID)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("session_id", sess.ID).Str("organization_id", saved.OrganizationID).Msg("onboarding completado")
	return &dto.CompleteResponse{Result: result, Saved: saved}, nil
}

// ExpireStale marca como expiradas las sesiones vencidas.
func (uc *UseCase) ExpireStale(ctx context.Context) (int, error) {
	return uc.sessions.ExpireStale(ctx, uc.now())
}

// RunSweeper expira sesiones cada interval hasta que ctx se cancele.
func (uc *UseCase) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := uc.ExpireStale(ctx)
			if err != nil {
				uc.log.Error().Err(err).Msg("barrido de sesiones falló")
				continue
			}
			if n > 0 {
				uc.log.Info().Int("expired", n).Msg("sesiones de onboarding expiradas")
			}
		}
	}
}

func (uc *UseCase) toResponse(ctx context.Context, sess *entity.OnboardingSession) (*dto.SessionResponse, error) {
	rows, err := uc.progress.ListBySession(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	return uc.toResponseWith(sess, rows)
}

func (uc *UseCase) toResponseWith(sess *entity.OnboardingSession, rows []*entity.OnboardingProgress) (*dto.SessionResponse, error) {
	form := dto.WizardData(sess.FormData)
	if form == nil {
		form = dto.WizardData{}
	}
	resp := &dto.SessionResponse{
		ID:                   sess.ID,
		UserID:               sess.UserID,
		TotalSteps:           sess.TotalSteps,
		CurrentStep:          sess.CurrentStep,
		Status:               sess.Status,
		CompletionPercentage: sess.CompletionPercentage,
		FormData:             form,
		Progress:             make([]dto.StepProgressResponse, 0, len(rows)),
		CreatedAt:            sess.CreatedAt,
		UpdatedAt:            sess.UpdatedAt,
		ExpiresAt:            sess.ExpiresAt,
		CompletedAt:          sess.CompletedAt,
	}
	for _, r := range rows {
		sp := dto.StepProgressResponse{
			StepNumber:  r.StepNumber,
			StepName:    r.StepName,
			Completed:   r.Completed,
			Skipped:     r.Skipped,
			CompletedAt: r.CompletedAt,
		}
		if len(r.AIValidation) > 0 {
			var v dto.ValidationResult
			if err := json.Unmarshal(r.AIValidation, &v); err == nil {
				sp.Validation = &v
			}
		}
		resp.Progress = append(resp.Progress, sp)
	}
	return resp, nil
}
