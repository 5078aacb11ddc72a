package onboarding_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/okr-api/internal/application/onboarding"
	"github.com/jhoicas/okr-api/internal/application/ports"
	"github.com/jhoicas/okr-api/internal/application/transform"
	"github.com/jhoicas/okr-api/internal/application/validation"
	"github.com/jhoicas/okr-api/internal/domain"
	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/infrastructure/memory"
)

const userID = "u1"

func newUseCase(t *testing.T) (*onboarding.UseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repositories()
	now := time.Now()
	require.NoError(t, repos.Profiles.Create(context.Background(), &entity.Profile{
		ID: userID, Email: "ana@acme.co", RoleType: entity.RoleEmpleado, Status: entity.UserStatusActive,
		CreatedAt: now, UpdatedAt: now,
	}))
	svc := validation.NewService(validation.Config{}, nil, nil, nil, zerolog.Nop())
	pipe := transform.NewPipeline(transform.Config{}, svc, nil, nil, nil, store, nil, zerolog.Nop())
	return onboarding.NewUseCase(repos.Sessions, repos.Progress, store, svc, pipe, time.Hour, zerolog.Nop()), store
}

func TestStart_CreaYRetomaSesion(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	first, err := uc.Start(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.CurrentStep)
	assert.Equal(t, entity.SessionInProgress, first.Status)

	again, err := uc.Start(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "la sesión en curso se retoma")
}

func TestGet_SesionVencidaSeReportaExpirada(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()
	old := entity.NewOnboardingSession("s-old", userID, time.Now().Add(-3*time.Hour), time.Hour)
	require.NoError(t, store.Repositories().Sessions.Create(ctx, old))

	_, err := uc.Get(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)

	persisted, err := store.Repositories().Sessions.GetByID(ctx, "s-old")
	require.NoError(t, err)
	assert.Equal(t, entity.SessionExpired, persisted.Status, "la expiración se persiste")

	fresh, err := uc.Start(ctx, userID)
	require.NoError(t, err)
	assert.NotEqual(t, "s-old", fresh.ID, "tras expirar se crea una sesión nueva")
}

func TestSaveStep_ProgresoYSaltos(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()
	_, err := uc.Start(ctx, userID)
	require.NoError(t, err)

	resp, err := uc.SaveStep(ctx, userID, 1, map[string]any{"fullName": "Ana Gómez", "email": "ana@acme.co", "jobTitle": "CEO"}, false)
	require.NoError(t, err)
	assert.Equal(t, 20, resp.Session.CompletionPercentage)
	assert.Equal(t, 2, resp.Session.CurrentStep)
	assert.True(t, resp.Validation.IsValid)
	assert.Equal(t, "Ana Gómez", resp.Session.FormData["step_1"]["full_name"], "los datos se guardan normalizados")

	resp, err = uc.SaveStep(ctx, userID, 3, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 40, resp.Session.CompletionPercentage)
	assert.Equal(t, 2, resp.Session.CurrentStep, "el primer paso pendiente sigue siendo el 2")

	_, err = uc.SaveStep(ctx, userID, 2, nil, true)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "el paso 2 no se puede saltar")
}

func TestSaveStep_GuardadosConcurrentesNoPierdenPasos(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()
	started, err := uc.Start(ctx, userID)
	require.NoError(t, err)

	steps := map[int]map[string]any{
		1: {"full_name": "Ana Gómez", "email": "ana@acme.co", "job_title": "CEO"},
		2: {"company_name": "Acme", "industry": "Software", "company_size": "small", "employee_count": float64(20)},
		3: {"departments": []any{map[string]any{"name": "Ventas", "head_count": float64(5)}}},
		4: {"objectives": []any{map[string]any{"title": "Crecer ventas", "key_results": []any{
			map[string]any{"title": "20 clientes", "target_value": float64(20)},
		}}}},
		5: {"theme": "dark"},
	}
	var wg sync.WaitGroup
	errs := make(chan error, len(steps))
	for step, data := range steps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.SaveStep(ctx, userID, step, data, false)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	sess, err := store.Repositories().Sessions.GetByID(ctx, started.ID)
	require.NoError(t, err)
	for step := range steps {
		assert.Contains(t, sess.FormData, entity.StepKey(step), "paso %d", step)
	}
	assert.Equal(t, 100, sess.CompletionPercentage)
}

// beforeTx ejecuta hook justo antes de abrir cada transacción.
type beforeTx struct {
	store *memory.Store
	hook  func()
}

func (b beforeTx) WithinTx(ctx context.Context, fn func(ports.Repositories) error) error {
	b.hook()
	return b.store.WithinTx(ctx, fn)
}

func TestSaveStep_SesionCompletadaAntesDeGuardar(t *testing.T) {
	_, store := newUseCase(t)
	ctx := context.Background()
	repos := store.Repositories()
	sess := entity.NewOnboardingSession("s1", userID, time.Now(), time.Hour)
	require.NoError(t, repos.Sessions.Create(ctx, sess))

	tx := beforeTx{store: store, hook: func() {
		done, err := repos.Sessions.GetByID(ctx, "s1")
		require.NoError(t, err)
		done.Complete(time.Now())
		require.NoError(t, repos.Sessions.Update(ctx, done))
	}}
	svc := validation.NewService(validation.Config{}, nil, nil, nil, zerolog.Nop())
	uc := onboarding.NewUseCase(repos.Sessions, repos.Progress, tx, svc, nil, time.Hour, zerolog.Nop())

	_, err := uc.SaveStep(ctx, userID, 5, nil, true)
	assert.ErrorIs(t, err, domain.ErrSessionCompleted)

	rows, err := repos.Progress.ListBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, rows, "no se guarda progreso sobre una sesión ya completada")
}

func TestSaveStep_DatosInvalidosDevuelvenResultado(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()
	_, err := uc.Start(ctx, userID)
	require.NoError(t, err)

	_, err = uc.SaveStep(ctx, userID, 2, map[string]any{"company_size": "gigante"}, false)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	var re *validation.ResultError
	require.True(t, errors.As(err, &re))
	assert.NotEmpty(t, re.Result.Errors)
}

func TestComplete_FlujoCompleto(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()
	_, err := uc.Start(ctx, userID)
	require.NoError(t, err)

	_, err = uc.Complete(ctx, userID)
	require.ErrorIs(t, err, domain.ErrStrictValidation, "sin pasos obligatorios no se completa")

	steps := map[int]map[string]any{
		1: {"full_name": "Ana Gómez", "email": "ana@acme.co", "job_title": "CEO"},
		2: {"company_name": "Acme", "industry": "Software", "company_size": "small", "employee_count": float64(20)},
		4: {"objectives": []any{map[string]any{"title": "Crecer ventas", "key_results": []any{
			map[string]any{"title": "20 clientes", "target_value": float64(20)},
		}}}},
	}
	for step, data := range steps {
		_, err := uc.SaveStep(ctx, userID, step, data, false)
		require.NoError(t, err, "paso %d", step)
	}

	preview, err := uc.Preview(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", preview.Organization.Name)

	done, err := uc.Complete(ctx, userID)
	require.NoError(t, err)
	assert.NotEmpty(t, done.Saved.OrganizationID)

	sess, err := uc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, entity.SessionCompleted, sess.Status)
	assert.Equal(t, 100, sess.CompletionPercentage)

	_, err = uc.Complete(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrSessionCompleted)

	p, err := store.Repositories().Profiles.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, done.Saved.OrganizationID, p.CompanyID)
}

func TestExpireStale(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()
	require.NoError(t, store.Repositories().Sessions.Create(ctx,
		entity.NewOnboardingSession("s-old", "otro", time.Now().Add(-3*time.Hour), time.Hour)))

	n, err := uc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
