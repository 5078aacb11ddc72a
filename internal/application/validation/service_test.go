package validation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/application/validation"
	"github.com/jhoicas/okr-api/internal/domain"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de test
// ──────────────────────────────────────────────────────────────────────────────

type mapCache struct {
	mu   sync.Mutex
	data map[string]any
}

func newMapCache() *mapCache { return &mapCache{data: map[string]any{}} }

func (c *mapCache) Get(k string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[k]
	return v, ok
}

func (c *mapCache) Set(k string, v any, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[k] = v
}

func (c *mapCache) Delete(k string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, k)
}

type fakeAssistant struct {
	mu    sync.Mutex
	calls int
	reply string
	err   error
}

func (f *fakeAssistant) Suggest(_ context.Context, text, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.reply == "" {
		return text + " (mejorado)", nil
	}
	return f.reply, nil
}

func newService(cache *mapCache, ai *fakeAssistant) *validation.Service {
	cfg := validation.Config{AIEnabled: ai != nil, AITimeout: time.Second}
	var c interface {
		Get(string) (any, bool)
		Set(string, any, time.Duration)
		Delete(string)
	}
	if cache != nil {
		c = cache
	}
	if ai == nil {
		return validation.NewService(cfg, c, nil, nil, zerolog.Nop())
	}
	return validation.NewService(cfg, c, ai, nil, zerolog.Nop())
}

func validSteps() map[int]map[string]any {
	return map[int]map[string]any{
		1: {"full_name": "Ana Gómez", "email": "ana@acme.co", "job_title": "CEO"},
		2: {"company_name": "Acme", "industry": "Software", "company_size": "small", "employee_count": float64(40), "website": "https://acme.co"},
		3: {},
		4: {"objectives": []any{
			map[string]any{"title": "Crecer ventas", "key_results": []any{
				map[string]any{"title": "Cerrar 20 clientes", "target_value": float64(20), "current_value": float64(2)},
			}},
		}},
		5: {},
	}
}

func codes(issues []dto.ValidationIssue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Code)
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// ValidateStep
// ──────────────────────────────────────────────────────────────────────────────

func TestValidateStep_TodosLosPasosValidos(t *testing.T) {
	svc := newService(nil, nil)
	for step, data := range validSteps() {
		res, err := svc.ValidateStep(context.Background(), step, data)
		require.NoError(t, err)
		assert.True(t, res.IsValid, "paso %d debe ser válido: %+v", step, res.Errors)
		assert.Empty(t, res.Errors, "paso %d no debe tener errores", step)
	}
}

func TestValidateStep_PasoFueraDeRango(t *testing.T) {
	svc := newService(nil, nil)
	_, err := svc.ValidateStep(context.Background(), 6, map[string]any{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestValidateStep_CamposRequeridos(t *testing.T) {
	svc := newService(nil, nil)
	res, err := svc.ValidateStep(context.Background(), 1, map[string]any{"email": "no-es-email"})
	require.NoError(t, err)

	assert.False(t, res.IsValid)
	byField := map[string]string{}
	for _, is := range res.Errors {
		byField[is.Field] = is.Code
	}
	assert.Equal(t, "REQUIRED", byField["full_name"])
	assert.Equal(t, "REQUIRED", byField["job_title"])
	assert.Equal(t, "INVALID_EMAIL", byField["email"])
}

func TestValidateStep_TipoInvalidoNoOcultaErroresDeHermanos(t *testing.T) {
	svc := newService(nil, nil)
	res, err := svc.ValidateStep(context.Background(), 4, map[string]any{
		"objectives": []any{map[string]any{"title": "Crecer ventas", "key_results": []any{
			map[string]any{"title": "Cerrar 20 clientes", "target_value": float64(20)},
			map[string]any{"title": "Abrir 3 mercados", "target_value": "abc"},
			map[string]any{"title": "Subir NPS a 60"},
		}}},
	})
	require.NoError(t, err)

	assert.False(t, res.IsValid)
	byField := map[string][]string{}
	for _, is := range res.Errors {
		byField[is.Field] = append(byField[is.Field], is.Code)
	}
	assert.Equal(t, []string{"INVALID_TYPE"}, byField["objectives[0].key_results[1].target_value"])
	assert.Equal(t, []string{"REQUIRED"}, byField["objectives[0].key_results[2].target_value"])
	assert.NotContains(t, byField, "objectives[0].key_results[0].target_value")
}

func TestValidateStep_SizeMismatchEsAdvertencia(t *testing.T) {
	svc := newService(nil, nil)
	res, err := svc.ValidateStep(context.Background(), 2, map[string]any{
		"company_name":  "Acme",
		"industry":      "Software",
		"company_size":  "startup",
		"employeeCount": float64(500), // camelCase normalizado a employee_count
		"website":       "acme.co",
	})
	require.NoError(t, err)

	assert.True(t, res.IsValid, "SIZE_MISMATCH no es un error")
	assert.Contains(t, codes(res.Warnings), "SIZE_MISMATCH")
	assert.NotContains(t, codes(res.Errors), "SIZE_MISMATCH")
}

func TestValidateStep_TipoInvalido(t *testing.T) {
	svc := newService(nil, nil)
	res, err := svc.ValidateStep(context.Background(), 2, map[string]any{
		"company_name":   "Acme",
		"industry":       "Software",
		"company_size":   "small",
		"employee_count": "muchos",
	})
	require.NoError(t, err)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "INVALID_TYPE", res.Errors[0].Code)
	assert.Equal(t, "employee_count", res.Errors[0].Field)
}

func TestValidateStep_ReglasDeNegocio(t *testing.T) {
	svc := newService(nil, nil)
	ctx := context.Background()

	res, err := svc.ValidateStep(ctx, 1, map[string]any{"full_name": "Ana", "email": "ana@mailinator.com", "job_title": "CTO"})
	require.NoError(t, err)
	assert.Contains(t, codes(res.Warnings), "DISPOSABLE_EMAIL")

	res, err = svc.ValidateStep(ctx, 1, map[string]any{"full_name": "Ana", "email": "ana@gmail.com", "job_title": "CTO"})
	require.NoError(t, err)
	assert.Contains(t, codes(res.Suggestions), "PERSONAL_EMAIL")

	res, err = svc.ValidateStep(ctx, 3, map[string]any{"departments": []any{
		map[string]any{"name": "Ventas", "head_count": float64(0)},
		map[string]any{"name": "ventas", "head_count": float64(3)},
	}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"HEADCOUNT_ZERO", "DUPLICATE_DEPARTMENT"}, codes(res.Warnings))

	objectives := make([]any, 0, 6)
	for i := 0; i < 6; i++ {
		objectives = append(objectives, map[string]any{"title": "Objetivo repetido"})
	}
	res, err = svc.ValidateStep(ctx, 4, map[string]any{"objectives": objectives})
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.Contains(t, codes(res.Warnings), "TOO_MANY_OBJECTIVES")
	assert.Contains(t, codes(res.Warnings), "MISSING_KEY_RESULTS")
	assert.Contains(t, codes(res.Warnings), "DUPLICATE_OBJECTIVE")

	res, err = svc.ValidateStep(ctx, 5, map[string]any{"email_notifications": true, "notification_frequency": "never"})
	require.NoError(t, err)
	assert.Equal(t, []string{"NOTIFICATIONS_CONFLICT"}, codes(res.Warnings))
}

func TestValidateStep_MetaYaAlcanzada(t *testing.T) {
	svc := newService(nil, nil)
	res, err := svc.ValidateStep(context.Background(), 4, map[string]any{"objectives": []any{
		map[string]any{"title": "Reducir churn", "keyResults": []any{
			map[string]any{"title": "NPS 50", "targetValue": float64(50), "currentValue": float64(60)},
		}},
	}})
	require.NoError(t, err)
	require.True(t, res.IsValid)
	assert.Equal(t, []string{"TARGET_ALREADY_MET"}, codes(res.Warnings))
	assert.Equal(t, "objectives[0].key_results[0].current_value", res.Warnings[0].Field)
}

// ──────────────────────────────────────────────────────────────────────────────
// Caché e IA
// ──────────────────────────────────────────────────────────────────────────────

func TestValidateStep_AciertoDeCacheOmiteIA(t *testing.T) {
	cache := newMapCache()
	ai := &fakeAssistant{}
	svc := newService(cache, ai)
	data := map[string]any{"company_name": "Acme", "industry": "Software", "company_size": "small", "description": "Hacemos software"}

	first, err := svc.ValidateStep(context.Background(), 2, data)
	require.NoError(t, err)
	require.Equal(t, 1, ai.calls)
	assert.Contains(t, codes(first.Suggestions), "AI_SUGGESTION")

	second, err := svc.ValidateStep(context.Background(), 2, data)
	require.NoError(t, err)
	assert.Equal(t, 1, ai.calls, "el acierto de caché no debe llamar a la IA")
	assert.Equal(t, first, second)
}

func TestValidateStep_FalloIADegrada(t *testing.T) {
	cache := newMapCache()
	ai := &fakeAssistant{err: errors.New("timeout")}
	svc := newService(cache, ai)
	data := map[string]any{"company_name": "Acme", "industry": "Software", "company_size": "startup",
		"employee_count": float64(900), "description": "Hacemos software"}

	res, err := svc.ValidateStep(context.Background(), 2, data)
	require.NoError(t, err, "un fallo de IA no es un error de validación")
	assert.True(t, res.IsValid)
	assert.Contains(t, codes(res.Warnings), "SIZE_MISMATCH", "se conservan las reglas de negocio")
	assert.NotContains(t, codes(res.Suggestions), "AI_SUGGESTION")
	assert.Empty(t, cache.data, "un resultado degradado no se guarda en caché")
}

// ──────────────────────────────────────────────────────────────────────────────
// Campo, todos los pasos y entre pasos
// ──────────────────────────────────────────────────────────────────────────────

func TestValidateField_SoloReportaElCampo(t *testing.T) {
	svc := newService(nil, nil)
	res, err := svc.ValidateField(context.Background(), 2, "employeeCount", float64(800),
		map[string]any{"company_size": "small"})
	require.NoError(t, err)

	assert.True(t, res.IsValid, "los requeridos de otros campos no se reportan")
	assert.Equal(t, []string{"SIZE_MISMATCH"}, codes(res.Warnings))

	res, err = svc.ValidateField(context.Background(), 1, "email", "mal", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"INVALID_EMAIL"}, codes(res.Errors))
}

func TestValidateField_CampoDesconocido(t *testing.T) {
	svc := newService(nil, nil)
	_, err := svc.ValidateField(context.Background(), 1, "salario", 10, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestValidateAll_PasosObligatoriosYEntrePasos(t *testing.T) {
	svc := newService(nil, nil)
	steps := validSteps()
	form := dto.WizardData{
		"step_1": {"full_name": "Ana", "email": "ana@otra.com", "job_title": "CEO"},
		"step_2": steps[2],
		"step_3": {"departments": []any{map[string]any{"name": "Ventas", "head_count": float64(60)}}},
	}

	res, err := svc.ValidateAll(context.Background(), form)
	require.NoError(t, err)

	assert.False(t, res.IsValid)
	assert.Equal(t, []string{"MISSING_STEP"}, codes(res.Errors))
	assert.Equal(t, "step_4", res.Errors[0].Field)
	assert.Contains(t, codes(res.Warnings), "DOMAIN_MISMATCH")
	assert.Contains(t, codes(res.Warnings), "HEADCOUNT_EXCEEDS")
}

func TestValidateCrossStep_CorreoPersonalNoSeCompara(t *testing.T) {
	svc := newService(nil, nil)
	res := svc.ValidateCrossStep(dto.WizardData{
		"step_1": {"email": "ana@gmail.com"},
		"step_2": {"website": "acme.co"},
	})
	assert.Empty(t, res.Warnings)
	assert.True(t, res.IsValid)
}
