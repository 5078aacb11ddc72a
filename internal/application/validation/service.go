// Package validation implementa el servicio de validación del asistente de onboarding:
// esquema por paso, reglas de negocio, sugerencias de IA y caché de resultados.
package validation

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/application/ports"
	"github.com/jhoicas/okr-api/internal/domain"
	"github.com/jhoicas/okr-api/internal/domain/entity"
)

const (
	defaultCacheTTL         = 5 * time.Minute
	defaultAITimeout        = 5 * time.Second
	defaultMaxAISuggestions = 5
)

// Config parámetros del servicio.
type Config struct {
	AIEnabled        bool          // FEATURE_AI_VALIDATION
	AITimeout        time.Duration // por llamada al asistente
	CacheTTL         time.Duration
	MaxAISuggestions int // campos enviados al asistente por validación
}

// Service valida los pasos del asistente.
type Service struct {
	cfg       Config
	validate  *validator.Validate
	cache     ports.Cache
	assistant ports.Assistant
	metrics   ports.Metrics
	log       zerolog.Logger
}

// NewService construye el servicio. cache y assistant pueden ser nil.
func NewService(cfg Config, cache ports.Cache, assistant ports.Assistant, metrics ports.Metrics, log zerolog.Logger) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = defaultAITimeout
	}
	if cfg.MaxAISuggestions <= 0 {
		cfg.MaxAISuggestions = defaultMaxAISuggestions
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Service{
		cfg:       cfg,
		validate:  NewValidator(),
		cache:     cache,
		assistant: assistant,
		metrics:   metrics,
		log:       log,
	}
}

// Validator instancia compartida para validar DTOs de entrada.
func (s *Service) Validator() *validator.Validate { return s.validate }

// ValidateStep valida los datos de un paso (1–5).
// Un acierto de caché devuelve el resultado guardado sin repetir esquema, reglas ni IA.
func (s *Service) ValidateStep(ctx context.Context, step int, data map[string]any) (*dto.ValidationResult, error) {
	if schemaFor(step) == nil {
		return nil, fmt.Errorf("%w: paso %d fuera de rango", domain.ErrInvalidInput, step)
	}
	norm := NormalizeKeys(data)
	key, err := cacheKey(step, norm)
	if err != nil {
		return nil, fmt.Errorf("%w: datos no serializables: %v", domain.ErrInvalidInput, err)
	}
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if cached, ok := v.(*dto.ValidationResult); ok {
				s.metrics.ValidationCompleted(step, cached.IsValid, true)
				return cloneResult(cached, 0), nil
			}
		}
	}

	res, schema, err := s.checkStep(step, norm)
	if err != nil {
		return nil, err
	}
	aiOK := true
	if s.cfg.AIEnabled && s.assistant != nil {
		aiOK = s.addAISuggestions(ctx, step, schema, res)
	}
	// un resultado degradado no se guarda para que el asistente vuelva a intentarse
	if s.cache != nil && aiOK {
		s.cache.Set(key, cloneResult(res, 0), s.cfg.CacheTTL)
	}
	s.metrics.ValidationCompleted(step, res.IsValid, false)
	return res, nil
}

// checkStep decodifica, aplica el esquema y las reglas de negocio.
func (s *Service) checkStep(step int, data map[string]any) (*dto.ValidationResult, any, error) {
	schema := schemaFor(step)
	res := dto.NewValidationResult()
	mismatches, err := decode(data, schema)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	badType := make([]string, 0, len(mismatches))
	for _, m := range mismatches {
		badType = append(badType, m.Field)
		res.Add(dto.ValidationIssue{
			Field:    m.Field,
			Code:     "INVALID_TYPE",
			Message:  fmt.Sprintf("Tipo inválido: se esperaba %s y llegó %s", m.Expected, m.Got),
			Severity: dto.SeverityError,
		})
	}
	for _, is := range Issues(s.validate.Struct(schema)) {
		if slices.ContainsFunc(badType, func(f string) bool { return belongsTo(is.Field, f) }) {
			continue
		}
		res.Add(is)
	}
	res.Add(businessRules(schema)...)
	return res, schema, nil
}

type aiField struct {
	field, text, hint string
}

func aiFields(schema any) []aiField {
	var out []aiField
	switch s := schema.(type) {
	case *CompanyInfo:
		if strings.TrimSpace(s.Description) != "" {
			out = append(out, aiField{"description", s.Description, "descripción de la empresa"})
		}
	case *OKRSetup:
		for i, o := range s.Objectives {
			switch {
			case strings.TrimSpace(o.Description) != "":
				out = append(out, aiField{fmt.Sprintf("objectives[%d].description", i), o.Description, "descripción de objetivo OKR"})
			case strings.TrimSpace(o.Title) != "":
				out = append(out, aiField{fmt.Sprintf("objectives[%d].title", i), o.Title, "título de objetivo OKR"})
			}
		}
	}
	return out
}

// addAISuggestions pide sugerencias de texto libre. Ante cualquier fallo descarta
// todas las sugerencias de IA y devuelve false; no hay reintentos.
func (s *Service) addAISuggestions(ctx context.Context, step int, schema any, res *dto.ValidationResult) bool {
	fields := aiFields(schema)
	if len(fields) > s.cfg.MaxAISuggestions {
		fields = fields[:s.cfg.MaxAISuggestions]
	}
	var out []dto.ValidationIssue
	for _, f := range fields {
		text, err := s.suggest(ctx, f.text, f.hint)
		if err != nil {
			s.log.Warn().Err(err).Int("step", step).Str("field", f.field).
				Msg("validación IA no disponible, se devuelven solo esquema y reglas")
			s.metrics.AIRequestFailed("validation")
			return false
		}
		text = strings.TrimSpace(text)
		if text == "" || text == strings.TrimSpace(f.text) {
			continue
		}
		out = append(out, dto.ValidationIssue{
			Field:      f.field,
			Code:       "AI_SUGGESTION",
			Message:    "Sugerencia del asistente",
			Severity:   dto.SeveritySuggestion,
			Suggestion: text,
		})
	}
	res.Add(out...)
	return true
}

func (s *Service) suggest(ctx context.Context, text, hint string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.AITimeout)
	defer cancel()
	return s.assistant.Suggest(ctx, text, hint)
}

// ValidateField valida un campo de primer nivel para feedback en vivo.
// stepData aporta el resto del paso a las reglas que cruzan campos; solo se reportan
// hallazgos del campo pedido.
func (s *Service) ValidateField(ctx context.Context, step int, field string, value any, stepData map[string]any) (*dto.ValidationResult, error) {
	names := fieldNames(step)
	if names == nil {
		return nil, fmt.Errorf("%w: paso %d fuera de rango", domain.ErrInvalidInput, step)
	}
	name := SnakeCase(strings.TrimSpace(field))
	if _, ok := names[name]; !ok {
		return nil, fmt.Errorf("%w: campo %q desconocido en el paso %d", domain.ErrInvalidInput, field, step)
	}
	data := NormalizeKeys(stepData)
	data[name] = normalizeValue(value)

	res, _, err := s.checkStep(step, data)
	if err != nil {
		return nil, err
	}
	out := dto.NewValidationResult()
	for _, group := range [][]dto.ValidationIssue{res.Errors, res.Warnings, res.Suggestions} {
		for _, is := range group {
			if belongsTo(is.Field, name) {
				out.Add(is)
			}
		}
	}
	s.metrics.ValidationCompleted(step, out.IsValid, false)
	return out, nil
}

// requiredSteps pasos obligatorios para completar el onboarding.
var requiredSteps = []int{1, 2, 4}

// ValidateAll valida todos los pasos presentes, exige los obligatorios y aplica
// las heurísticas entre pasos.
func (s *Service) ValidateAll(ctx context.Context, form dto.WizardData) (*dto.ValidationResult, error) {
	res := dto.NewValidationResult()
	for step := 1; step <= entity.TotalOnboardingSteps; step++ {
		data := form.Step(step)
		if data == nil {
			if isRequired(step) {
				res.Add(dto.ValidationIssue{
					Field:    entity.StepKey(step),
					Code:     "MISSING_STEP",
					Message:  fmt.Sprintf("Falta el paso %d (%s)", step, entity.StepName(step)),
					Severity: dto.SeverityError,
					Step:     step,
				})
			}
			continue
		}
		r, err := s.ValidateStep(ctx, step, data)
		if err != nil {
			return nil, err
		}
		res.Merge(cloneResult(r, step))
	}
	res.Merge(s.ValidateCrossStep(form))
	return res, nil
}

// ValidateCrossStep heurísticas de consistencia entre pasos ya enviados.
func (s *Service) ValidateCrossStep(form dto.WizardData) *dto.ValidationResult {
	res := dto.NewValidationResult()
	var (
		personal  PersonalInfo
		company   CompanyInfo
		structure OrganizationStructure
	)
	_, _ = decode(NormalizeKeys(form.Step(1)), &personal)
	_, _ = decode(NormalizeKeys(form.Step(2)), &company)
	_, _ = decode(NormalizeKeys(form.Step(3)), &structure)

	if d := EmailDomain(personal.Email); d != "" && !IsFreeMail(personal.Email) {
		if host := URLHost(company.Website); host != "" && !sameDomain(d, host) {
			res.Add(dto.ValidationIssue{
				Field:    "email",
				Code:     "DOMAIN_MISMATCH",
				Message:  fmt.Sprintf("El dominio del email (%s) no coincide con el sitio web (%s)", d, host),
				Severity: dto.SeverityWarning,
				Step:     1,
			})
		}
	}
	if company.EmployeeCount != nil && *company.EmployeeCount > 0 && len(structure.Departments) > 0 {
		sum := 0
		for _, d := range structure.Departments {
			sum += d.HeadCount
		}
		if sum > *company.EmployeeCount {
			res.Add(dto.ValidationIssue{
				Field:    "departments",
				Code:     "HEADCOUNT_EXCEEDS",
				Message:  fmt.Sprintf("Los departamentos suman %d personas y la empresa declara %d", sum, *company.EmployeeCount),
				Severity: dto.SeverityWarning,
				Step:     3,
			})
		}
	}
	return res
}

func isRequired(step int) bool {
	for _, r := range requiredSteps {
		if r == step {
			return true
		}
	}
	return false
}

func sameDomain(a, b string) bool {
	return a == b || strings.HasSuffix(a, "."+b) || strings.HasSuffix(b, "."+a)
}

func belongsTo(issueField, name string) bool {
	return issueField == name || strings.HasPrefix(issueField, name+".") || strings.HasPrefix(issueField, name+"[")
}

// cloneResult copia el resultado; step > 0 lo asigna a cada hallazgo.
func cloneResult(r *dto.ValidationResult, step int) *dto.ValidationResult {
	cp := dto.NewValidationResult()
	for _, group := range [][]dto.ValidationIssue{r.Errors, r.Warnings, r.Suggestions} {
		for _, is := range group {
			if step > 0 {
				is.Step = step
			}
			cp.Add(is)
		}
	}
	return cp
}
