// Package transform convierte los datos crudos del asistente en las entidades
// normalizadas (perfil, organización, objetivos, resultados clave) y las persiste.
package transform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/application/ports"
	"github.com/jhoicas/okr-api/internal/application/validation"
	"github.com/jhoicas/okr-api/internal/domain"
	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/domain/repository"
)

const (
	resultVersion    = "1"
	defaultCacheTTL  = 5 * time.Minute
	defaultAITimeout = 5 * time.Second
)

// Validator subconjunto del servicio de validación que usa el pipeline.
type Validator interface {
	ValidateAll(ctx context.Context, form dto.WizardData) (*dto.ValidationResult, error)
}

// Options controla cada ejecución de Transform.
type Options struct {
	Validate      bool   // validar todo el formulario antes de mapear
	Strict        bool   // con Validate: abortar si hay errores
	EnhanceWithAI bool   // pedir mejoras de texto al asistente (requiere FEATURE_AI_ENHANCEMENT)
	CacheKey      string // normalmente el ID de sesión; vacío = no cachear
	// Revision última escritura de los datos (UpdatedAt de la sesión). Con CacheKey y
	// sin Strict, un resultado cacheado de la misma revisión y opciones se reutiliza.
	Revision time.Time
}

// cachedResult resultado guardado en caché junto con lo que lo produjo.
type cachedResult struct {
	revision time.Time
	validate bool
	enhance  bool
	result   *dto.TransformResult
}

// Config parámetros del pipeline.
type Config struct {
	AIEnhancement bool
	AITimeout     time.Duration
	CacheTTL      time.Duration
}

// Pipeline transforma y guarda los datos del asistente.
type Pipeline struct {
	cfg       Config
	validator Validator
	assistant ports.Assistant
	cache     ports.Cache
	events    ports.EventPublisher
	tx        ports.TxRunner
	metrics   ports.Metrics
	log       zerolog.Logger
	now       func() time.Time
}

// NewPipeline construye el pipeline. validator, assistant, cache y events pueden ser nil.
func NewPipeline(
	cfg Config,
	v Validator,
	assistant ports.Assistant,
	cache ports.Cache,
	events ports.EventPublisher,
	tx ports.TxRunner,
	metrics ports.Metrics,
	log zerolog.Logger,
) *Pipeline {
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = defaultAITimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Pipeline{
		cfg:       cfg,
		validator: v,
		assistant: assistant,
		cache:     cache,
		events:    events,
		tx:        tx,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
}

// CacheKey clave del resultado transformado de una sesión.
func CacheKey(sessionID string) string { return "transform:" + sessionID }

// Transform ejecuta validación opcional, mapeo, mejora con IA opcional,
// limpieza y recomendaciones. Con datos vacíos devuelve un resultado con valores por defecto.
func (p *Pipeline) Transform(ctx context.Context, form dto.WizardData, opts Options) (*dto.TransformResult, error) {
	if hit := p.cached(opts); hit != nil {
		p.log.Debug().Str("cache_key", opts.CacheKey).Msg("transformación servida desde caché")
		return hit, nil
	}
	warnings := []dto.ValidationIssue{}
	validated := false
	if opts.Validate && p.validator != nil {
		res, err := p.validator.ValidateAll(ctx, form)
		if err != nil {
			return nil, fmt.Errorf("transform: validar: %w", err)
		}
		validated = true
		if !res.IsValid && opts.Strict {
			return nil, &validation.ResultError{Result: res, Cause: domain.ErrStrictValidation}
		}
		warnings = append(warnings, res.Errors...)
		warnings = append(warnings, res.Warnings...)
	}

	now := p.now()
	profile := mapProfile(form)
	objectives, keyResults := mapOKRs(form, now)
	result := &dto.TransformResult{
		UserProfile:   profile,
		Organization:  mapOrganization(form),
		Objectives:    objectives,
		KeyResults:    keyResults,
		TeamStructure: mapTeam(form),
		Preferences:   mapPreferences(form, profile),
		Warnings:      warnings,
		Metadata: dto.TransformMetadata{
			ProcessedAt: now,
			Validated:   validated,
			Version:     resultVersion,
		},
	}
	result.Organization.Insights = buildInsights(result)

	if opts.EnhanceWithAI && p.cfg.AIEnhancement && p.assistant != nil {
		result.Metadata.AIEnhanced = p.enhance(ctx, result)
	}

	postProcess(result)
	result.Recommendations = recommendations(result)
	result.NextSteps = nextSteps(result)

	if p.cache != nil && opts.CacheKey != "" {
		p.cache.Set(CacheKey(opts.CacheKey), cachedResult{
			revision: opts.Revision,
			validate: opts.Validate,
			enhance:  opts.EnhanceWithAI,
			result:   cloneTransformResult(result),
		}, p.cfg.CacheTTL)
	}
	p.publish(ctx, ports.EventOnboardingTransformed, map[string]any{
		"cacheKey":   opts.CacheKey,
		"objectives": len(result.Objectives),
		"keyResults": len(result.KeyResults),
		"aiEnhanced": result.Metadata.AIEnhanced,
		"warnings":   len(result.Warnings),
	})
	return result, nil
}

// cached copia del resultado cacheado para opts, o nil. Strict siempre recalcula:
// necesita el resultado de la validación, que no se guarda.
func (p *Pipeline) cached(opts Options) *dto.TransformResult {
	if p.cache == nil || opts.CacheKey == "" || opts.Strict || opts.Revision.IsZero() {
		return nil
	}
	v, ok := p.cache.Get(CacheKey(opts.CacheKey))
	if !ok {
		return nil
	}
	entry, ok := v.(cachedResult)
	if !ok || !entry.revision.Equal(opts.Revision) ||
		entry.validate != opts.Validate || entry.enhance != opts.EnhanceWithAI {
		return nil
	}
	return cloneTransformResult(entry.result)
}

func cloneTransformResult(r *dto.TransformResult) *dto.TransformResult {
	c := *r
	c.Objectives = slices.Clone(r.Objectives)
	c.KeyResults = slices.Clone(r.KeyResults)
	for i, kr := range c.KeyResults {
		if kr.DueDate != nil {
			d := *kr.DueDate
			c.KeyResults[i].DueDate = &d
		}
	}
	c.TeamStructure.Departments = slices.Clone(r.TeamStructure.Departments)
	c.TeamStructure.CollaborationTools = slices.Clone(r.TeamStructure.CollaborationTools)
	c.Recommendations = slices.Clone(r.Recommendations)
	c.NextSteps = slices.Clone(r.NextSteps)
	c.Warnings = slices.Clone(r.Warnings)
	return &c
}

// enhance reescribe insights y descripciones de objetivos. El texto de la IA solo
// se aplica si es más largo que el original. Ante el primer fallo se abandona la mejora.
func (p *Pipeline) enhance(ctx context.Context, r *dto.TransformResult) bool {
	applied := false
	improve := func(text, hint string) (string, bool) {
		cctx, cancel := context.WithTimeout(ctx, p.cfg.AITimeout)
		defer cancel()
		out, err := p.assistant.Suggest(cctx, text, hint)
		if err != nil {
			p.log.Warn().Err(err).Str("hint", hint).Msg("mejora IA omitida")
			p.metrics.AIRequestFailed("enhancement")
			return "", false
		}
		if runeLen(strings.TrimSpace(out)) > runeLen(strings.TrimSpace(text)) {
			applied = true
			return out, true
		}
		return text, true
	}

	text, ok := improve(r.Organization.Insights, "insights de la organización")
	if !ok {
		return applied
	}
	r.Organization.Insights = text
	for i := range r.Objectives {
		base := r.Objectives[i].Description
		if strings.TrimSpace(base) == "" {
			base = r.Objectives[i].Title
		}
		text, ok := improve(base, "descripción de objetivo OKR")
		if !ok {
			return applied
		}
		if text != base {
			r.Objectives[i].Description = text
		}
	}
	return applied
}

// Save persiste el resultado en una única transacción: organización (buscada por slug
// o creada), membresía org_owner, objetivos, resultados clave, perfil y cierre de la sesión.
// Si algo falla no queda ninguna escritura.
func (p *Pipeline) Save(ctx context.Context, result *dto.TransformResult, userID, sessionID string) (*dto.SaveResult, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: resultado vacío", domain.ErrInvalidInput)
	}
	if p.tx == nil {
		return nil, errors.New("transform: sin TxRunner configurado")
	}
	now := p.now()
	out := &dto.SaveResult{SessionID: sessionID, CompletedAt: now, ObjectiveIDs: []string{}, KeyResultIDs: []string{}}

	err := p.tx.WithinTx(ctx, func(r ports.Repositories) error {
		sess, err := r.Sessions.GetByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if sess == nil {
			return domain.ErrNotFound
		}
		if sess.UserID != userID {
			return domain.ErrForbidden
		}
		if sess.Status == entity.SessionCompleted {
			return domain.ErrSessionCompleted
		}

		org, created, err := p.resolveOrganization(ctx, r.Organizations, result, userID, now)
		if err != nil {
			return err
		}
		out.OrganizationID, out.OrganizationCreated = org.ID, created

		if err := r.Organizations.AddMember(ctx, &entity.OrganizationMember{
			OrganizationID: org.ID,
			UserID:         userID,
			Role:           entity.MemberOwner,
			JoinedAt:       now,
		}); err != nil {
			return fmt.Errorf("agregar propietario: %w", err)
		}

		ids := make(map[string]string, len(result.Objectives))
		for _, o := range result.Objectives {
			obj := &entity.Objective{
				ID:             uuid.New().String(),
				OrganizationID: org.ID,
				OwnerID:        userID,
				Title:          o.Title,
				Description:    o.Description,
				Category:       o.Category,
				Priority:       o.Priority,
				Timeframe:      o.Timeframe,
				Status:         entity.OKRStatusActive,
				StartDate:      o.StartDate,
				EndDate:        o.EndDate,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := r.OKRs.CreateObjective(ctx, obj); err != nil {
				return fmt.Errorf("crear objetivo: %w", err)
			}
			ids[o.TempID] = obj.ID
			out.ObjectiveIDs = append(out.ObjectiveIDs, obj.ID)
		}
		for _, k := range result.KeyResults {
			objID, ok := ids[k.ObjectiveTempID]
			if !ok {
				continue
			}
			kr := &entity.KeyResult{
				ID:           uuid.New().String(),
				ObjectiveID:  objID,
				Title:        k.Title,
				TargetValue:  k.TargetValue,
				CurrentValue: k.CurrentValue,
				Unit:         k.Unit,
				DueDate:      k.DueDate,
				Status:       entity.OKRStatusActive,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := r.OKRs.CreateKeyResult(ctx, kr); err != nil {
				return fmt.Errorf("crear resultado clave: %w", err)
			}
			out.KeyResultIDs = append(out.KeyResultIDs, kr.ID)
		}

		profile, err := r.Profiles.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if profile == nil {
			return domain.ErrUserNotFound
		}
		applyProfile(profile, result, org.ID, now)
		if err := r.Profiles.Update(ctx, profile); err != nil {
			return fmt.Errorf("actualizar perfil: %w", err)
		}

		sess.Complete(now)
		if err := r.Sessions.Update(ctx, sess); err != nil {
			return fmt.Errorf("completar sesión: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("transform: guardar onboarding: %w", err)
	}

	if p.cache != nil {
		p.cache.Delete(CacheKey(sessionID))
	}
	p.metrics.OnboardingCompleted()
	p.publish(ctx, ports.EventOnboardingCompleted, map[string]any{
		"sessionId":      sessionID,
		"userId":         userID,
		"organizationId": out.OrganizationID,
		"created":        out.OrganizationCreated,
		"objectives":     len(out.ObjectiveIDs),
		"keyResults":     len(out.KeyResultIDs),
	})
	return out, nil
}

// resolveOrganization reutiliza la organización del slug si pertenece al usuario;
// si el slug es de otro propietario crea una nueva con sufijo.
func (p *Pipeline) resolveOrganization(
	ctx context.Context,
	repo repository.OrganizationRepository,
	result *dto.TransformResult,
	userID string,
	now time.Time,
) (*entity.Organization, bool, error) {
	data := result.Organization
	slug := data.Slug
	if slug == "" {
		slug = slugify(DefaultOrganizationName)
	}
	existing, err := repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, false, err
	}
	if existing != nil && existing.OwnerID == userID {
		return existing, false, nil
	}
	id := uuid.New().String()
	if existing != nil {
		slug = fmt.Sprintf("%s-%s", slug, id[:8])
	}
	team, err := json.Marshal(result.TeamStructure)
	if err != nil {
		return nil, false, err
	}
	org := &entity.Organization{
		ID:            id,
		Name:          data.Name,
		Slug:          slug,
		Industry:      data.Industry,
		Size:          data.Size,
		EmployeeCount: data.EmployeeCount,
		Website:       data.Website,
		Country:       data.Country,
		Description:   data.Description,
		Insights:      data.Insights,
		TeamStructure: team,
		OwnerID:       userID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.Create(ctx, org); err != nil {
		return nil, false, fmt.Errorf("crear organización: %w", err)
	}
	return org, true, nil
}

func applyProfile(profile *entity.Profile, r *dto.TransformResult, orgID string, now time.Time) {
	profile.CompanyID = orgID
	if r.UserProfile.FullName != "" {
		profile.FullName = r.UserProfile.FullName
	}
	if r.UserProfile.JobTitle != "" {
		profile.JobTitle = r.UserProfile.JobTitle
	}
	if r.UserProfile.Department != "" {
		profile.Department = r.UserProfile.Department
	}
	prefs := map[string]any{}
	if raw, err := json.Marshal(r.Preferences); err == nil {
		_ = json.Unmarshal(raw, &prefs)
	}
	profile.Preferences = prefs
	profile.UpdatedAt = now
}

func (p *Pipeline) publish(ctx context.Context, event string, payload any) {
	if p.events == nil {
		return
	}
	if err := p.events.Publish(ctx, event, payload); err != nil {
		p.log.Warn().Err(err).Str("event", event).Msg("no se pudo publicar el evento")
	}
}
