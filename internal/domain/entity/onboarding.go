package entity

import (
	"fmt"
	"time"
)

// TotalOnboardingSteps pasos del asistente de onboarding.
const TotalOnboardingSteps = 5

// Estados de una sesión de onboarding.
const (
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
	SessionExpired    = "expired"
)

// Nombres de los pasos del asistente (índice = número de paso - 1).
var stepNames = [TotalOnboardingSteps]string{
	"personal_info",
	"company_info",
	"organization_structure",
	"okr_setup",
	"preferences",
}

// StepName nombre del paso; vacío si el número está fuera de rango.
func StepName(step int) string {
	if step < 1 || step > TotalOnboardingSteps {
		return ""
	}
	return stepNames[step-1]
}

// StepKey clave del paso dentro de FormData ("step_1".."step_5").
func StepKey(step int) string {
	return fmt.Sprintf("step_%d", step)
}

// IsOptionalStep pasos que el usuario puede saltar (estructura y preferencias).
func IsOptionalStep(step int) bool {
	return step == 3 || step == 5
}

// OnboardingSession estado del asistente de un usuario.
type OnboardingSession struct {
	ID                   string
	UserID               string
	TotalSteps           int
	CurrentStep          int
	Status               string
	CompletionPercentage int
	FormData             map[string]map[string]any
	CreatedAt            time.Time
	UpdatedAt            time.Time
	ExpiresAt            time.Time
	CompletedAt          *time.Time
}

// NewOnboardingSession crea una sesión en el paso 1 que expira tras ttl.
func NewOnboardingSession(id, userID string, now time.Time, ttl time.Duration) *OnboardingSession {
	return &OnboardingSession{
		ID:          id,
		UserID:      userID,
		TotalSteps:  TotalOnboardingSteps,
		CurrentStep: 1,
		Status:      SessionInProgress,
		FormData:    map[string]map[string]any{},
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

// IsExpired informa si la sesión sigue en curso pero venció.
func (s *OnboardingSession) IsExpired(now time.Time) bool {
	return s.Status == SessionInProgress && !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Expire marca la sesión como expirada.
func (s *OnboardingSession) Expire(now time.Time) {
	s.Status = SessionExpired
	s.UpdatedAt = now
}

// Complete marca la sesión como completada al 100 %.
func (s *OnboardingSession) Complete(now time.Time) {
	s.Status = SessionCompleted
	s.CurrentStep = s.TotalSteps
	s.CompletionPercentage = 100
	s.CompletedAt = &now
	s.UpdatedAt = now
}

// StepData datos guardados para un paso (nil si no existen).
func (s *OnboardingSession) StepData(step int) map[string]any {
	if s.FormData == nil {
		return nil
	}
	return s.FormData[StepKey(step)]
}

// Clone copia la sesión y su FormData para que los stores no compartan mapas.
func (s *OnboardingSession) Clone() *OnboardingSession {
	if s == nil {
		return nil
	}
	cp := *s
	cp.FormData = make(map[string]map[string]any, len(s.FormData))
	for k, v := range s.FormData {
		cp.FormData[k] = CloneMap(v)
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

// OnboardingProgress una fila por (sesión, paso).
type OnboardingProgress struct {
	ID           string
	SessionID    string
	StepNumber   int
	StepName     string
	StepData     map[string]any
	Completed    bool
	Skipped      bool
	AIValidation []byte // JSON del resultado de validación
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone copia la fila de progreso.
func (p *OnboardingProgress) Clone() *OnboardingProgress {
	if p == nil {
		return nil
	}
	cp := *p
	cp.StepData = CloneMap(p.StepData)
	if p.AIValidation != nil {
		cp.AIValidation = append([]byte(nil), p.AIValidation...)
	}
	return &cp
}

// CloneMap copia superficial de un mapa de datos de formulario.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
