package dto

import (
	"fmt"
	"time"
)

// WizardData datos crudos del asistente por paso ("step_1".."step_5").
type WizardData map[string]map[string]any

// Step datos del paso n (nil si no existen). Acepta "step_1" y "step1".
func (w WizardData) Step(n int) map[string]any {
	if w == nil {
		return nil
	}
	if d, ok := w[fmt.Sprintf("step_%d", n)]; ok {
		return d
	}
	return w[fmt.Sprintf("step%d", n)]
}

// SessionResponse sesión de onboarding con su progreso.
type SessionResponse struct {
	ID                   string                 `json:"id"`
	UserID               string                 `json:"userId"`
	TotalSteps           int                    `json:"totalSteps"`
	CurrentStep          int                    `json:"currentStep"`
	Status               string                 `json:"status"`
	CompletionPercentage int                    `json:"completionPercentage"`
	FormData             WizardData             `json:"formData"`
	Progress             []StepProgressResponse `json:"progress"`
	CreatedAt            time.Time              `json:"createdAt"`
	UpdatedAt            time.Time              `json:"updatedAt"`
	ExpiresAt            time.Time              `json:"expiresAt"`
	CompletedAt          *time.Time             `json:"completedAt,omitempty"`
}

// StepProgressResponse progreso de un paso.
type StepProgressResponse struct {
	StepNumber  int               `json:"stepNumber"`
	StepName    string            `json:"stepName"`
	Completed   bool              `json:"completed"`
	Skipped     bool              `json:"skipped"`
	Validation  *ValidationResult `json:"validation,omitempty"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
}

// SaveStepRequest body de POST /api/onboarding/steps/:step.
type SaveStepRequest struct {
	Data map[string]any `json:"data"`
	Skip bool           `json:"skip"`
}

// SaveStepResponse sesión actualizada + validación del paso.
type SaveStepResponse struct {
	Session    SessionResponse   `json:"session"`
	Validation *ValidationResult `json:"validation,omitempty"`
}

// CompleteResponse respuesta de POST /api/onboarding/complete.
type CompleteResponse struct {
	Result *TransformResult `json:"result"`
	Saved  *SaveResult      `json:"saved"`
}
