package dto

// Severidad de un hallazgo de validación.
const (
	SeverityError      = "error"
	SeverityWarning    = "warning"
	SeveritySuggestion = "suggestion"
)

// ValidationIssue hallazgo sobre un campo del asistente.
// Field usa nombres snake_case (p. ej. "company_size", "objectives[0].title").
type ValidationIssue struct {
	Field      string `json:"field"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Severity   string `json:"severity"`
	Suggestion string `json:"suggestion,omitempty"`
	Step       int    `json:"step,omitempty"`
}

// ValidationResult resultado combinado: esquema + reglas de negocio + sugerencias IA.
// IsValid es true si y solo si Errors está vacío.
type ValidationResult struct {
	IsValid     bool              `json:"isValid"`
	Errors      []ValidationIssue `json:"errors"`
	Warnings    []ValidationIssue `json:"warnings"`
	Suggestions []ValidationIssue `json:"suggestions"`
}

// NewValidationResult resultado vacío con slices no nil (JSON con []).
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		IsValid:     true,
		Errors:      []ValidationIssue{},
		Warnings:    []ValidationIssue{},
		Suggestions: []ValidationIssue{},
	}
}

// Add clasifica el hallazgo por severidad y recalcula IsValid.
func (r *ValidationResult) Add(issues ...ValidationIssue) {
	for _, is := range issues {
		switch is.Severity {
		case SeverityError:
			r.Errors = append(r.Errors, is)
		case SeverityWarning:
			r.Warnings = append(r.Warnings, is)
		default:
			is.Severity = SeveritySuggestion
			r.Suggestions = append(r.Suggestions, is)
		}
	}
	r.IsValid = len(r.Errors) == 0
}

// Merge incorpora otro resultado.
func (r *ValidationResult) Merge(o *ValidationResult) {
	if o == nil {
		return
	}
	r.Add(o.Errors...)
	r.Add(o.Warnings...)
	r.Add(o.Suggestions...)
}

// ValidateStepRequest body de POST /api/onboarding/validate.
type ValidateStepRequest struct {
	Step int            `json:"step" validate:"min=1,max=5"`
	Data map[string]any `json:"data" validate:"required"`
}

// ValidateFieldRequest body de POST /api/onboarding/validate/field.
type ValidateFieldRequest struct {
	Step  int    `json:"step" validate:"min=1,max=5"`
	Field string `json:"field" validate:"required,max=64"`
	Value any    `json:"value"`
	// StepData resto de campos del paso, para reglas que cruzan campos (p. ej. tamaño vs empleados).
	StepData map[string]any `json:"stepData"`
}

// CrossStepRequest body de POST /api/onboarding/validate/cross-step.
type CrossStepRequest struct {
	FormData WizardData `json:"formData" validate:"required"`
}
