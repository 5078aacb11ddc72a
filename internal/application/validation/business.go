package validation

import (
	"fmt"
	"strings"

	"github.com/jhoicas/okr-api/internal/application/dto"
)

var disposableDomains = map[string]struct{}{
	"mailinator.com": {}, "10minutemail.com": {}, "guerrillamail.com": {}, "tempmail.com": {},
	"temp-mail.org": {}, "yopmail.com": {}, "trashmail.com": {}, "throwawaymail.com": {},
	"getnada.com": {}, "sharklasers.com": {}, "dispostable.com": {}, "maildrop.cc": {},
}

var freeMailDomains = map[string]struct{}{
	"gmail.com": {}, "googlemail.com": {}, "hotmail.com": {}, "hotmail.es": {}, "outlook.com": {},
	"live.com": {}, "yahoo.com": {}, "yahoo.es": {}, "icloud.com": {}, "aol.com": {},
	"protonmail.com": {}, "proton.me": {}, "gmx.com": {},
}

// IsDisposableEmail dominio de correo temporal conocido.
func IsDisposableEmail(email string) bool {
	_, ok := disposableDomains[EmailDomain(email)]
	return ok
}

// IsFreeMail dominio de correo personal (gmail, outlook...).
func IsFreeMail(email string) bool {
	_, ok := freeMailDomains[EmailDomain(email)]
	return ok
}

type sizeRange struct{ min, max int } // max 0 = sin límite

// Rangos de empleados por tamaño declarado. Se solapan a propósito para tolerar fronteras.
var sizeRanges = map[string]sizeRange{
	"startup":    {1, 50},
	"small":      {10, 100},
	"medium":     {50, 500},
	"large":      {250, 5000},
	"enterprise": {1000, 0},
}

// SizeMatches informa si employees cae en el rango del tamaño declarado.
// Tamaños desconocidos no se comparan.
func SizeMatches(size string, employees int) bool {
	r, ok := sizeRanges[size]
	if !ok {
		return true
	}
	if employees < r.min {
		return false
	}
	return r.max == 0 || employees <= r.max
}

func warning(field, code, msg string) dto.ValidationIssue {
	return dto.ValidationIssue{Field: field, Code: code, Message: msg, Severity: dto.SeverityWarning}
}

func suggestion(field, code, msg string) dto.ValidationIssue {
	return dto.ValidationIssue{Field: field, Code: code, Message: msg, Severity: dto.SeveritySuggestion}
}

// businessRules reglas de negocio del paso sobre el esquema decodificado.
// Solo producen advertencias y sugerencias, nunca errores.
func businessRules(schema any) []dto.ValidationIssue {
	switch s := schema.(type) {
	case *PersonalInfo:
		return personalInfoRules(s)
	case *CompanyInfo:
		return companyInfoRules(s)
	case *OrganizationStructure:
		return structureRules(s)
	case *OKRSetup:
		return okrRules(s)
	case *Preferences:
		return preferencesRules(s)
	}
	return nil
}

func personalInfoRules(s *PersonalInfo) []dto.ValidationIssue {
	var out []dto.ValidationIssue
	if s.Email == "" {
		return out
	}
	switch {
	case IsDisposableEmail(s.Email):
		out = append(out, warning("email", "DISPOSABLE_EMAIL", "El dominio corresponde a un correo temporal"))
	case IsFreeMail(s.Email):
		out = append(out, suggestion("email", "PERSONAL_EMAIL", "Considera usar tu correo corporativo"))
	}
	return out
}

func companyInfoRules(s *CompanyInfo) []dto.ValidationIssue {
	var out []dto.ValidationIssue
	if s.CompanySize != "" && s.EmployeeCount != nil && !SizeMatches(s.CompanySize, *s.EmployeeCount) {
		out = append(out, warning("employee_count", "SIZE_MISMATCH",
			fmt.Sprintf("%d empleados no es consistente con el tamaño %q", *s.EmployeeCount, s.CompanySize)))
	}
	if strings.TrimSpace(s.Website) == "" {
		out = append(out, suggestion("website", "MISSING_WEBSITE", "Agregar el sitio web ayuda a personalizar las recomendaciones"))
	}
	return out
}

func structureRules(s *OrganizationStructure) []dto.ValidationIssue {
	var out []dto.ValidationIssue
	seen := make(map[string]int, len(s.Departments))
	for i, d := range s.Departments {
		field := fmt.Sprintf("departments[%d]", i)
		if d.HeadCount == 0 && d.Name != "" {
			out = append(out, warning(field+".head_count", "HEADCOUNT_ZERO",
				fmt.Sprintf("El departamento %q no tiene personas asignadas", d.Name)))
		}
		key := strings.ToLower(strings.TrimSpace(d.Name))
		if key == "" {
			continue
		}
		if first, dup := seen[key]; dup {
			out = append(out, warning(field+".name", "DUPLICATE_DEPARTMENT",
				fmt.Sprintf("Departamento repetido (ver departments[%d])", first)))
			continue
		}
		seen[key] = i
	}
	return out
}

// MaxRecommendedObjectives límite recomendado de objetivos por ciclo.
const MaxRecommendedObjectives = 5

func okrRules(s *OKRSetup) []dto.ValidationIssue {
	var out []dto.ValidationIssue
	if len(s.Objectives) > MaxRecommendedObjectives {
		out = append(out, warning("objectives", "TOO_MANY_OBJECTIVES",
			fmt.Sprintf("Se recomiendan como máximo %d objetivos por ciclo", MaxRecommendedObjectives)))
	}
	seen := make(map[string]int, len(s.Objectives))
	for i, o := range s.Objectives {
		field := fmt.Sprintf("objectives[%d]", i)
		if len(o.KeyResults) == 0 {
			out = append(out, warning(field+".key_results", "MISSING_KEY_RESULTS",
				"El objetivo no tiene resultados clave"))
		}
		if key := strings.ToLower(strings.TrimSpace(o.Title)); key != "" {
			if first, dup := seen[key]; dup {
				out = append(out, warning(field+".title", "DUPLICATE_OBJECTIVE",
					fmt.Sprintf("Objetivo repetido (ver objectives[%d])", first)))
			} else {
				seen[key] = i
			}
		}
		for j, kr := range o.KeyResults {
			if kr.TargetValue != nil && *kr.TargetValue > 0 && kr.CurrentValue >= *kr.TargetValue {
				out = append(out, warning(fmt.Sprintf("%s.key_results[%d].current_value", field, j), "TARGET_ALREADY_MET",
					"El valor actual ya alcanza la meta"))
			}
		}
	}
	return out
}

func preferencesRules(s *Preferences) []dto.ValidationIssue {
	if s.EmailNotifications != nil && *s.EmailNotifications && s.NotificationFrequency == "never" {
		return []dto.ValidationIssue{warning("notification_frequency", "NOTIFICATIONS_CONFLICT",
			"Las notificaciones por email están activas pero la frecuencia es \"never\"")}
	}
	return nil
}
