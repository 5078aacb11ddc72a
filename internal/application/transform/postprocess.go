package transform

import (
	"fmt"
	"strings"

	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/application/validation"
)

// buildInsights resumen determinista de la organización; la IA puede ampliarlo.
func buildInsights(r *dto.TransformResult) string {
	o := r.Organization
	var b strings.Builder
	fmt.Fprintf(&b, "%s opera en el sector %s con %d empleados (tamaño %s).", o.Name, o.Industry, o.EmployeeCount, o.Size)
	if n := len(r.TeamStructure.Departments); n > 0 {
		fmt.Fprintf(&b, " Estructura %s con %d departamentos.", r.TeamStructure.ReportingStructure, n)
	}
	if n := len(r.Objectives); n > 0 {
		fmt.Fprintf(&b, " Arranca con %d objetivos y %d resultados clave.", n, len(r.KeyResults))
	}
	return b.String()
}

// postProcess limpia textos, normaliza URLs y descarta objetivos y KRs vacíos.
func postProcess(r *dto.TransformResult) {
	up := &r.UserProfile
	up.FullName = cleanText(up.FullName, maxNameLen)
	up.JobTitle = cleanText(up.JobTitle, maxNameLen)
	up.Department = cleanText(up.Department, maxNameLen)
	up.Phone = cleanText(up.Phone, maxShortLen)

	org := &r.Organization
	org.Name = cleanText(org.Name, maxNameLen)
	if org.Name == "" {
		org.Name = DefaultOrganizationName
	}
	org.Slug = slugify(org.Name)
	org.Industry = cleanText(org.Industry, maxNameLen)
	org.Country = cleanText(org.Country, maxShortLen)
	org.Description = cleanText(org.Description, maxDescriptionLen)
	org.Insights = cleanText(org.Insights, maxInsightsLen)
	if u, ok := validation.NormalizeURL(org.Website); ok {
		org.Website = u
	} else {
		org.Website = ""
	}

	kept := make([]dto.ObjectiveData, 0, len(r.Objectives))
	alive := make(map[string]bool, len(r.Objectives))
	dropped := 0
	for _, o := range r.Objectives {
		o.Title = cleanText(o.Title, maxTitleLen)
		o.Description = cleanText(o.Description, maxDescriptionLen)
		o.Category = cleanText(o.Category, maxShortLen)
		if o.Title == "" {
			dropped++
			continue
		}
		alive[o.TempID] = true
		kept = append(kept, o)
	}
	r.Objectives = kept

	krs := make([]dto.KeyResultData, 0, len(r.KeyResults))
	for _, k := range r.KeyResults {
		k.Title = cleanText(k.Title, maxTitleLen)
		k.Unit = cleanText(k.Unit, maxShortLen)
		if k.Title == "" || !alive[k.ObjectiveTempID] {
			dropped++
			continue
		}
		krs = append(krs, k)
	}
	r.KeyResults = krs
	r.Metadata.Dropped = dropped

	deps := r.TeamStructure.Departments[:0]
	for _, d := range r.TeamStructure.Departments {
		d.Name = cleanText(d.Name, maxNameLen)
		if d.Name != "" {
			deps = append(deps, d)
		}
	}
	r.TeamStructure.Departments = deps
	tools := r.TeamStructure.CollaborationTools[:0]
	for _, t := range r.TeamStructure.CollaborationTools {
		if t = cleanText(t, maxShortLen); t != "" {
			tools = append(tools, t)
		}
	}
	r.TeamStructure.CollaborationTools = tools
}

// recommendations sugerencias derivadas del resultado; nunca nil.
func recommendations(r *dto.TransformResult) []string {
	out := []string{}
	switch n := len(r.Objectives); {
	case n == 0:
		out = append(out, "Define al menos un objetivo para tu primer ciclo de OKRs")
	case n > validation.MaxRecommendedObjectives:
		out = append(out, fmt.Sprintf("Prioriza: se recomiendan entre 3 y %d objetivos por ciclo (tienes %d)", validation.MaxRecommendedObjectives, n))
	}
	withKR := make(map[string]bool, len(r.KeyResults))
	for _, k := range r.KeyResults {
		withKR[k.ObjectiveTempID] = true
	}
	for _, o := range r.Objectives {
		if !withKR[o.TempID] {
			out = append(out, fmt.Sprintf("Agrega resultados clave medibles a %q", o.Title))
		}
	}
	if !validation.SizeMatches(r.Organization.Size, r.Organization.EmployeeCount) {
		out = append(out, "Revisa el tamaño declarado de la empresa: no coincide con el número de empleados")
	}
	if r.Organization.Website == "" {
		out = append(out, "Agrega el sitio web de la empresa para personalizar las recomendaciones")
	}
	if len(r.TeamStructure.Departments) == 0 {
		out = append(out, "Describe la estructura de equipos para alinear objetivos por área")
	}
	return out
}

// nextSteps acciones sugeridas tras el onboarding; nunca nil.
func nextSteps(r *dto.TransformResult) []string {
	out := []string{}
	if r.UserProfile.JobTitle == "" || r.UserProfile.FullName == "" {
		out = append(out, "Completa tu perfil")
	}
	if len(r.TeamStructure.Departments) > 0 {
		out = append(out, "Invita a los líderes de cada departamento")
	} else {
		out = append(out, "Invita a tu equipo")
	}
	if len(r.Objectives) > 0 {
		out = append(out, "Revisa tus objetivos en el tablero")
	} else {
		out = append(out, "Crea tu primer objetivo")
	}
	out = append(out, fmt.Sprintf("Programa el check-in semanal de OKRs (%s)", r.Preferences.ReminderDay))
	return out
}
