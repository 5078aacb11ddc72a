package transform

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/application/validation"
)

// Valores por defecto de campos opcionales.
const (
	DefaultOrganizationName = "Mi organización"
	DefaultIndustry         = "general"
	DefaultSize             = "startup"
	DefaultCategory         = "general"
	DefaultPriority         = "medium"
	DefaultTimeframe        = "quarterly"
	DefaultUnit             = "unidades"
	DefaultFrequency        = "weekly"
	DefaultLayout           = "detailed"
	DefaultTheme            = "system"
	DefaultReminderDay      = "monday"
	DefaultLanguage         = "es"
	DefaultTimezone         = "America/Bogota"
	DefaultReporting        = "hierarchical"
	DefaultHierarchyLevels  = 2
)

// defaultEmployees empleados supuestos cuando no se declaran (mínimo del rango).
var defaultEmployees = map[string]int{
	"startup": 1, "small": 10, "medium": 50, "large": 250, "enterprise": 1000,
}

func or(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func mapProfile(form dto.WizardData) dto.UserProfileData {
	var p validation.PersonalInfo
	_ = validation.Decode(form.Step(1), &p)
	return dto.UserProfileData{
		FullName:   p.FullName,
		Email:      strings.ToLower(strings.TrimSpace(p.Email)),
		JobTitle:   p.JobTitle,
		Department: p.Department,
		Phone:      p.Phone,
		Timezone:   or(p.Timezone, DefaultTimezone),
		Language:   or(p.Language, DefaultLanguage),
	}
}

func mapOrganization(form dto.WizardData) dto.OrganizationData {
	var c validation.CompanyInfo
	_ = validation.Decode(form.Step(2), &c)
	size := or(c.CompanySize, DefaultSize)
	employees := defaultEmployees[size]
	if c.EmployeeCount != nil && *c.EmployeeCount > 0 {
		employees = *c.EmployeeCount
	}
	return dto.OrganizationData{
		Name:          or(c.CompanyName, DefaultOrganizationName),
		Industry:      or(c.Industry, DefaultIndustry),
		Size:          size,
		EmployeeCount: employees,
		Website:       c.Website,
		Country:       c.Country,
		Description:   c.Description,
	}
}

func mapTeam(form dto.WizardData) dto.TeamStructureData {
	var s validation.OrganizationStructure
	_ = validation.Decode(form.Step(3), &s)
	team := dto.TeamStructureData{
		Departments:        make([]dto.DepartmentData, 0, len(s.Departments)),
		HierarchyLevels:    s.HierarchyLevels,
		ReportingStructure: or(s.ReportingStructure, DefaultReporting),
		CollaborationTools: make([]string, 0, len(s.CollaborationTools)),
	}
	if team.HierarchyLevels <= 0 {
		team.HierarchyLevels = DefaultHierarchyLevels
	}
	for _, d := range s.Departments {
		team.Departments = append(team.Departments, dto.DepartmentData{
			Name:         d.Name,
			HeadCount:    d.HeadCount,
			ManagerEmail: strings.ToLower(strings.TrimSpace(d.ManagerEmail)),
		})
	}
	team.CollaborationTools = append(team.CollaborationTools, s.CollaborationTools...)
	return team
}

func mapPreferences(form dto.WizardData, profile dto.UserProfileData) dto.UserPreferencesData {
	var p validation.Preferences
	_ = validation.Decode(form.Step(5), &p)
	prefs := dto.UserPreferencesData{
		NotificationFrequency: or(p.NotificationFrequency, DefaultFrequency),
		EmailNotifications:    true,
		DashboardLayout:       or(p.DashboardLayout, DefaultLayout),
		Theme:                 or(p.Theme, DefaultTheme),
		AIAssistance:          true,
		ReminderDay:           or(p.ReminderDay, DefaultReminderDay),
		Language:              profile.Language,
		Timezone:              profile.Timezone,
	}
	if p.EmailNotifications != nil {
		prefs.EmailNotifications = *p.EmailNotifications
	}
	if p.AIAssistance != nil {
		prefs.AIAssistance = *p.AIAssistance
	}
	return prefs
}

// mapOKRs objetivos y resultados clave; cada KR referencia el TempID de su objetivo.
func mapOKRs(form dto.WizardData, now time.Time) ([]dto.ObjectiveData, []dto.KeyResultData) {
	var s validation.OKRSetup
	_ = validation.Decode(form.Step(4), &s)
	objectives := make([]dto.ObjectiveData, 0, len(s.Objectives))
	keyResults := make([]dto.KeyResultData, 0)
	for i, o := range s.Objectives {
		timeframe := or(o.Timeframe, DefaultTimeframe)
		start, end := period(now, timeframe)
		obj := dto.ObjectiveData{
			TempID:      fmt.Sprintf("obj-%d", i+1),
			Title:       o.Title,
			Description: o.Description,
			Category:    or(o.Category, DefaultCategory),
			Priority:    or(o.Priority, DefaultPriority),
			Timeframe:   timeframe,
			StartDate:   start,
			EndDate:     end,
		}
		objectives = append(objectives, obj)
		for j, kr := range o.KeyResults {
			k := dto.KeyResultData{
				TempID:          fmt.Sprintf("kr-%d-%d", i+1, j+1),
				ObjectiveTempID: obj.TempID,
				Title:           kr.Title,
				CurrentValue:    decimal.NewFromFloat(kr.CurrentValue),
				Unit:            or(kr.Unit, DefaultUnit),
			}
			if kr.TargetValue != nil {
				k.TargetValue = decimal.NewFromFloat(*kr.TargetValue)
			}
			if d, err := time.Parse("2006-01-02", kr.DueDate); err == nil {
				k.DueDate = &d
			}
			keyResults = append(keyResults, k)
		}
	}
	return objectives, keyResults
}

// period inicio (hoy) y fin (cierre del trimestre o del año en curso).
func period(now time.Time, timeframe string) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if timeframe == "annual" {
		return start, time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	qEndMonth := time.Month(((int(now.Month())-1)/3+1)*3 + 1)
	end := time.Date(now.Year(), qEndMonth, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return start, end
}
