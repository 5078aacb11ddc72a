package validation

import "reflect"

// PersonalInfo esquema del paso 1.
type PersonalInfo struct {
	FullName   string `json:"full_name" validate:"required,min=2,max=100"`
	Email      string `json:"email" validate:"required,email,max=254"`
	JobTitle   string `json:"job_title" validate:"required,min=2,max=100"`
	Department string `json:"department" validate:"omitempty,max=100"`
	Phone      string `json:"phone" validate:"omitempty,min=7,max=20"`
	Timezone   string `json:"timezone" validate:"omitempty,timezone"`
	Language   string `json:"language" validate:"omitempty,oneof=es en pt"`
}

// CompanyInfo esquema del paso 2.
type CompanyInfo struct {
	CompanyName   string `json:"company_name" validate:"required,min=2,max=100"`
	Industry      string `json:"industry" validate:"required,min=2,max=100"`
	CompanySize   string `json:"company_size" validate:"required,oneof=startup small medium large enterprise"`
	EmployeeCount *int   `json:"employee_count" validate:"omitempty,min=1,max=1000000"`
	Website       string `json:"website" validate:"omitempty,max=255,website"`
	Country       string `json:"country" validate:"omitempty,max=64"`
	Description   string `json:"description" validate:"omitempty,max=1000"`
}

// DepartmentInput departamento declarado en el paso 3.
type DepartmentInput struct {
	Name         string `json:"name" validate:"required,min=1,max=100"`
	HeadCount    int    `json:"head_count" validate:"min=0,max=100000"`
	ManagerEmail string `json:"manager_email" validate:"omitempty,email"`
}

// OrganizationStructure esquema del paso 3 (opcional).
type OrganizationStructure struct {
	Departments        []DepartmentInput `json:"departments" validate:"omitempty,max=50,dive"`
	HierarchyLevels    int               `json:"hierarchy_levels" validate:"omitempty,min=1,max=15"`
	ReportingStructure string            `json:"reporting_structure" validate:"omitempty,oneof=hierarchical flat matrix"`
	CollaborationTools []string          `json:"collaboration_tools" validate:"omitempty,max=20,dive,min=1,max=50"`
}

// KeyResultInput resultado clave declarado en el paso 4.
type KeyResultInput struct {
	Title        string   `json:"title" validate:"required,min=3,max=200"`
	TargetValue  *float64 `json:"target_value" validate:"required,min=0"`
	CurrentValue float64  `json:"current_value" validate:"min=0"`
	Unit         string   `json:"unit" validate:"omitempty,max=32"`
	DueDate      string   `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

// ObjectiveInput objetivo declarado en el paso 4.
type ObjectiveInput struct {
	Title       string           `json:"title" validate:"required,min=3,max=200"`
	Description string           `json:"description" validate:"omitempty,max=1000"`
	Category    string           `json:"category" validate:"omitempty,max=50"`
	Priority    string           `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Timeframe   string           `json:"timeframe" validate:"omitempty,oneof=quarterly annual"`
	KeyResults  []KeyResultInput `json:"key_results" validate:"omitempty,max=10,dive"`
}

// OKRSetup esquema del paso 4.
type OKRSetup struct {
	Objectives    []ObjectiveInput `json:"objectives" validate:"required,min=1,max=10,dive"`
	OKRExperience string           `json:"okr_experience" validate:"omitempty,oneof=none beginner intermediate advanced"`
}

// Preferences esquema del paso 5 (opcional).
type Preferences struct {
	NotificationFrequency string `json:"notification_frequency" validate:"omitempty,oneof=daily weekly biweekly monthly never"`
	EmailNotifications    *bool  `json:"email_notifications"`
	DashboardLayout       string `json:"dashboard_layout" validate:"omitempty,oneof=compact detailed cards"`
	Theme                 string `json:"theme" validate:"omitempty,oneof=light dark system"`
	AIAssistance          *bool  `json:"ai_assistance"`
	ReminderDay           string `json:"reminder_day" validate:"omitempty,oneof=monday tuesday wednesday thursday friday saturday sunday"`
}

// schemaFor devuelve un puntero nuevo al esquema del paso (nil si no existe).
func schemaFor(step int) any {
	switch step {
	case 1:
		return &PersonalInfo{}
	case 2:
		return &CompanyInfo{}
	case 3:
		return &OrganizationStructure{}
	case 4:
		return &OKRSetup{}
	case 5:
		return &Preferences{}
	}
	return nil
}

// fieldNames nombres JSON de primer nivel del esquema del paso.
func fieldNames(step int) map[string]struct{} {
	s := schemaFor(step)
	if s == nil {
		return nil
	}
	t := reflect.TypeOf(s).Elem()
	out := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		out[jsonName(t.Field(i))] = struct{}{}
	}
	return out
}
