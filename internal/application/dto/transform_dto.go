package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserProfileData perfil normalizado (paso 1).
type UserProfileData struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	JobTitle   string `json:"jobTitle"`
	Department string `json:"department"`
	Phone      string `json:"phone,omitempty"`
	Timezone   string `json:"timezone"`
	Language   string `json:"language"`
}

// OrganizationData organización normalizada (paso 2).
type OrganizationData struct {
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Industry      string `json:"industry"`
	Size          string `json:"size"`
	EmployeeCount int    `json:"employeeCount"`
	Website       string `json:"website,omitempty"`
	Country       string `json:"country,omitempty"`
	Description   string `json:"description,omitempty"`
	Insights      string `json:"insights,omitempty"`
}

// ObjectiveData objetivo normalizado (paso 4). TempID enlaza sus resultados clave.
type ObjectiveData struct {
	TempID      string    `json:"tempId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Priority    string    `json:"priority"`
	Timeframe   string    `json:"timeframe"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
}

// KeyResultData resultado clave normalizado.
type KeyResultData struct {
	TempID          string          `json:"tempId"`
	ObjectiveTempID string          `json:"objectiveTempId"`
	Title           string          `json:"title"`
	TargetValue     decimal.Decimal `json:"targetValue"`
	CurrentValue    decimal.Decimal `json:"currentValue"`
	Unit            string          `json:"unit"`
	DueDate         *time.Time      `json:"dueDate,omitempty"`
}

// DepartmentData departamento de la estructura de equipos.
type DepartmentData struct {
	Name         string `json:"name"`
	HeadCount    int    `json:"headCount"`
	ManagerEmail string `json:"managerEmail,omitempty"`
}

// TeamStructureData estructura organizacional (paso 3).
type TeamStructureData struct {
	Departments        []DepartmentData `json:"departments"`
	HierarchyLevels    int              `json:"hierarchyLevels"`
	ReportingStructure string           `json:"reportingStructure"`
	CollaborationTools []string         `json:"collaborationTools"`
}

// UserPreferencesData preferencias (paso 5).
type UserPreferencesData struct {
	NotificationFrequency string `json:"notificationFrequency"`
	EmailNotifications    bool   `json:"emailNotifications"`
	DashboardLayout       string `json:"dashboardLayout"`
	Theme                 string `json:"theme"`
	AIAssistance          bool   `json:"aiAssistance"`
	ReminderDay           string `json:"reminderDay"`
	Language              string `json:"language"`
	Timezone              string `json:"timezone"`
}

// TransformMetadata metadatos del procesamiento.
type TransformMetadata struct {
	ProcessedAt time.Time `json:"processedAt"`
	AIEnhanced  bool      `json:"aiEnhanced"`
	Validated   bool      `json:"validated"`
	Dropped     int       `json:"dropped"` // objetivos y KRs descartados por vacíos
	Version     string    `json:"version"`
}

// TransformResult salida del pipeline de transformación.
// Recommendations y NextSteps nunca son nil.
type TransformResult struct {
	UserProfile     UserProfileData     `json:"userProfile"`
	Organization    OrganizationData    `json:"organization"`
	Objectives      []ObjectiveData     `json:"objectives"`
	KeyResults      []KeyResultData     `json:"keyResults"`
	TeamStructure   TeamStructureData   `json:"teamStructure"`
	Preferences     UserPreferencesData `json:"preferences"`
	Recommendations []string            `json:"recommendations"`
	NextSteps       []string            `json:"nextSteps"`
	Warnings        []ValidationIssue   `json:"warnings"`
	Metadata        TransformMetadata   `json:"metadata"`
}

// SaveResult identificadores persistidos al completar el onboarding.
type SaveResult struct {
	OrganizationID      string    `json:"organizationId"`
	OrganizationCreated bool      `json:"organizationCreated"`
	ObjectiveIDs        []string  `json:"objectiveIds"`
	KeyResultIDs        []string  `json:"keyResultIds"`
	SessionID           string    `json:"sessionId"`
	CompletedAt         time.Time `json:"completedAt"`
}
