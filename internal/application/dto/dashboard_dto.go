package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Secciones del dashboard (clave en Errors).
const (
	SectionUsers       = "users"
	SectionInvitations = "invitations"
	SectionOnboarding  = "onboarding"
	SectionOKRs        = "okrs"
	SectionActivity    = "activity"
)

// DashboardSummary respuesta de GET /api/admin/dashboard.
// Cada sección se calcula por separado: si una falla queda en nil y su error en Errors.
type DashboardSummary struct {
	Users          *UserSection       `json:"users"`
	Invitations    *InvitationSection `json:"invitations"`
	Onboarding     *OnboardingSection `json:"onboarding"`
	OKRs           *OKRSection        `json:"okrs"`
	RecentActivity []ActivityResponse `json:"recentActivity"`
	Errors         map[string]string  `json:"errors,omitempty"`
	Partial        bool               `json:"partial"`
	GeneratedAt    time.Time          `json:"generatedAt"`
	Scope          string             `json:"scope"` // "global" o el companyId del llamante
}

// UserSection métricas de usuarios.
type UserSection struct {
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	ByRole   map[string]int `json:"byRole"`
	ByStatus map[string]int `json:"byStatus"`
}

// InvitationSection métricas de invitaciones.
type InvitationSection struct {
	Total          int             `json:"total"`
	Pending        int             `json:"pending"`
	Accepted       int             `json:"accepted"`
	ByStatus       map[string]int  `json:"byStatus"`
	AcceptanceRate decimal.Decimal `json:"acceptanceRate"` // accepted / total * 100
}

// OnboardingSection métricas del asistente.
type OnboardingSection struct {
	Total             int             `json:"total"`
	InProgress        int             `json:"inProgress"`
	Completed         int             `json:"completed"`
	Expired           int             `json:"expired"`
	AverageCompletion decimal.Decimal `json:"averageCompletion"`
	CompletionRate    decimal.Decimal `json:"completionRate"` // completed / total * 100
}

// OKRSection métricas de objetivos.
type OKRSection struct {
	Organizations   int             `json:"organizations"`
	Objectives      int             `json:"objectives"`
	KeyResults      int             `json:"keyResults"`
	AverageProgress decimal.Decimal `json:"averageProgress"`
}
