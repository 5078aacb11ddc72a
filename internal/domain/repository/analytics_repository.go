package repository

import "github.com/shopspring/decimal"

// ProfileStats conteos de usuarios para el dashboard.
type ProfileStats struct {
	Total    int
	Active   int
	ByRole   map[string]int
	ByStatus map[string]int
}

// InvitationStats conteos de invitaciones por estado (las vencidas cuentan como expired).
type InvitationStats struct {
	Total    int
	ByStatus map[string]int
}

// SessionStats estado agregado del onboarding.
type SessionStats struct {
	Total             int
	InProgress        int
	Completed         int
	Expired           int
	AverageCompletion decimal.Decimal
}

// OKRStats agregados de objetivos y resultados clave.
type OKRStats struct {
	Objectives      int
	KeyResults      int
	AverageProgress decimal.Decimal // promedio de KeyResult.Progress()
}
