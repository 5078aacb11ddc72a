package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de objetivos y resultados clave.
const (
	OKRStatusDraft     = "draft"
	OKRStatusActive    = "active"
	OKRStatusCompleted = "completed"
)

// Objective objetivo de una organización.
type Objective struct {
	ID             string
	OrganizationID string
	OwnerID        string
	Title          string
	Description    string
	Category       string
	Priority       string // low, medium, high, critical
	Timeframe      string // quarterly, annual
	Status         string
	StartDate      time.Time
	EndDate        time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// KeyResult resultado medible de un objetivo. ObjectiveID no se valida contra la DB en dominio.
type KeyResult struct {
	ID           string
	ObjectiveID  string
	Title        string
	TargetValue  decimal.Decimal
	CurrentValue decimal.Decimal
	Unit         string
	DueDate      *time.Time
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Progress porcentaje de avance (0–100) redondeado a 2 decimales.
func (k *KeyResult) Progress() decimal.Decimal {
	if k.TargetValue.IsZero() {
		return decimal.Zero
	}
	p := k.CurrentValue.Div(k.TargetValue).Mul(decimal.NewFromInt(100))
	if p.GreaterThan(decimal.NewFromInt(100)) {
		p = decimal.NewFromInt(100)
	}
	if p.IsNegative() {
		p = decimal.Zero
	}
	return p.Round(2)
}
