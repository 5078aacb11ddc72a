package entity

import "time"

// Estados de un perfil de usuario.
const (
	UserStatusActive    = "active"
	UserStatusInactive  = "inactive"
	UserStatusSuspended = "suspended"
	UserStatusDeleted   = "deleted"
)

// Profile representa un usuario de la plataforma (identidad en Stack Auth, perfil local).
type Profile struct {
	ID                string
	Email             string
	FullName          string
	RoleType          string // corporativo, gerente, empleado
	CompanyID         string // organización a la que pertenece; vacío hasta terminar onboarding
	Status            string // active, inactive, suspended, deleted
	JobTitle          string
	Department        string
	Preferences       map[string]any
	PasswordHash      string // bcrypt; solo para login local y reset de contraseña
	MustResetPassword bool
	LastLoginAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsActive informa si el perfil puede autenticarse.
func (p *Profile) IsActive() bool {
	return p != nil && p.Status == UserStatusActive
}

// Clone copia profunda superficial (Preferences y LastLoginAt se copian).
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Preferences != nil {
		cp.Preferences = make(map[string]any, len(p.Preferences))
		for k, v := range p.Preferences {
			cp.Preferences[k] = v
		}
	}
	if p.LastLoginAt != nil {
		t := *p.LastLoginAt
		cp.LastLoginAt = &t
	}
	return &cp
}
