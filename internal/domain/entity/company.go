package entity

import "time"

// Tamaños de empresa declarados en el asistente.
const (
	SizeStartup    = "startup"
	SizeSmall      = "small"
	SizeMedium     = "medium"
	SizeLarge      = "large"
	SizeEnterprise = "enterprise"
)

// Roles dentro de una organización (distintos de la jerarquía de plataforma).
const (
	MemberOwner  = "org_owner"
	MemberAdmin  = "org_admin"
	MemberMember = "org_member"
)

// Organization tenant creado al completar el onboarding. CompanyID de Profile apunta aquí.
type Organization struct {
	ID            string
	Name          string
	Slug          string
	Industry      string
	Size          string
	EmployeeCount int
	Website       string
	Country       string
	Description   string
	Insights      string
	TeamStructure []byte // JSON de la estructura de equipos
	OwnerID       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Clone copia la organización.
func (o *Organization) Clone() *Organization {
	if o == nil {
		return nil
	}
	cp := *o
	if o.TeamStructure != nil {
		cp.TeamStructure = append([]byte(nil), o.TeamStructure...)
	}
	return &cp
}

// OrganizationMember pertenencia de un usuario a una organización.
type OrganizationMember struct {
	OrganizationID string
	UserID         string
	Role           string // org_owner, org_admin, org_member
	JoinedAt       time.Time
}
