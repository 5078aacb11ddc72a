package dto

import "time"

// CreateInvitationRequest body de POST /api/admin/invitations.
type CreateInvitationRequest struct {
	Email         string `json:"email" validate:"required,email,max=254"`
	CompanyID     string `json:"companyId" validate:"required,max=64"`
	RoleType      string `json:"roleType" validate:"required,oneof=corporativo gerente empleado"`
	Message       string `json:"message" validate:"omitempty,max=500"`
	ExpiresInDays int    `json:"expiresInDays" validate:"min=0,max=30"` // 0 = 7 días
}

// InvitationListQuery query params de GET /api/admin/invitations.
type InvitationListQuery struct {
	Status    string `query:"status" validate:"omitempty,oneof=pending sent accepted expired cancelled"`
	CompanyID string `query:"companyId" validate:"omitempty,max=64"`
	RoleType  string `query:"roleType" validate:"omitempty,oneof=corporativo gerente empleado"`
	Email     string `query:"email" validate:"omitempty,max=254"`
	PageRequest
}

// InvitationResponse invitación en respuestas.
type InvitationResponse struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	CompanyID      string     `json:"companyId"`
	RoleType       string     `json:"roleType"`
	InvitationCode string     `json:"invitationCode"`
	Status         string     `json:"status"`
	InvitedBy      string     `json:"invitedBy"`
	Message        string     `json:"message,omitempty"`
	ExpiresAt      time.Time  `json:"expiresAt"`
	AcceptedAt     *time.Time `json:"acceptedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// InvitationListResponse página de invitaciones.
type InvitationListResponse struct {
	Invitations []InvitationResponse `json:"invitations"`
	Pagination  Pagination           `json:"pagination"`
}

// AcceptInvitationRequest body de POST /api/invitations/accept.
type AcceptInvitationRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}
