package dto

import "time"

// UserListQuery query params de GET /api/admin/users.
type UserListQuery struct {
	RoleType  string `query:"roleType" validate:"omitempty,oneof=corporativo gerente empleado"`
	CompanyID string `query:"companyId" validate:"omitempty,max=64"`
	Status    string `query:"status" validate:"omitempty,oneof=active inactive suspended deleted"`
	Search    string `query:"search" validate:"omitempty,max=100"`
	SortBy    string `query:"sortBy" validate:"omitempty,oneof=createdAt email fullName roleType lastLoginAt"`
	SortOrder string `query:"sortOrder" validate:"omitempty,oneof=asc desc"`
	PageRequest
}

// UserResponse salida de un usuario (sin hash de contraseña).
type UserResponse struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	FullName          string     `json:"fullName"`
	RoleType          string     `json:"roleType"`
	CompanyID         string     `json:"companyId,omitempty"`
	Status            string     `json:"status"`
	JobTitle          string     `json:"jobTitle,omitempty"`
	Department        string     `json:"department,omitempty"`
	MustResetPassword bool       `json:"mustResetPassword,omitempty"`
	LastLoginAt       *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// UserListResponse página de usuarios.
type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination Pagination     `json:"pagination"`
}

// UpdateUserRequest body de PUT /api/admin/users/:id. Campos nil no cambian.
type UpdateUserRequest struct {
	FullName   *string `json:"fullName" validate:"omitempty,min=1,max=200"`
	RoleType   *string `json:"roleType" validate:"omitempty,oneof=corporativo gerente empleado"`
	Status     *string `json:"status" validate:"omitempty,oneof=active inactive suspended"`
	CompanyID  *string `json:"companyId" validate:"omitempty,max=64"`
	JobTitle   *string `json:"jobTitle" validate:"omitempty,max=120"`
	Department *string `json:"department" validate:"omitempty,max=120"`
}

// Acciones de lote sobre usuarios.
const (
	BatchActivate        = "activate"
	BatchDeactivate      = "deactivate"
	BatchDelete          = "delete"
	BatchUpdateRole      = "update_role"
	BatchTransferCompany = "transfer_company"
	BatchResetPassword   = "reset_password"
)

// BatchUserRequest body de POST /api/admin/users.
type BatchUserRequest struct {
	UserIDs []string     `json:"userIds" validate:"required,min=1,max=100,dive,required"`
	Action  string       `json:"action" validate:"required,oneof=activate deactivate delete update_role transfer_company reset_password"`
	Options BatchOptions `json:"options"`
}

// BatchOptions opciones de la acción de lote.
type BatchOptions struct {
	ForceAction  bool   `json:"forceAction"`
	NewRole      string `json:"newRole" validate:"omitempty,oneof=corporativo gerente empleado"`
	NewCompanyID string `json:"newCompanyId" validate:"omitempty,max=64"`
	Reason       string `json:"reason" validate:"omitempty,max=500"`
}

// BatchItemResult resultado por usuario.
type BatchItemResult struct {
	UserID  string `json:"userId"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// BatchSummary totales del lote.
type BatchSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// BatchUserResponse respuesta de POST /api/admin/users.
type BatchUserResponse struct {
	Results []BatchItemResult `json:"results"`
	Summary BatchSummary      `json:"summary"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse token JWT + usuario.
type LoginResponse struct {
	Token             string       `json:"token"`
	MustResetPassword bool         `json:"mustResetPassword"`
	User              UserResponse `json:"user"`
}

// ActivityResponse entrada del registro de actividad.
type ActivityResponse struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actorId"`
	Action     string         `json:"action"`
	TargetType string         `json:"targetType"`
	TargetID   string         `json:"targetId"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}
