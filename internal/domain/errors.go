package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrUserNotFound      = errors.New("usuario no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrRateLimited       = errors.New("demasiadas solicitudes")
	ErrSessionExpired    = errors.New("la sesión de onboarding expiró")
	ErrSessionCompleted  = errors.New("la sesión de onboarding ya fue completada")
	ErrStrictValidation  = errors.New("los datos del asistente no superan la validación")
	ErrInvitationInvalid = errors.New("invitación inválida o vencida")
)
