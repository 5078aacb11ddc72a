package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/okr-api/internal/application/admin"
	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/application/validation"
	"github.com/jhoicas/okr-api/internal/domain"
)

// Códigos de error de la API.
const (
	CodeInvalidBody      = "INVALID_BODY"
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeSessionExpired   = "SESSION_EXPIRED"
	CodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	CodeDashboardDown    = "DASHBOARD_UNAVAILABLE"
	CodeInternal         = "INTERNAL"
	CodeInvitationFailed = "INVITATION_INVALID"
)

func ok(c *fiber.Ctx, data any) error {
	return c.JSON(dto.OK(data, ""))
}

func created(c *fiber.Ctx, data any, message string) error {
	return c.Status(fiber.StatusCreated).JSON(dto.OK(data, message))
}

func fail(c *fiber.Ctx, status int, code, message string, details any) error {
	return c.Status(status).JSON(dto.Fail(code, message, details))
}

func invalidBody(c *fiber.Ctx) error {
	return fail(c, fiber.StatusBadRequest, CodeInvalidBody, "cuerpo de la petición inválido", nil)
}

// respondError traduce errores de dominio y de validación a la respuesta HTTP.
// Los mensajes son fijos por tipo de error; el detalle solo se registra en log.
func respondError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	var resErr *validation.ResultError
	if errors.As(err, &resErr) {
		code := CodeValidation
		if errors.Is(err, domain.ErrStrictValidation) {
			code = "STRICT_VALIDATION_FAILED"
		}
		return fail(c, fiber.StatusBadRequest, code, "los datos no superan la validación", resErr.Result)
	}
	var reqErr *validation.RequestError
	if errors.As(err, &reqErr) {
		return fail(c, fiber.StatusBadRequest, CodeValidation, "solicitud inválida", reqErr.Issues)
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrStrictValidation):
		clientError(c, log, err)
		return fail(c, fiber.StatusBadRequest, CodeValidation, "datos de entrada inválidos", nil)
	case errors.Is(err, domain.ErrInvitationInvalid):
		return fail(c, fiber.StatusBadRequest, CodeInvitationFailed, "la invitación no existe, expiró o ya fue usada", nil)
	case errors.Is(err, domain.ErrUnauthorized):
		return fail(c, fiber.StatusUnauthorized, CodeUnauthorized, "no autenticado", nil)
	case errors.Is(err, domain.ErrForbidden):
		return fail(c, fiber.StatusForbidden, CodeForbidden, "permisos insuficientes", nil)
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return fail(c, fiber.StatusNotFound, CodeNotFound, "recurso no encontrado", nil)
	case errors.Is(err, domain.ErrSessionExpired):
		return fail(c, fiber.StatusConflict, CodeSessionExpired, "la sesión de onboarding expiró; inicie una nueva", nil)
	case errors.Is(err, domain.ErrSessionCompleted):
		return fail(c, fiber.StatusConflict, CodeConflict, "el onboarding ya fue completado", nil)
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		clientError(c, log, err)
		return fail(c, fiber.StatusConflict, CodeConflict, "la operación entra en conflicto con el estado actual", nil)
	case errors.Is(err, domain.ErrRateLimited):
		return fail(c, fiber.StatusTooManyRequests, CodeRateLimited, "demasiadas solicitudes", nil)
	case errors.Is(err, admin.ErrDashboardUnavailable):
		return fail(c, fiber.StatusInternalServerError, CodeDashboardDown, "el dashboard no está disponible", nil)
	}

	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
	return fail(c, fiber.StatusInternalServerError, CodeInternal, "error interno del servidor", nil)
}

// clientError deja en log la causa de un 4xx cuyo mensaje de respuesta es genérico.
func clientError(c *fiber.Ctx, log zerolog.Logger, err error) {
	log.Info().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("petición rechazada")
}

// ErrorHandler manejador de errores de Fiber: rutas inexistentes, panics recuperados
// y errores no tratados por los handlers.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code := CodeInternal
			switch fe.Code {
			case fiber.StatusNotFound:
				code = CodeNotFound
			case fiber.StatusMethodNotAllowed:
				code = "METHOD_NOT_ALLOWED"
			case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
				code = CodeInvalidBody
			}
			if fe.Code < fiber.StatusInternalServerError {
				return fail(c, fe.Code, code, fe.Message, nil)
			}
		}
		return respondError(c, log, err)
	}
}
