package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/okr-api/internal/domain"
	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/pkg/jwt"
)

// Locals keys para el llamante autenticado en Fiber.
const (
	LocalUserID    = "user_id"
	LocalCompanyID = "company_id"
	LocalRole      = "role"
	LocalCaller    = "caller"
)

// CallerResolver carga el perfil del usuario del token. Lo implementa *auth.AuthUseCase.
type CallerResolver interface {
	ResolveCaller(ctx context.Context, userID string) (*entity.Profile, error)
}

// AuthMiddleware valida el Bearer Token JWT, carga el perfil del llamante y lo deja en c.Locals.
// Token ausente, inválido o expirado, perfil inexistente o inactivo: 401.
// El rol y la empresa salen del perfil, no de los claims.
func AuthMiddleware(jwtSecret string, resolver CallerResolver, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fail(c, fiber.StatusUnauthorized, "MISSING_TOKEN", "Authorization header requerido", nil)
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fail(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "formato: Bearer <token>", nil)
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return fail(c, fiber.StatusUnauthorized, "MISSING_TOKEN", "token vacío", nil)
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return fail(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "token inválido o expirado", nil)
		}

		caller, err := resolver.ResolveCaller(c.UserContext(), claims.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				return fail(c, fiber.StatusUnauthorized, CodeUnauthorized, "usuario inexistente o inactivo", nil)
			}
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("no se pudo cargar el perfil del token")
			return fail(c, fiber.StatusInternalServerError, CodeInternal, "error interno del servidor", nil)
		}

		c.Locals(LocalUserID, caller.ID)
		c.Locals(LocalCompanyID, caller.CompanyID)
		c.Locals(LocalRole, caller.RoleType)
		c.Locals(LocalCaller, caller)
		return c.Next()
	}
}

// RequireRole exige que el rol del llamante cumpla required según la jerarquía
// corporativo ⊇ gerente ⊇ empleado. Debe ir después de AuthMiddleware.
func RequireRole(required string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return fail(c, fiber.StatusUnauthorized, CodeUnauthorized, "no autenticado", nil)
		}
		if !entity.HasPermission(role, required) {
			return fail(c, fiber.StatusForbidden, CodeForbidden, "se requiere rol "+required+" o superior", nil)
		}
		return c.Next()
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalUserID).(string)
	return s
}

// GetCompanyID devuelve el CompanyID del llamante; vacío si aún no tiene empresa.
func GetCompanyID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalCompanyID).(string)
	return s
}

// GetRole devuelve el rol del llamante.
func GetRole(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalRole).(string)
	return s
}

// GetCaller devuelve el perfil completo del llamante.
func GetCaller(c *fiber.Ctx) *entity.Profile {
	p, _ := c.Locals(LocalCaller).(*entity.Profile)
	return p
}
