package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/jhoicas/okr-api/internal/application/admin"
	"github.com/jhoicas/okr-api/internal/application/auth"
	"github.com/jhoicas/okr-api/internal/application/onboarding"
	"github.com/jhoicas/okr-api/internal/application/validation"
	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/infrastructure/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       *auth.AuthUseCase
	OnboardingUC *onboarding.UseCase
	Validation   *validation.Service
	UserUC       *admin.UserUseCase
	InvitationUC *admin.InvitationUseCase
	DashboardUC  *admin.DashboardUseCase
	Activity     *admin.ActivityLog
	Store        Pinger
	StoreDriver  string
	Version      string
	JWTSecret    string
	RateLimiter  *RateLimiter
	// AIValidation con FEATURE_AI_VALIDATION la validación de pasos pasa por el limitador estricto.
	AIValidation bool
	Metrics      *metrics.Collector
	Gatherer     prometheus.Gatherer
	Log          zerolog.Logger
}

// Middlewares registra los middlewares globales: log de solicitudes, métricas y recover.
func Middlewares(app *fiber.App, deps RouterDeps) {
	var recorder HTTPRecorder
	if deps.Metrics != nil {
		recorder = deps.Metrics
	}
	app.Use(RequestLogger(deps.Log, recorder))
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	var v *validator.Validate
	if deps.Validation != nil {
		v = deps.Validation.Validator()
	} else {
		v = validation.NewValidator()
	}

	health := NewHealthHandler(deps.Store, deps.StoreDriver, deps.Version, deps.Log)
	app.Get("/health", health.Health)
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(deps.Gatherer)))
	}

	api := app.Group("/api")
	api.Get("/test-db", health.TestDB)

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC, v, deps.Log)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas: JWT + perfil activo + límite general por usuario
	protected := []fiber.Handler{AuthMiddleware(deps.JWTSecret, deps.AuthUC, deps.Log)}
	strict := func(c *fiber.Ctx) error { return c.Next() }
	if deps.RateLimiter != nil {
		protected = append(protected, deps.RateLimiter.General())
		strict = deps.RateLimiter.Strict()
	}
	secured := api.Group("", protected...)

	// Onboarding (cualquier usuario autenticado)
	ob := NewOnboardingHandler(deps.OnboardingUC, deps.Validation, deps.Log)
	onb := secured.Group("/onboarding", RequireRole(entity.RoleEmpleado))
	onb.Post("/session", ob.StartSession)
	onb.Get("/session", ob.GetSession)
	onb.Post("/steps/:step", ob.SaveStep)
	if deps.AIValidation {
		onb.Post("/validate", strict, ob.ValidateStep)
	} else {
		onb.Post("/validate", ob.ValidateStep)
	}
	onb.Post("/validate/field", ob.ValidateField)
	onb.Post("/validate/cross-step", ob.ValidateCrossStep)
	onb.Post("/preview", ob.Preview)
	onb.Post("/complete", ob.Complete)

	// Aceptar invitación (el invitado puede no tener empresa aún)
	inv := NewInvitationHandler(deps.InvitationUC, v, deps.Log)
	secured.Post("/invitations/accept", RequireRole(entity.RoleEmpleado), inv.Accept)

	// Administración (gerente o superior)
	adm := secured.Group("/admin", RequireRole(entity.RoleGerente))

	users := NewUserHandler(deps.UserUC, v, deps.Log)
	adm.Get("/users", users.List)
	adm.Post("/users", users.Batch)
	adm.Get("/users/:id", users.Get)
	adm.Put("/users/:id", users.Update)

	adm.Get("/invitations", inv.List)
	adm.Post("/invitations", strict, inv.Create)
	adm.Get("/invitations/:id", inv.Get)
	adm.Post("/invitations/:id/resend", strict, inv.Resend)
	adm.Delete("/invitations/:id", inv.Cancel)

	dash := NewDashboardHandler(deps.DashboardUC, deps.Activity, deps.Log)
	adm.Get("/dashboard", dash.Summary)
	adm.Get("/dashboard/report", RequireRole(entity.RoleCorporativo), dash.Report)
	adm.Get("/activity", RequireRole(entity.RoleCorporativo), dash.Activity)
}
