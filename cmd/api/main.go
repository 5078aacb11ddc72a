package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jhoicas/okr-api/internal/application/admin"
	"github.com/jhoicas/okr-api/internal/application/auth"
	"github.com/jhoicas/okr-api/internal/application/onboarding"
	"github.com/jhoicas/okr-api/internal/application/ports"
	"github.com/jhoicas/okr-api/internal/application/transform"
	"github.com/jhoicas/okr-api/internal/application/validation"
	"github.com/jhoicas/okr-api/internal/domain/repository"
	infraai "github.com/jhoicas/okr-api/internal/infrastructure/ai"
	"github.com/jhoicas/okr-api/internal/infrastructure/cache"
	"github.com/jhoicas/okr-api/internal/infrastructure/events"
	"github.com/jhoicas/okr-api/internal/infrastructure/fixtures"
	"github.com/jhoicas/okr-api/internal/infrastructure/memory"
	"github.com/jhoicas/okr-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/okr-api/internal/infrastructure/pdf"
	"github.com/jhoicas/okr-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/okr-api/internal/interfaces/http"
	"github.com/jhoicas/okr-api/pkg/config"
	"github.com/jhoicas/okr-api/pkg/logger"
)

var version = "dev"

// store lo común a los drivers de almacenamiento.
type store interface {
	ports.TxRunner
	Ping(ctx context.Context) error
	Repositories() ports.Repositories
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuración inválida")
	}
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		st       store
		activity repository.ActivityRepository
	)
	switch cfg.DB.Driver {
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		pg := postgres.NewStore(pool)
		st, activity = pg, pg.Activity()
	default:
		mem := memory.NewStore()
		st, activity = mem, mem.Activity()
	}

	if cfg.App.SeedFixtures {
		set, err := fixtures.Default()
		if err != nil {
			log.Fatal().Err(err).Msg("leer fixtures")
		}
		res, err := fixtures.Seed(ctx, st.Repositories(), set, time.Now())
		if err != nil {
			log.Fatal().Err(err).Msg("cargar fixtures")
		}
		log.Info().
			Int("organizations", res.Organizations).
			Int("profiles", res.Profiles).
			Int("invitations", res.Invitations).
			Msg("fixtures cargados")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	var publisher ports.EventPublisher = events.NewLogPublisher(log.Component("events"))
	if cfg.NATS.URL != "" {
		nc, err := events.Connect(cfg.NATS, cfg.App.Name, log.Component("events"))
		if err != nil {
			log.Warn().Err(err).Msg("NATS no disponible, eventos solo al log")
		} else {
			defer nc.Close()
			publisher = nc
		}
	}

	// Asistente IA: nil si no hay proveedor o clave; las banderas FEATURE_AI_* deciden su uso.
	assistant := infraai.New(cfg.AI)
	if assistant == nil && (cfg.Features.AIValidation || cfg.Features.AIEnhancement) {
		log.Warn().Str("provider", cfg.AI.Provider).Msg("IA habilitada sin proveedor configurado; se usará solo la lógica local")
	}
	memCache := cache.New(cfg.Onboarding.ValidationCacheTTL, 2*cfg.Onboarding.ValidationCacheTTL)

	repos := st.Repositories()
	validationSvc := validation.NewService(validation.Config{
		AIEnabled: cfg.Features.AIValidation,
		AITimeout: cfg.AI.Timeout,
		CacheTTL:  cfg.Onboarding.ValidationCacheTTL,
	}, memCache, assistant, collector, log.Component("validation"))
	pipeline := transform.NewPipeline(transform.Config{
		AIEnhancement: cfg.Features.AIEnhancement,
		AITimeout:     cfg.AI.Timeout,
		CacheTTL:      cfg.Onboarding.ValidationCacheTTL,
	}, validationSvc, assistant, memCache, publisher, st, collector, log.Component("transform"))
	onboardingUC := onboarding.NewUseCase(repos.Sessions, repos.Progress, st, validationSvc, pipeline,
		cfg.Onboarding.SessionTTL, log.Component("onboarding"))

	activityLog := admin.NewActivityLog(activity, log.Component("activity"))
	userUC := admin.NewUserUseCase(repos.Profiles, repos.Organizations, activityLog, log.Component("users"))
	invitationUC := admin.NewInvitationUseCase(repos, st, publisher, activityLog, collector, log.Component("invitations"))
	dashboardUC := admin.NewDashboardUseCase(repos, activity, infrapdf.NewMarotoReportGenerator(cfg.App.Name), log.Component("dashboard"))
	authUC := auth.NewAuthUseCase(repos.Profiles, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	limiter := httpRouter.NewRateLimiter(
		httpRouter.NewRateLimiterConfig(cfg.RateLimit.GeneralRPM, cfg.RateLimit.InviteRPM),
		collector, log.Component("ratelimit"),
	)
	defer limiter.Stop()

	go onboardingUC.RunSweeper(ctx, cfg.Onboarding.SweepInterval)

	httpLog := log.Component("http")
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler(httpLog),
	})

	deps := httpRouter.RouterDeps{
		AuthUC:       authUC,
		OnboardingUC: onboardingUC,
		Validation:   validationSvc,
		UserUC:       userUC,
		InvitationUC: invitationUC,
		DashboardUC:  dashboardUC,
		Activity:     activityLog,
		Store:        st,
		StoreDriver:  cfg.DB.Driver,
		Version:      version,
		JWTSecret:    cfg.JWT.Secret,
		RateLimiter:  limiter,
		AIValidation: cfg.Features.AIValidation && assistant != nil,
		Metrics:      collector,
		Gatherer:     reg,
		Log:          httpLog,
	}
	httpRouter.Middlewares(app, deps)

	// Swagger UI en local: http://localhost:<port>/docs
	if !cfg.App.IsProduction() {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "OKR API",
		}))
	}

	httpRouter.Router(app, deps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
