package config

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Drivers de almacenamiento soportados.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App        AppConfig
	DB         DBConfig
	Stack      StackAuthConfig
	JWT        JWTConfig
	HTTP       HTTPConfig
	Features   FeatureFlags
	AI         AIConfig
	NATS       NATSConfig
	Onboarding OnboardingConfig
	RateLimit  RateLimitConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env          string // development, staging, production
	Name         string
	LogLevel     string
	SeedFixtures bool
}

// IsProduction informa si la app corre en producción.
func (c AppConfig) IsProduction() bool { return c.Env == "production" }

// DBConfig configuración de PostgreSQL (Neon).
// DatabaseURL es la conexión con pooling; DatabaseURLUnpooled se usa para migraciones.
type DBConfig struct {
	Driver              string
	DatabaseURL         string
	DatabaseURLUnpooled string
	NeonProjectID       string
}

// MigrationURL devuelve el DSN para migraciones: la conexión directa si existe, si no la del pool.
func (c DBConfig) MigrationURL() string {
	if c.DatabaseURLUnpooled != "" {
		return c.DatabaseURLUnpooled
	}
	return c.DatabaseURL
}

// StackAuthConfig claves del proveedor de identidad (Stack Auth).
type StackAuthConfig struct {
	ProjectID            string
	PublishableClientKey string
	SecretServerKey      string
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// FeatureFlags banderas FEATURE_AI_*.
type FeatureFlags struct {
	AIValidation  bool
	AIEnhancement bool
	AIInsights    bool
}

// AIConfig proveedor de IA usado para sugerencias y mejoras de texto.
type AIConfig struct {
	Provider        string // none, anthropic, gemini
	AnthropicAPIKey string
	AnthropicModel  string
	GeminiAPIKey    string
	GeminiModel     string
	Timeout         time.Duration
}

// NATSConfig destino de los eventos de analítica. URL vacía = eventos solo al log.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

// OnboardingConfig duración de sesiones y caché de validación.
type OnboardingConfig struct {
	SessionTTL         time.Duration
	SweepInterval      time.Duration
	ValidationCacheTTL time.Duration
}

// RateLimitConfig solicitudes por minuto por usuario.
type RateLimitConfig struct {
	GeneralRPM int
	InviteRPM  int
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. No valida formatos: eso lo hace Validate.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	env := getString(v, "APP_ENV", "development")
	databaseURL := getString(v, "DATABASE_URL", "")

	driver := getString(v, "STORE_DRIVER", "")
	if driver == "" {
		driver = StoreMemory
		if databaseURL != "" {
			driver = StorePostgres
		}
	}

	secretKey := getString(v, "STACK_SECRET_SERVER_KEY", "")
	jwtSecret := getString(v, "JWT_SECRET", "")
	if jwtSecret == "" {
		jwtSecret = secretKey
	}

	return &Config{
		App: AppConfig{
			Env:          env,
			Name:         getString(v, "APP_NAME", "okr-api"),
			LogLevel:     getString(v, "LOG_LEVEL", "info"),
			SeedFixtures: getBool(v, "SEED_FIXTURES", env == "development"),
		},
		DB: DBConfig{
			Driver:              driver,
			DatabaseURL:         databaseURL,
			DatabaseURLUnpooled: getString(v, "DATABASE_URL_UNPOOLED", ""),
			NeonProjectID:       getString(v, "NEON_PROJECT_ID", ""),
		},
		Stack: StackAuthConfig{
			ProjectID:            getString(v, "NEXT_PUBLIC_STACK_PROJECT_ID", ""),
			PublishableClientKey: getString(v, "NEXT_PUBLIC_STACK_PUBLISHABLE_CLIENT_KEY", ""),
			SecretServerKey:      secretKey,
		},
		JWT: JWTConfig{
			Secret:     jwtSecret,
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "okr-api"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Features: FeatureFlags{
			AIValidation:  getBool(v, "FEATURE_AI_VALIDATION", false),
			AIEnhancement: getBool(v, "FEATURE_AI_ENHANCEMENT", false),
			AIInsights:    getBool(v, "FEATURE_AI_INSIGHTS", false),
		},
		AI: AIConfig{
			Provider:        strings.ToLower(getString(v, "AI_PROVIDER", "none")),
			AnthropicAPIKey: getString(v, "ANTHROPIC_API_KEY", ""),
			AnthropicModel:  getString(v, "ANTHROPIC_MODEL", "claude-3-5-haiku-20241022"),
			GeminiAPIKey:    getString(v, "GEMINI_API_KEY", ""),
			GeminiModel:     getString(v, "GEMINI_MODEL", "gemini-1.5-flash"),
			Timeout:         time.Duration(getInt(v, "AI_TIMEOUT_SECONDS", 5)) * time.Second,
		},
		NATS: NATSConfig{
			URL:           getString(v, "NATS_URL", ""),
			SubjectPrefix: getString(v, "NATS_SUBJECT_PREFIX", "okr"),
		},
		Onboarding: OnboardingConfig{
			SessionTTL:         time.Duration(getInt(v, "ONBOARDING_SESSION_TTL_HOURS", 168)) * time.Hour,
			SweepInterval:      time.Duration(getInt(v, "ONBOARDING_SWEEP_MINUTES", 15)) * time.Minute,
			ValidationCacheTTL: time.Duration(getInt(v, "VALIDATION_CACHE_TTL_SECONDS", 300)) * time.Second,
		},
		RateLimit: RateLimitConfig{
			GeneralRPM: getInt(v, "RATE_LIMIT_RPM", 120),
			InviteRPM:  getInt(v, "INVITE_RATE_LIMIT_RPM", 10),
		},
	}
}

var neonProjectIDRe = regexp.MustCompile(`^[a-z0-9-]{3,}$`)

// Validate revisa formato (prefijo/longitud) de las variables y las obligatorias según entorno.
// Devuelve todos los problemas encontrados unidos en un solo error.
func (c *Config) Validate() error {
	var errs []error

	if c.DB.Driver != StoreMemory && c.DB.Driver != StorePostgres {
		errs = append(errs, fmt.Errorf("STORE_DRIVER inválido: %q", c.DB.Driver))
	}
	if c.DB.Driver == StorePostgres && c.DB.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL es obligatorio con STORE_DRIVER=postgres"))
	}
	if c.DB.DatabaseURL != "" && !hasAnyPrefix(c.DB.DatabaseURL, "postgres://", "postgresql://") {
		errs = append(errs, errors.New("DATABASE_URL debe empezar por postgres:// o postgresql://"))
	}
	if c.DB.DatabaseURLUnpooled != "" && !hasAnyPrefix(c.DB.DatabaseURLUnpooled, "postgres://", "postgresql://") {
		errs = append(errs, errors.New("DATABASE_URL_UNPOOLED debe empezar por postgres:// o postgresql://"))
	}
	if c.DB.NeonProjectID != "" && !neonProjectIDRe.MatchString(c.DB.NeonProjectID) {
		errs = append(errs, errors.New("NEON_PROJECT_ID con formato inválido"))
	}

	if c.Stack.ProjectID != "" {
		if _, err := uuid.Parse(c.Stack.ProjectID); err != nil {
			errs = append(errs, errors.New("NEXT_PUBLIC_STACK_PROJECT_ID debe ser un UUID"))
		}
	}
	if c.Stack.PublishableClientKey != "" && !validKey(c.Stack.PublishableClientKey, "pck_") {
		errs = append(errs, errors.New("NEXT_PUBLIC_STACK_PUBLISHABLE_CLIENT_KEY debe empezar por pck_ y tener al menos 20 caracteres"))
	}
	if c.Stack.SecretServerKey != "" && !validKey(c.Stack.SecretServerKey, "ssk_") {
		errs = append(errs, errors.New("STACK_SECRET_SERVER_KEY debe empezar por ssk_ y tener al menos 20 caracteres"))
	}

	switch c.AI.Provider {
	case "none", "":
	case "anthropic":
		if c.AI.AnthropicAPIKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY es obligatorio con AI_PROVIDER=anthropic"))
		}
	case "gemini":
		if c.AI.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY es obligatorio con AI_PROVIDER=gemini"))
		}
	default:
		errs = append(errs, fmt.Errorf("AI_PROVIDER desconocido: %q", c.AI.Provider))
	}

	if c.App.IsProduction() {
		if c.JWT.Secret == "" {
			errs = append(errs, errors.New("JWT_SECRET (o STACK_SECRET_SERVER_KEY) es obligatorio en producción"))
		}
		if c.DB.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL es obligatorio en producción"))
		}
	}
	if c.JWT.Secret != "" && len(c.JWT.Secret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET debe tener al menos 16 caracteres"))
	}

	return errors.Join(errs...)
}

func validKey(key, prefix string) bool {
	return strings.HasPrefix(key, prefix) && len(key) >= 20
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return b
	}
	return def
}
