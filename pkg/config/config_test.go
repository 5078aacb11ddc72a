package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/okr-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoreMemory, cfg.DB.Driver, "sin DATABASE_URL se usa el store en memoria")
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 5*time.Minute, cfg.Onboarding.ValidationCacheTTL)
	assert.Equal(t, 168*time.Hour, cfg.Onboarding.SessionTTL)
	assert.True(t, cfg.App.SeedFixtures, "en development se cargan fixtures por defecto")
	assert.False(t, cfg.Features.AIValidation)
}

func TestLoad_DatabaseURLActivaPostgres(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/okr?sslmode=disable")
	t.Setenv("FEATURE_AI_VALIDATION", "true")
	t.Setenv("STACK_SECRET_SERVER_KEY", "ssk_0123456789abcdefghij")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StorePostgres, cfg.DB.Driver)
	assert.True(t, cfg.Features.AIValidation)
	assert.Equal(t, "ssk_0123456789abcdefghij", cfg.JWT.Secret, "JWT_SECRET cae a la clave secreta de Stack")
	assert.Equal(t, cfg.DB.DatabaseURL, cfg.DB.MigrationURL())
}

func validConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "development"},
		DB:  config.DBConfig{Driver: config.StoreMemory},
		JWT: config.JWTConfig{Secret: "a-very-long-test-secret"},
		AI:  config.AIConfig{Provider: "none"},
	}
}

func TestValidate_ConfigValida(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_PrefijosDeClavesStack(t *testing.T) {
	cfg := validConfig()
	cfg.Stack.PublishableClientKey = "xyz_0123456789abcdefghij"
	cfg.Stack.SecretServerKey = "ssk_short"
	cfg.Stack.ProjectID = "no-es-uuid"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pck_")
	assert.Contains(t, err.Error(), "ssk_")
	assert.Contains(t, err.Error(), "UUID")
}

func TestValidate_ProduccionExigeDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.App.Env = "production"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestValidate_ProveedorIASinClave(t *testing.T) {
	cfg := validConfig()
	cfg.AI.Provider = "anthropic"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}
