package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"

	"github.com/jhoicas/okr-api/pkg/config"
)

// connectTimeout la primera conexión a Neon despierta el cómputo suspendido.
const connectTimeout = 15 * time.Second

// NewPool crea el pool de la API sobre DATABASE_URL (endpoint con pooling de Neon).
// Las migraciones usan DATABASE_URL_UNPOOLED; ver Migrate.
func NewPool(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolConfig, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return pool, nil
}

// PoolConfig arma la configuración del pool desde DATABASE_URL.
//
// El endpoint "-pooler" de Neon pasa por PgBouncer en modo transacción: las sentencias
// preparadas con nombre no sobreviven entre transacciones, así que se usa
// QueryExecModeExec salvo que el DSN fije default_query_exec_mode.
func PoolConfig(cfg config.DBConfig) (*pgxpool.Config, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL vacío")
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	if isNeonPooler(poolConfig.ConnConfig.Host) && !dsnHas(cfg.DatabaseURL, "default_query_exec_mode") {
		poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec
	}
	if !dsnHas(cfg.DatabaseURL, "connect_timeout") {
		poolConfig.ConnConfig.ConnectTimeout = connectTimeout
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	// NUMERIC -> shopspring/decimal (valores de resultados clave).
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
	return poolConfig, nil
}

// isNeonPooler ep-xxx-pooler.<región>.aws.neon.tech
func isNeonPooler(host string) bool {
	first, _, _ := strings.Cut(host, ".")
	return strings.HasSuffix(first, "-pooler")
}

func dsnHas(dsn, param string) bool {
	u, err := url.Parse(dsn)
	if err != nil {
		return strings.Contains(dsn, param+"=")
	}
	return u.Query().Has(param)
}
