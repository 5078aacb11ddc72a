// migrate aplica las migraciones embebidas de PostgreSQL y carga los fixtures de desarrollo.
//
// Uso: go run ./cmd/migrate [up|down|version|seed]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/okr-api/internal/infrastructure/fixtures"
	"github.com/jhoicas/okr-api/internal/infrastructure/postgres"
	"github.com/jhoicas/okr-api/pkg/config"
	"github.com/jhoicas/okr-api/pkg/logger"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Migraciones del esquema PostgreSQL",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Nivel de log (debug, info, warn, error)")

	load := func() (*config.Config, *logger.Logger, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		log := logger.New(logger.Config{Env: cfg.App.Env, Level: logLevel, Service: "migrate"})
		if cfg.DB.MigrationURL() == "" {
			return nil, nil, errors.New("DATABASE_URL o DATABASE_URL_UNPOOLED es obligatorio")
		}
		return cfg, log, nil
	}

	migrateCmd := func(action, short string) *cobra.Command {
		return &cobra.Command{
			Use:   action,
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, log, err := load()
				if err != nil {
					return err
				}
				if err := postgres.Migrate(cfg.DB.MigrationURL(), action); err != nil {
					return err
				}
				log.Info().Str("action", action).Msg("migración completada")
				return nil
			},
		}
	}
	cmd.AddCommand(
		migrateCmd(postgres.MigrateUp, "Aplica las migraciones pendientes"),
		migrateCmd(postgres.MigrateDown, "Revierte todas las migraciones"),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Muestra la versión aplicada del esquema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := load()
			if err != nil {
				return err
			}
			st, err := postgres.Version(cfg.DB.MigrationURL())
			if err != nil {
				return err
			}
			if !st.Applied {
				fmt.Fprintln(cmd.OutOrStdout(), "sin migraciones aplicadas")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "versión %d (dirty=%t)\n", st.Version, st.Dirty)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Carga organizaciones, usuarios e invitaciones de ejemplo",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			pool, err := postgres.NewPool(ctx, cfg.DB)
			if err != nil {
				return fmt.Errorf("conexión a PostgreSQL: %w", err)
			}
			defer pool.Close()

			set, err := fixtures.Default()
			if err != nil {
				return err
			}
			res, err := fixtures.Seed(ctx, postgres.NewStore(pool).Repositories(), set, time.Now())
			if err != nil {
				return err
			}
			log.Info().
				Int("organizations", res.Organizations).
				Int("profiles", res.Profiles).
				Int("invitations", res.Invitations).
				Msg("fixtures cargados")
			return nil
		},
	})

	return cmd
}
