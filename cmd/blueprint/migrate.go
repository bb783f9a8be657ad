package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/blueprint/internal/observability/logger"
	"github.com/dropDatabas3/blueprint/internal/store/migrate"
	migrations "github.com/dropDatabas3/blueprint/migrations/postgres"
)

func newMigrateCmd(g *globalFlags) *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migraciones de PostgreSQL",
	}
	cmd.PersistentFlags().StringVar(&dsn, "dsn", "", "DSN de PostgreSQL (default: storage.dsn)")

	resolve := func() (string, error) {
		if dsn != "" {
			return dsn, nil
		}
		cfg, err := g.load()
		if err != nil {
			return "", err
		}
		if cfg.Storage.DSN == "" {
			return "", fmt.Errorf("storage.dsn vacío; usar --dsn")
		}
		return cfg.Storage.DSN, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Aplica las migraciones pendientes",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := resolve()
			if err != nil {
				return err
			}
			return runMigrations(cmd.Context(), d)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Lista las migraciones aplicadas",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := resolve()
			if err != nil {
				return err
			}
			db, err := migrate.Open(d)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := migrate.New(db, migrations.FS, migrations.Dir).Status(cmd.Context())
			if err != nil {
				return err
			}
			for _, a := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "%04d  %-24s  %s\n", a.Version, a.Name, a.AppliedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	})
	return cmd
}

func runMigrations(ctx context.Context, dsn string) error {
	db, err := migrate.Open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := migrate.New(db, migrations.FS, migrations.Dir).Up(ctx)
	if err != nil {
		return err
	}
	logger.L().Info("migrations applied",
		logger.Component("migrate"),
		logger.Any("applied", res.Applied),
		logger.Int("skipped", len(res.Skipped)),
		logger.DurationMs(res.Duration.Milliseconds()),
	)
	return nil
}
