// Command blueprint levanta el gatekeeper y expone las tareas operativas
// (migraciones, seed, alta del primer admin).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/blueprint/internal/app"
	"github.com/dropDatabas3/blueprint/internal/config"
	"github.com/dropDatabas3/blueprint/internal/observability/logger"

	// registran los adapters de storage vía init()
	_ "github.com/dropDatabas3/blueprint/internal/store/adapters/memory"
	_ "github.com/dropDatabas3/blueprint/internal/store/adapters/pg"
)

var version = "dev"

type globalFlags struct {
	configPath string
	envFile    string
}

func main() {
	var g globalFlags

	root := &cobra.Command{
		Use:           "blueprint",
		Short:         "Gatekeeper OAuth2: cuentas, clientes y tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", envOr("CONFIG_PATH", "configs/config.yaml"), "Archivo YAML de configuración (env CONFIG_PATH)")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "Archivo .env opcional")

	root.AddCommand(
		newServeCmd(&g),
		newMigrateCmd(&g),
		newSeedCmd(&g),
		newCreateAdminCmd(&g),
		&cobra.Command{
			Use:   "version",
			Short: "Imprime la versión",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// load lee .env, la config y arranca el logger. Un .env ausente no es error.
func (g *globalFlags) load() (*config.Config, error) {
	if err := godotenv.Load(g.envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load %s: %w", g.envFile, err)
	}
	path := g.configPath
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// sin archivo: defaults + variables de entorno
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
		Version:     version,
	})
	return cfg, nil
}

// buildContext arma las dependencias compartidas por serve, seed y
// create-admin.
func (g *globalFlags) buildContext(ctx context.Context) (*app.Context, error) {
	cfg, err := g.load()
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Driver == "postgres" && cfg.Storage.Postgres.AutoMigrate {
		if err := runMigrations(ctx, cfg.Storage.DSN); err != nil {
			return nil, err
		}
	}
	return app.NewContext(ctx, cfg, app.Options{})
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
