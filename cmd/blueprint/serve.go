package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/blueprint/internal/app"
	"github.com/dropDatabas3/blueprint/internal/http/router"
	"github.com/dropDatabas3/blueprint/internal/observability/logger"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ac, err := g.buildContext(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a := app.New(ac)
			if err := a.Register(router.Default()...); err != nil {
				_ = ac.Close()
				return err
			}
			logger.L().Info("starting gatekeeper",
				logger.String("addr", ac.Config.Server.Addr),
				logger.String("storage", ac.Store.Name()),
			)
			return a.Start(ctx)
		},
	}
}
