package server

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/subeth/subeth/internal/infrastructure/database"
	"github.com/subeth/subeth/internal/infrastructure/migration"
	"github.com/subeth/subeth/internal/infrastructure/scheduler"
	"github.com/subeth/subeth/internal/interfaces/cli/app"
	httpRouter "github.com/subeth/subeth/internal/interfaces/http"
	"github.com/subeth/subeth/internal/shared/version"
)

func NewCommand(g *app.Globals) *cobra.Command {
	var (
		addr        string
		autoMigrate bool
	)

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		Short:   "Start the HTTP gateway",
		Long:    `Serve the subscription API. Write routes sign with the configured wallet; without one they answer "Wallet not connected".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.Bootstrap(g, app.Needs{OptionalWallet: true, Journal: true})
			if err != nil {
				return err
			}
			defer env.Close()

			cfg := env.Config
			log := env.Log
			log.Infow("starting server", "version", version.Version, "mode", cfg.Server.Mode)

			if autoMigrate {
				if err := migration.NewManager(cfg.Database.Driver, log).Up(database.Get()); err != nil {
					return fmt.Errorf("auto-migration failed: %w", err)
				}
			}

			if cfg.Server.Mode != "" {
				gin.SetMode(cfg.Server.Mode)
			}
			gin.DefaultWriter = io.Discard

			if cfg.Reconcile.Schedule != "" {
				if env.Container.Wallet() == nil {
					log.Warnw("reconcile schedule ignored: no wallet configured")
				} else {
					manager, err := scheduler.NewSchedulerManager(log.With("component", "scheduler"))
					if err != nil {
						return err
					}
					if err := manager.RegisterReconcileJob(cfg.Reconcile.Schedule, env.Container.ReconcileJob()); err != nil {
						return fmt.Errorf("invalid reconcile schedule: %w", err)
					}
					manager.Start()
					defer func() {
						if err := manager.Stop(); err != nil {
							log.Errorw("failed to stop scheduler", "error", err)
						}
					}()
				}
			}

			if addr == "" {
				addr = cfg.Server.GetAddr()
			}
			router := httpRouter.NewRouter(env.Container, log)
			return router.Run(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.host:server.port)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", true, "Apply journal migrations on startup")
	return cmd
}
