package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/subeth/subeth/internal/infrastructure/config"
	"github.com/subeth/subeth/internal/infrastructure/database"
	"github.com/subeth/subeth/internal/infrastructure/migration"
	"github.com/subeth/subeth/internal/interfaces/cli/app"
	"github.com/subeth/subeth/internal/shared/logger"
)

func NewCommand(g *app.Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Notification journal migrations",
		Long:  `Manage the schema of the notification journal database.`,
	}

	cmd.AddCommand(
		newUpCommand(g),
		newDownCommand(g),
		newStatusCommand(g),
	)

	return cmd
}

func newUpCommand(g *app.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, log, err := initEnv(g)
			if err != nil {
				return err
			}
			defer database.Close()

			log.Infow("running up migrations")
			if err := manager.Up(database.Get()); err != nil {
				log.Errorw("migration failed", "error", err)
				return fmt.Errorf("migration failed: %w", err)
			}

			log.Infow("migrations completed successfully")
			return nil
		},
	}
}

func newDownCommand(g *app.Globals) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, log, err := initEnv(g)
			if err != nil {
				return err
			}
			defer database.Close()

			log.Infow("running down migrations", "steps", steps)
			if err := manager.Down(database.Get(), steps); err != nil {
				log.Errorw("down migration failed", "error", err)
				return fmt.Errorf("down migration failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")
	return cmd
}

func newStatusCommand(g *app.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, _, err := initEnv(g)
			if err != nil {
				return err
			}
			defer database.Close()

			version, err := manager.Version(database.Get())
			if err != nil {
				return fmt.Errorf("failed to get migration version: %w", err)
			}
			scripts, err := manager.Scripts()
			if err != nil {
				return fmt.Errorf("failed to list migrations: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Current version: %d\n", version)
			fmt.Fprintln(out, "Available migrations:")
			for _, s := range scripts {
				fmt.Fprintf(out, "  %s\n", s)
			}
			return nil
		},
	}
}

func initEnv(g *app.Globals) (*migration.Manager, logger.Interface, error) {
	cfg, err := config.Load(g.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := database.Init(&cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return migration.NewManager(cfg.Database.Driver, log), log, nil
}
