package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/subeth/subeth/internal/interfaces/cli/account"
	"github.com/subeth/subeth/internal/interfaces/cli/app"
	"github.com/subeth/subeth/internal/interfaces/cli/migrate"
	"github.com/subeth/subeth/internal/interfaces/cli/plans"
	"github.com/subeth/subeth/internal/interfaces/cli/reconcile"
	"github.com/subeth/subeth/internal/interfaces/cli/server"
	"github.com/subeth/subeth/internal/interfaces/cli/subscriptions"
	"github.com/subeth/subeth/internal/interfaces/cli/version"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	globals := &app.Globals{}

	rootCmd := &cobra.Command{
		Use:           "subeth",
		Short:         "Recurring ERC-20 subscriptions from EIP-7702 delegated accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	globals.Register(rootCmd)

	rootCmd.AddCommand(
		account.NewCommand(globals),
		plans.NewCommand(globals),
		subscriptions.NewCommand(globals),
		reconcile.NewCommand(globals),
		server.NewCommand(globals),
		migrate.NewCommand(globals),
		version.NewCommand(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
