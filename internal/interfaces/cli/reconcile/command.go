package reconcile

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/subeth/subeth/internal/application/subscription/dto"
	"github.com/subeth/subeth/internal/application/subscription/usecases"
	"github.com/subeth/subeth/internal/infrastructure/scheduler"
	"github.com/subeth/subeth/internal/interfaces/cli/app"
)

func NewCommand(g *app.Globals) *cobra.Command {
	var (
		account  string
		chainID  int64
		repair   bool
		maxScan  int
		schedule string
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare backend records with on-chain subscriptions",
		Long: `Report drift between the backend and the delegate contract for one account on one chain.
With --repair, journaled notifications are replayed and drifted backend records fixed.
With --schedule, the wallet's account is reconciled on every configured chain on a cron schedule until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if schedule != "" {
				return runScheduled(cmd, g, schedule, repair, maxScan)
			}

			env, err := app.Bootstrap(g, app.Needs{OptionalWallet: account == "", Journal: true})
			if err != nil {
				return err
			}
			defer env.Close()

			addr, err := env.Account(account)
			if err != nil {
				return err
			}

			report, err := env.Container.Reconcile.Execute(cmd.Context(), usecases.ReconcileCommand{
				Account: addr,
				ChainID: chainID,
				Repair:  repair,
				MaxScan: maxScan,
			})
			if err != nil {
				return err
			}
			return env.Print(report, reportTable(report))
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Account address (default: wallet address)")
	cmd.Flags().Int64Var(&chainID, "chain-id", 0, "Chain to reconcile")
	cmd.Flags().BoolVar(&repair, "repair", false, "Replay the journal and fix drifted backend records")
	cmd.Flags().IntVar(&maxScan, "max-scan", usecases.DefaultMaxScan, "Highest on-chain ids to scan")
	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron expression; run repeatedly instead of once")
	return cmd
}

func runScheduled(cmd *cobra.Command, g *app.Globals, schedule string, repair bool, maxScan int) error {
	env, err := app.Bootstrap(g, app.Needs{Wallet: true, Journal: true})
	if err != nil {
		return err
	}
	defer env.Close()

	if cmd.Flags().Changed("repair") {
		env.Config.Reconcile.Repair = repair
	}
	if cmd.Flags().Changed("max-scan") {
		env.Config.Reconcile.MaxScan = maxScan
	}

	manager, err := scheduler.NewSchedulerManager(env.Log.With("component", "scheduler"))
	if err != nil {
		return err
	}
	if err := manager.RegisterReconcileJob(schedule, env.Container.ReconcileJob()); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	manager.Start()
	<-cmd.Context().Done()
	return manager.Stop()
}

func reportTable(r *dto.ReconcileReport) app.TableFunc {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "Account:\t%s\n", r.Account)
		fmt.Fprintf(tw, "Chain:\t%d\n", r.ChainID)
		fmt.Fprintf(tw, "On-chain count:\t%s\n", r.OnChainCount)
		fmt.Fprintf(tw, "Scanned:\t%d\n", r.Scanned)
		fmt.Fprintf(tw, "Journal:\t%d pending, %d replayed, %d failed\n", r.PendingJournal, r.Replayed, r.ReplayFailed)
		fmt.Fprintf(tw, "In sync:\t%t\n\n", r.InSync())

		fmt.Fprintln(tw, "ONCHAIN\tKIND\tBACKEND")
		for _, d := range r.Drift {
			backend := "-"
			if d.Record != nil {
				backend = fmt.Sprint(d.Record.ID)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", d.OnChainID, d.Kind, backend)
		}

		if len(r.Repairs) == 0 {
			return
		}
		fmt.Fprintln(tw, "\nREPAIR\tONCHAIN\tOUTCOME\tDETAIL")
		for _, a := range r.Repairs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Kind, a.OnChainID, a.Outcome, app.Or(a.Detail))
		}
	}
}
