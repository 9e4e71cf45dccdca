package subscriptions

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/subeth/subeth/internal/application/subscription/dto"
	"github.com/subeth/subeth/internal/application/subscription/usecases"
	"github.com/subeth/subeth/internal/domain/subscription"
	vo "github.com/subeth/subeth/internal/domain/subscription/valueobjects"
	"github.com/subeth/subeth/internal/interfaces/cli/app"
	"github.com/subeth/subeth/internal/shared/utils"
)

func NewCommand(g *app.Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subscriptions",
		Aliases: []string{"subs"},
		Short:   "List, create and cancel subscriptions",
	}

	cmd.AddCommand(
		newListCommand(g),
		newSubscribeCommand(g),
		newUnsubscribeCommand(g),
	)
	return cmd
}

func newListCommand(g *app.Globals) *cobra.Command {
	var (
		account string
		chainID int64
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an account's subscriptions with their on-chain state",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.Bootstrap(g, app.Needs{OptionalWallet: account == ""})
			if err != nil {
				return err
			}
			defer env.Close()

			addr, err := env.Account(account)
			if err != nil {
				return err
			}

			subs, err := env.Container.ListSubscriptions.Execute(cmd.Context(), usecases.ListUserSubscriptionsQuery{
				Account: addr,
				ChainID: chainID,
			})
			if err != nil {
				return err
			}
			return env.Print(subs, subscriptionTable(subs))
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Account address (default: wallet address)")
	cmd.Flags().Int64Var(&chainID, "chain-id", 0, "Chain to read on-chain state from")
	return cmd
}

func newSubscribeCommand(g *app.Globals) *cobra.Command {
	var (
		chainID int64
		path    string
	)

	cmd := &cobra.Command{
		Use:   "subscribe <plan-id>",
		Short: "Subscribe the wallet to a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.Bootstrap(g, app.Needs{Wallet: true, Journal: true})
			if err != nil {
				return err
			}
			defer env.Close()

			plan, err := env.Container.GetPlan.Execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if chainID == 0 && plan.ChainID != nil {
				chainID = *plan.ChainID
			}

			result := env.Container.Subscribe.Execute(cmd.Context(), usecases.SubscribeCommand{
				Signer:  env.Container.Signer(),
				ChainID: chainID,
				Plan:    plan.Plan,
				Path:    resolvePath(env, path),
			})
			return report(env, result)
		},
	}

	cmd.Flags().Int64Var(&chainID, "chain-id", 0, "Chain to subscribe on (default: the plan's chain)")
	cmd.Flags().StringVar(&path, "path", "", "Execution path: relay, direct or auto (default: executor.path)")
	return cmd
}

func newUnsubscribeCommand(g *app.Globals) *cobra.Command {
	var (
		chainID   int64
		onChainID string
		backendID int64
		path      string
	)

	cmd := &cobra.Command{
		Use:   "unsubscribe",
		Short: "Cancel one of the wallet's subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := utils.ParseUint256(onChainID)
			if err != nil {
				return err
			}

			env, err := app.Bootstrap(g, app.Needs{Wallet: true, Journal: true})
			if err != nil {
				return err
			}
			defer env.Close()

			result := env.Container.Unsubscribe.Execute(cmd.Context(), usecases.UnsubscribeCommand{
				Signer:       env.Container.Signer(),
				ChainID:      chainID,
				OnChainSubID: id,
				BackendSubID: backendID,
				Path:         resolvePath(env, path),
			})
			return report(env, result)
		},
	}

	cmd.Flags().Int64Var(&chainID, "chain-id", 0, "Chain the subscription lives on")
	cmd.Flags().StringVar(&onChainID, "onchain-id", "", "On-chain subscription id")
	cmd.Flags().Int64Var(&backendID, "backend-id", 0, "Backend subscription id")
	cmd.Flags().StringVar(&path, "path", "", "Execution path: relay, direct or auto (default: executor.path)")
	_ = cmd.MarkFlagRequired("chain-id")
	_ = cmd.MarkFlagRequired("onchain-id")
	_ = cmd.MarkFlagRequired("backend-id")
	return cmd
}

func resolvePath(env *app.Env, flag string) vo.ExecutionPath {
	if flag != "" {
		return vo.ExecutionPath(flag)
	}
	return env.Container.DefaultPath()
}

// report prints the result and turns a failure into a non-zero exit.
func report(env *app.Env, result dto.OperationResult) error {
	if err := env.Print(result, func(tw *tabwriter.Writer) {
		if result.Success {
			fmt.Fprintf(tw, "OK\t%s\n", app.Or(result.TxHash))
			return
		}
		fmt.Fprintf(tw, "FAILED\t%s\n", result.Error)
	}); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("operation failed: %s", result.Error)
	}
	return nil
}

func subscriptionTable(subs []subscription.EnrichedSubscription) app.TableFunc {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tONCHAIN\tPLAN\tSTATUS\tACTIVE\tNEXT\tRUNS\tOVERDUE")
		for _, s := range subs {
			onChain := "-"
			if s.OnChainSubscriptionID != nil {
				onChain = s.OnChainSubscriptionID.String()
			}
			plan := s.PlanID
			if s.Plan != nil && s.Plan.Name != "" {
				plan = s.Plan.Name
			}
			next := "-"
			if s.NextExecutionTime != nil {
				next = time.Unix(*s.NextExecutionTime, 0).UTC().Format(time.RFC3339)
			}
			runs := "-"
			if s.ExecutionCount != nil {
				runs = fmt.Sprint(*s.ExecutionCount)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%s\t%s\t%t\n",
				s.ID, onChain, plan, s.Status, s.OnChainActive, next, runs, s.IsOverdue)
		}
	}
}
