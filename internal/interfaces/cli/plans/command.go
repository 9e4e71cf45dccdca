package plans

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/subeth/subeth/internal/application/subscription/dto"
	"github.com/subeth/subeth/internal/application/subscription/usecases"
	"github.com/subeth/subeth/internal/domain/subscription"
	"github.com/subeth/subeth/internal/interfaces/cli/app"
)

func NewCommand(g *app.Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "List and manage subscription plans",
	}

	cmd.AddCommand(
		newListCommand(g),
		newGetCommand(g),
		newMutateCommand(g, usecases.PlanActionCreate),
		newMutateCommand(g, usecases.PlanActionUpdate),
		newDeleteCommand(g),
	)
	return cmd
}

func newListCommand(g *app.Globals) *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.Bootstrap(g, app.Needs{})
			if err != nil {
				return err
			}
			defer env.Close()

			plans, err := env.Container.ListPlans.Execute(cmd.Context(), activeOnly)
			if err != nil {
				return err
			}
			return env.Print(plans, planTable(plans...))
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only show active plans")
	return cmd
}

func newGetCommand(g *app.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "get <plan-id>",
		Short: "Show one plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.Bootstrap(g, app.Needs{})
			if err != nil {
				return err
			}
			defer env.Close()

			plan, err := env.Container.GetPlan.Execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return env.Print(plan, planTable(plan))
		},
	}
}

// planFlags binds the PlanInput fields to flags.
type planFlags struct {
	input    subscription.PlanInput
	active   bool
	chainID  int64
	decimals int
}

func (f *planFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.input.Name, "name", "", "Plan name")
	fl.StringVar(&f.input.Description, "description", "", "Plan description")
	fl.StringVar(&f.input.Price, "price", "", "Price per interval in token base units")
	fl.StringVar(&f.input.Token, "token", "", "ERC-20 token address")
	fl.StringVar(&f.input.Receiver, "receiver", "", "Address receiving payments")
	fl.Int64Var(&f.input.IntervalSeconds, "interval", 0, "Billing interval in seconds")
	fl.StringVar(&f.input.TokenSymbol, "symbol", "", "Token symbol for display")
	fl.StringVar(&f.input.Slug, "slug", "", "URL slug")
	fl.StringVar(&f.input.ImageURL, "image-url", "", "Image URL")
	fl.BoolVar(&f.active, "active", true, "Whether the plan is offered")
	fl.Int64Var(&f.chainID, "chain-id", 0, "Chain the plan is offered on")
	fl.IntVar(&f.decimals, "decimals", 0, "Token decimals (default 18)")
}

// build copies flag values into the input, leaving unset optional fields nil.
func (f *planFlags) build(cmd *cobra.Command) subscription.PlanInput {
	in := f.input
	if cmd.Flags().Changed("active") {
		active := f.active
		in.Active = &active
	}
	if cmd.Flags().Changed("chain-id") {
		chainID := f.chainID
		in.ChainID = &chainID
	}
	if cmd.Flags().Changed("decimals") {
		decimals := f.decimals
		in.TokenDecimals = &decimals
	}
	return in
}

func newMutateCommand(g *app.Globals, action usecases.PlanAction) *cobra.Command {
	var flags planFlags

	cmd := &cobra.Command{
		Use:   string(action),
		Short: fmt.Sprintf("%s a plan (admin wallet required)", action),
		RunE: func(cmd *cobra.Command, args []string) error {
			planID := ""
			if action == usecases.PlanActionUpdate {
				if len(args) != 1 {
					return fmt.Errorf("update requires exactly one plan id")
				}
				planID = args[0]
			}

			env, err := app.Bootstrap(g, app.Needs{Wallet: true})
			if err != nil {
				return err
			}
			defer env.Close()

			plan, err := env.Container.ManagePlan.Execute(cmd.Context(), usecases.ManagePlanCommand{
				Signer: env.Container.MessageSigner(),
				Action: action,
				PlanID: planID,
				Input:  flags.build(cmd),
			})
			if err != nil {
				return err
			}
			return env.Print(plan, planTable(plan))
		},
	}
	if action == usecases.PlanActionUpdate {
		cmd.Use = "update <plan-id>"
	}

	flags.register(cmd)
	return cmd
}

func newDeleteCommand(g *app.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <plan-id>",
		Short: "Delete a plan (admin wallet required)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.Bootstrap(g, app.Needs{Wallet: true})
			if err != nil {
				return err
			}
			defer env.Close()

			_, err = env.Container.ManagePlan.Execute(cmd.Context(), usecases.ManagePlanCommand{
				Signer: env.Container.MessageSigner(),
				Action: usecases.PlanActionDelete,
				PlanID: args[0],
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "plan %s deleted\n", args[0])
			return nil
		},
	}
}

func planTable(plans ...*dto.PlanDTO) app.TableFunc {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tNAME\tPRICE\tEVERY\tCHAIN\tACTIVE")
		for _, p := range plans {
			if p == nil || p.Plan == nil {
				continue
			}
			chain := "-"
			if p.ChainID != nil {
				chain = fmt.Sprint(*p.ChainID)
			}
			active := p.Active == nil || *p.Active
			fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\t%s\t%t\n",
				p.ID, p.Name, p.DisplayPrice, p.TokenSymbol, p.DisplayInterval, chain, active)
		}
	}
}
