package account

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/subeth/subeth/internal/application/subscription/dto"
	"github.com/subeth/subeth/internal/interfaces/cli/app"
)

func NewCommand(g *app.Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Inspect an account",
	}
	cmd.AddCommand(newStatusCommand(g))
	return cmd
}

func newStatusCommand(g *app.Globals) *cobra.Command {
	var (
		account string
		chainID int64
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show EIP-7702 delegation and admin status",
		Long:  `Show whether an account delegates to the subscription contract on each configured chain, or on one chain with --chain-id.`,
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

			status, err := env.Container.AccountStatus.Execute(cmd.Context(), addr, chainID)
			if err != nil {
				return err
			}
			return env.Print(status, statusTable(status))
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Account address (default: wallet address)")
	cmd.Flags().Int64Var(&chainID, "chain-id", 0, "Chain to check (default: all configured chains)")
	return cmd
}

func statusTable(s *dto.AccountStatusDTO) app.TableFunc {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "Account:\t%s\n", s.Account)
		fmt.Fprintf(tw, "Admin:\t%t\n\n", s.IsAdmin)
		fmt.Fprintln(tw, "CHAIN\tDELEGATED\tTARGET")
		for _, d := range s.Delegations {
			fmt.Fprintf(tw, "%d\t%t\t%s\n", d.ChainID, d.Delegated, app.Or(d.Target))
		}
	}
}
