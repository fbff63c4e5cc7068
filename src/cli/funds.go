package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/username/pettyvault/src/client"
	"github.com/username/pettyvault/src/model"
)

// NewFundsCommand groups petty fund management.
func NewFundsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "funds",
		Short: "Manage petty cash funds",
	}

	cmd.AddCommand(
		newFundsListCommand(opts),
		newFundsShowCommand(opts),
		newFundsCreateCommand(opts),
		newFundsRenameCommand(opts),
		newFundsDeleteCommand(opts),
	)
	return cmd
}

func fundRows(funds []model.PettyFund) [][]string {
	rows := make([][]string, 0, len(funds))
	for _, f := range funds {
		rows = append(rows, []string{
			f.ID,
			f.Name,
			formatAmount(f.CurrentBalance),
			formatAmount(f.TotalSpent),
			formatAmount(f.TotalAdded),
		})
	}
	return rows
}

var fundHeaders = []string{"ID", "NAME", "BALANCE", "SPENT", "ADDED"}

func listFunds(cmd *cobra.Command, api *client.Client) error {
	funds, err := api.ListFunds()
	if err != nil {
		return err
	}
	renderTable(cmd.OutOrStdout(), fundHeaders, fundRows(funds))
	return nil
}

func newFundsListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "list",
		Short:        "List funds of the active company",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			if err := requireGate(store, "", anyRole()...); err != nil {
				return err
			}
			return listFunds(cmd, api)
		},
	}
}

func newFundsShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "show <fund-id>",
		Short:        "Show one fund with its requisitions",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			if err := requireGate(store, "", anyRole()...); err != nil {
				return err
			}

			fund, err := api.GetFund(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", fund.Name, fund.ID)
			fmt.Fprintf(out, "Balance: %s  Spent: %s  Added: %s\n\n",
				formatAmount(fund.CurrentBalance), formatAmount(fund.TotalSpent), formatAmount(fund.TotalAdded))
			renderTable(out, requisitionHeaders, requisitionRows(fund.Requisitions))
			return nil
		},
	}
}

func newFundsCreateCommand(opts *RootOptions) *cobra.Command {
	var payload client.FundPayload

	cmd := &cobra.Command{
		Use:          "create",
		Short:        "Create a fund with an opening balance",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			if err := requireGate(store, "", model.RoleAdmin, model.RoleFinance); err != nil {
				return err
			}

			if _, err := api.CreateFund(payload); err != nil {
				return err
			}
			return listFunds(cmd, api)
		},
	}

	cmd.Flags().StringVar(&payload.Name, "name", "", "fund name")
	cmd.Flags().Float64Var(&payload.Amount, "amount", 0, "opening balance")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("amount")
	return cmd
}

func newFundsRenameCommand(opts *RootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:          "rename <fund-id>",
		Short:        "Rename a fund",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			if err := requireGate(store, "", model.RoleAdmin, model.RoleFinance); err != nil {
				return err
			}

			if _, err := api.RenameFund(args[0], name); err != nil {
				return err
			}
			return listFunds(cmd, api)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new fund name")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newFundsDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "delete <fund-id>",
		Short:        "Delete a fund without requisitions",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			if err := requireGate(store, "", model.RoleAdmin, model.RoleFinance); err != nil {
				return err
			}

			if err := api.DeleteFund(args[0]); err != nil {
				return err
			}
			return listFunds(cmd, api)
		},
	}
}
