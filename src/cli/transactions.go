package cli

import (
	"encoding/csv"

	"github.com/spf13/cobra"

	"github.com/username/pettyvault/src/client"
	"github.com/username/pettyvault/src/model"
	"github.com/username/pettyvault/src/security/validation"
)

var transactionHeaders = []string{"ID", "FUND", "TYPE", "AMOUNT", "DESCRIPTION", "CREATED"}

func transactionRows(txs []model.Transaction) [][]string {
	rows := make([][]string, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, []string{
			t.ID,
			shortID(t.FundID),
			string(t.Type),
			formatAmount(t.Amount),
			t.Description,
			formatTime(t.CreatedAt),
		})
	}
	return rows
}

// NewTransactionsCommand groups the fund ledger. ADMIN or FINANCE
// only, matching the server gate.
func NewTransactionsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txs"},
		Short:   "Inspect and record fund ledger movements",
	}

	cmd.AddCommand(
		newTransactionsListCommand(opts),
		newTransactionsCreateCommand(opts),
		newTransactionsUpdateCommand(opts),
		newTransactionsDeleteCommand(opts),
		newTransactionsExportCommand(opts),
	)
	return cmd
}

func listTransactions(cmd *cobra.Command, api *client.Client) error {
	txs, err := api.ListTransactions()
	if err != nil {
		return err
	}
	renderTable(cmd.OutOrStdout(), transactionHeaders, transactionRows(txs))
	return nil
}

func newTransactionsListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "list",
		Short:        "List the ledger of the active company",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			if err := requireGate(store, "", model.RoleAdmin, model.RoleFinance); err != nil {
				return err
			}
			return listTransactions(cmd, api)
		},
	}
}

func transactionFlags(cmd *cobra.Command, payload *client.TransactionPayload) {
	cmd.Flags().StringVar(&payload.FundID, "fund", "", "fund id")
	cmd.Flags().Float64Var(&payload.Amount, "amount", 0, "movement amount")
	cmd.Flags().StringVar(&payload.Type, "type", "", "DEBIT or CREDIT")
	cmd.Flags().StringVar(&payload.Description, "description", "", "what the movement is")
}

func newTransactionsCreateCommand(opts *RootOptions) *cobra.Command {
	var payload client.TransactionPayload

	cmd := &cobra.Command{
		Use:          "create",
		Short:        "Record a manual fund movement",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			if err := requireGate(store, "", model.RoleAdmin, model.RoleFinance); err != nil {
				return err
			}

			if _, err := api.CreateTransaction(payload); err != nil {
				return err
			}
			return listTransactions(cmd, api)
		},
	}

	transactionFlags(cmd, &payload)
	cmd.MarkFlagRequired("fund")
	cmd.MarkFlagRequired("amount")
	cmd.MarkFlagRequired("type")
	return cmd
}

func newTransactionsUpdateCommand(opts *RootOptions) *cobra.Command {
	var payload client.TransactionPayload

	cmd := &cobra.Command{
		Use:          "update <transaction-id>",
		Short:        "Rewrite a manual fund movement",
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

			if _, err := api.UpdateTransaction(args[0], payload); err != nil {
				return err
			}
			return listTransactions(cmd, api)
		},
	}

	transactionFlags(cmd, &payload)
	cmd.MarkFlagRequired("fund")
	cmd.MarkFlagRequired("amount")
	cmd.MarkFlagRequired("type")
	return cmd
}

func newTransactionsExportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "export",
		Short:        "Write the ledger of the active company as CSV to stdout",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			if err := requireGate(store, "", model.RoleAdmin, model.RoleFinance); err != nil {
				return err
			}

			txs, err := api.ListTransactions()
			if err != nil {
				return err
			}

			w := csv.NewWriter(cmd.OutOrStdout())
			if err := w.Write([]string{"id", "fund_id", "type", "amount", "description", "created_at"}); err != nil {
				return err
			}
			for _, t := range txs {
				record := []string{
					t.ID,
					t.FundID,
					string(t.Type),
					formatAmount(t.Amount),
					// Descriptions are free text destined for a
					// spreadsheet, so formula characters get escaped.
					validation.SanitizeForFormulaInjection(t.Description),
					formatTime(t.CreatedAt),
				}
				if err := w.Write(record); err != nil {
					return err
				}
			}
			w.Flush()
			return w.Error()
		},
	}
}

func newTransactionsDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "delete <transaction-id>",
		Short:        "Delete a manual fund movement",
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

			if err := api.DeleteTransaction(args[0]); err != nil {
				return err
			}
			return listTransactions(cmd, api)
		},
	}
}
