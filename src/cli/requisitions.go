package cli

import (
	"github.com/spf13/cobra"

	"github.com/username/pettyvault/src/client"
	"github.com/username/pettyvault/src/model"
)

var requisitionHeaders = []string{"ID", "TITLE", "AMOUNT", "STATUS", "FUND", "CREATED"}

func requisitionRows(reqs []model.Requisition) [][]string {
	rows := make([][]string, 0, len(reqs))
	for _, r := range reqs {
		rows = append(rows, []string{
			r.ID,
			r.Title,
			formatAmount(r.Amount),
			string(r.Status),
			shortID(r.FundID),
			formatTime(r.CreatedAt),
		})
	}
	return rows
}

// NewRequisitionsCommand groups requisition management.
func NewRequisitionsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "requisitions",
		Aliases: []string{"reqs"},
		Short:   "Create and track petty cash requisitions",
	}

	cmd.AddCommand(
		newRequisitionsListCommand(opts),
		newRequisitionsMineCommand(opts),
		newRequisitionsCreateCommand(opts),
		newRequisitionsUpdateCommand(opts),
		newRequisitionsDeleteCommand(opts),
	)
	return cmd
}

func listMyRequisitions(cmd *cobra.Command, api *client.Client) error {
	reqs, err := api.ListMyRequisitions()
	if err != nil {
		return err
	}
	renderTable(cmd.OutOrStdout(), requisitionHeaders, requisitionRows(reqs))
	return nil
}

func newRequisitionsListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "list",
		Short:        "List all requisitions of the active company",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			if err := requireGate(store, "", model.RoleAdmin, model.RoleFinance); err != nil {
				return err
			}

			reqs, err := api.ListRequisitions()
			if err != nil {
				return err
			}
			renderTable(cmd.OutOrStdout(), requisitionHeaders, requisitionRows(reqs))
			return nil
		},
	}
}

func newRequisitionsMineCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "mine",
		Short:        "List your own requisitions, drafts included",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			if err := requireGate(store, "", anyRole()...); err != nil {
				return err
			}
			return listMyRequisitions(cmd, api)
		},
	}
}

func requisitionFlags(cmd *cobra.Command, payload *client.RequisitionPayload) {
	cmd.Flags().StringVar(&payload.Title, "title", "", "what the money is for")
	cmd.Flags().StringVar(&payload.Description, "description", "", "details")
	cmd.Flags().Float64Var(&payload.Amount, "amount", 0, "requested amount")
	cmd.Flags().StringVar(&payload.FundID, "fund", "", "fund id to draw from")
	cmd.Flags().BoolVar(&payload.Draft, "draft", false, "save as draft instead of submitting")
}

func newRequisitionsCreateCommand(opts *RootOptions) *cobra.Command {
	var payload client.RequisitionPayload

	cmd := &cobra.Command{
		Use:          "create",
		Short:        "Submit a requisition (or save a draft)",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			if err := requireGate(store, "", anyRole()...); err != nil {
				return err
			}

			if _, err := api.CreateRequisition(payload); err != nil {
				return err
			}
			return listMyRequisitions(cmd, api)
		},
	}

	requisitionFlags(cmd, &payload)
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("amount")
	cmd.MarkFlagRequired("fund")
	return cmd
}

func newRequisitionsUpdateCommand(opts *RootOptions) *cobra.Command {
	var payload client.RequisitionPayload

	cmd := &cobra.Command{
		Use:          "update <requisition-id>",
		Short:        "Edit a pending or draft requisition",
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

			if _, err := api.UpdateRequisition(args[0], payload); err != nil {
				return err
			}
			return listMyRequisitions(cmd, api)
		},
	}

	requisitionFlags(cmd, &payload)
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("amount")
	cmd.MarkFlagRequired("fund")
	return cmd
}

func newRequisitionsDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "delete <requisition-id>",
		Short:        "Delete a requisition that is not approved",
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

			if err := api.DeleteRequisition(args[0]); err != nil {
				return err
			}
			return listMyRequisitions(cmd, api)
		},
	}
}
