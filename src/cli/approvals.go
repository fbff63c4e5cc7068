package cli

import (
	"github.com/spf13/cobra"

	"github.com/username/pettyvault/src/client"
	"github.com/username/pettyvault/src/model"
)

// NewApprovalsCommand groups the approval queue actions. All of them
// need the ADMIN or FINANCE role.
func NewApprovalsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approvals",
		Short: "Work the pending requisition queue",
	}

	cmd.AddCommand(
		newApprovalsListCommand(opts),
		newApprovalActionCommand(opts, "approve", "Approve a requisition and debit its fund",
			func(api *client.Client, id string) error { _, err := api.Approve(id); return err }),
		newApprovalActionCommand(opts, "reject", "Reject a requisition",
			func(api *client.Client, id string) error { _, err := api.Reject(id); return err }),
		newApprovalActionCommand(opts, "stall", "Put a requisition on hold",
			func(api *client.Client, id string) error { _, err := api.Stall(id); return err }),
	)
	return cmd
}

func listApprovals(cmd *cobra.Command, api *client.Client) error {
	reqs, err := api.ListApprovals()
	if err != nil {
		return err
	}
	renderTable(cmd.OutOrStdout(), requisitionHeaders, requisitionRows(reqs))
	return nil
}

func newApprovalsListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "list",
		Short:        "List requisitions awaiting a decision",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			if err := requireGate(store, "", model.RoleAdmin, model.RoleFinance); err != nil {
				return err
			}
			return listApprovals(cmd, api)
		},
	}
}

func newApprovalActionCommand(opts *RootOptions, verb, short string, action func(*client.Client, string) error) *cobra.Command {
	return &cobra.Command{
		Use:          verb + " <requisition-id>",
		Short:        short,
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

			if err := action(api, args[0]); err != nil {
				return err
			}
			// The queue is re-fetched so a decided requisition
			// disappears from the listing.
			return listApprovals(cmd, api)
		},
	}
}
