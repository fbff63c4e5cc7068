package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/username/pettyvault/src/model"
	"github.com/username/pettyvault/src/services"
)

// NewReportCommand groups the pre-computed report views.
func NewReportCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show activity reports",
	}

	cmd.AddCommand(
		newReportUserCommand(opts),
		newReportCompanyCommand(opts),
	)
	return cmd
}

func printCounts(w io.Writer, c services.StatusCounts) {
	renderTable(w, []string{"PENDING", "APPROVED", "REJECTED", "STALLED", "DRAFTS"}, [][]string{{
		fmt.Sprint(c.Pending),
		fmt.Sprint(c.Approved),
		fmt.Sprint(c.Rejected),
		fmt.Sprint(c.Stalled),
		fmt.Sprint(c.Drafts),
	}})
}

func newReportUserCommand(opts *RootOptions) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:          "user",
		Short:        "Your own requisition activity",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			if err := requireGate(store, "", anyRole()...); err != nil {
				return err
			}

			report, err := api.UserReport(month)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.Month != "" {
				fmt.Fprintf(out, "Month: %s\n", report.Month)
			}
			fmt.Fprintf(out, "Requested: %s  Approved: %s\n\n",
				formatAmount(report.TotalRequested), formatAmount(report.TotalApproved))
			printCounts(out, report.Counts)
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "restrict to a month (YYYY-MM)")
	return cmd
}

func newReportCompanyCommand(opts *RootOptions) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:          "company",
		Short:        "Company-wide requisition and fund activity",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			if err := requireGate(store, "", model.RoleAdmin, model.RoleFinance); err != nil {
				return err
			}

			report, err := api.CompanyReport(month)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.Month != "" {
				fmt.Fprintf(out, "Month: %s\n", report.Month)
			}
			fmt.Fprintf(out, "Requested: %s  Approved: %s  Spent: %s  Added: %s\n\n",
				formatAmount(report.TotalRequested), formatAmount(report.TotalApproved),
				formatAmount(report.TotalSpent), formatAmount(report.TotalAdded))
			printCounts(out, report.Counts)
			fmt.Fprintln(out)

			rows := make([][]string, 0, len(report.Funds))
			for _, f := range report.Funds {
				rows = append(rows, []string{
					f.FundName,
					formatAmount(f.CurrentBalance),
					formatAmount(f.TotalSpent),
					formatAmount(f.TotalAdded),
				})
			}
			renderTable(out, []string{"FUND", "BALANCE", "SPENT", "ADDED"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "restrict to a month (YYYY-MM)")
	return cmd
}

// NewDashboardCommand renders the admin aggregate view.
func NewDashboardCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "dashboard",
		Short:        "Admin overview of funds, members and activity",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			if err := requireGate(store, "", model.RoleAdmin); err != nil {
				return err
			}

			dash, err := api.Dashboard()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Funds: %d  Members: %d\n", dash.FundCount, dash.MemberCount)
			fmt.Fprintf(out, "Balance: %s  Spent: %s  Added: %s\n\n",
				formatAmount(dash.TotalBalance), formatAmount(dash.TotalSpent), formatAmount(dash.TotalAdded))
			printCounts(out, dash.Counts)
			fmt.Fprintln(out)
			renderTable(out, transactionHeaders, transactionRows(dash.RecentTransactions))
			return nil
		},
	}
}
