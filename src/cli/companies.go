package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/username/pettyvault/src/client"
	"github.com/username/pettyvault/src/model"
	"github.com/username/pettyvault/src/session"
)

// NewCompaniesCommand groups company management: list, create, use
// (select the active company), update, members, invite, remove-user.
func NewCompaniesCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "companies",
		Short: "Manage companies and the active company selection",
	}

	cmd.AddCommand(
		newCompaniesListCommand(opts),
		newCompaniesCreateCommand(opts),
		newCompaniesUseCommand(opts),
		newCompaniesUpdateCommand(opts),
		newCompaniesMembersCommand(opts),
		newCompaniesInviteCommand(opts),
		newCompaniesRemoveUserCommand(opts),
	)
	return cmd
}

func newCompaniesListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "list",
		Short:        "List your companies",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			// The company picker is reachable before a company is
			// selected, so a missing role counts as EMPLOYEE here.
			if err := requireGate(store, model.RoleEmployee, anyRole()...); err != nil {
				return err
			}

			companies, err := api.ListCompanies()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(companies))
			for _, c := range companies {
				rows = append(rows, []string{c.ID, c.Name, string(c.Role), c.City, c.Country})
			}
			renderTable(cmd.OutOrStdout(), []string{"ID", "NAME", "ROLE", "CITY", "COUNTRY"}, rows)
			return nil
		},
	}
}

func newCompaniesUseCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "use <company-id>",
		Short:        "Select the active company",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			if err := requireGate(store, model.RoleEmployee, anyRole()...); err != nil {
				return err
			}

			companies, err := api.ListCompanies()
			if err != nil {
				return err
			}
			for _, c := range companies {
				if c.ID == args[0] {
					if err := store.Set(session.KeyCompanyID, c.ID); err != nil {
						return err
					}
					if err := store.Set(session.KeyUserRole, string(c.Role)); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Active company set to %s (%s).\n", c.Name, c.Role)
					return nil
				}
			}
			return fmt.Errorf("you are not a member of company %s", args[0])
		},
	}
}

func companyFlags(cmd *cobra.Command, payload *client.CompanyPayload) {
	cmd.Flags().StringVar(&payload.Name, "name", "", "company name")
	cmd.Flags().StringVar(&payload.Street, "street", "", "street address")
	cmd.Flags().StringVar(&payload.City, "city", "", "city")
	cmd.Flags().StringVar(&payload.State, "state", "", "state or province")
	cmd.Flags().StringVar(&payload.Country, "country", "", "country")
	cmd.Flags().StringVar(&payload.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&payload.Email, "email", "", "contact email")
}

func newCompaniesCreateCommand(opts *RootOptions) *cobra.Command {
	var payload client.CompanyPayload

	cmd := &cobra.Command{
		Use:          "create",
		Short:        "Create a company (you become its ADMIN)",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			if err := requireGate(store, model.RoleEmployee, anyRole()...); err != nil {
				return err
			}

			company, err := api.CreateCompany(payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Company %s created with id %s.\n", company.Name, company.ID)
			return nil
		},
	}

	companyFlags(cmd, &payload)
	cmd.MarkFlagRequired("name")
	return cmd
}

func newCompaniesUpdateCommand(opts *RootOptions) *cobra.Command {
	var payload client.CompanyPayload

	cmd := &cobra.Command{
		Use:          "update",
		Short:        "Update the active company",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			if err := requireGate(store, "", model.RoleAdmin); err != nil {
				return err
			}

			company, err := api.UpdateCompany(store.CompanyID(), payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Company %s updated.\n", company.Name)
			return nil
		},
	}

	companyFlags(cmd, &payload)
	cmd.MarkFlagRequired("name")
	return cmd
}

func newCompaniesMembersCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "members",
		Short:        "List the members of the active company",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			if err := requireGate(store, "", anyRole()...); err != nil {
				return err
			}

			members, err := api.ListUsers()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(members))
			for _, m := range members {
				rows = append(rows, []string{strconv.FormatInt(m.UserID, 10), m.Name, m.Email, string(m.Role)})
			}
			renderTable(cmd.OutOrStdout(), []string{"ID", "NAME", "EMAIL", "ROLE"}, rows)
			return nil
		},
	}
}

func newCompaniesInviteCommand(opts *RootOptions) *cobra.Command {
	var email, role string

	cmd := &cobra.Command{
		Use:          "invite",
		Short:        "Invite someone to the active company",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			if err := requireGate(store, "", model.RoleAdmin); err != nil {
				return err
			}

			if err := api.Invite(client.InvitePayload{Email: email, Role: role}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Invite sent to %s.\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "invitee email")
	cmd.Flags().StringVar(&role, "role", string(model.RoleEmployee), "role to grant (ADMIN|FINANCE|EMPLOYEE)")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newCompaniesRemoveUserCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "remove-user <user-id>",
		Short:        "Remove a member from the active company",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			if err := requireGate(store, "", model.RoleAdmin); err != nil {
				return err
			}

			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			if err := api.RemoveUser(store.CompanyID(), userID); err != nil {
				return err
			}

			// Re-fetch and show the member list after the mutation.
			members, err := api.ListUsers()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(members))
			for _, m := range members {
				rows = append(rows, []string{strconv.FormatInt(m.UserID, 10), m.Name, m.Email, string(m.Role)})
			}
			renderTable(cmd.OutOrStdout(), []string{"ID", "NAME", "EMAIL", "ROLE"}, rows)
			return nil
		},
	}
}
