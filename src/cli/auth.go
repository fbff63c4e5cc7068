package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/username/pettyvault/src/client"
	"github.com/username/pettyvault/src/model"
	"github.com/username/pettyvault/src/session"
)

// NewAuthCommands returns the account-level commands: login, signup,
// logout and whoami.
func NewAuthCommands(opts *RootOptions) []*cobra.Command {
	return []*cobra.Command{
		newLoginCommand(opts),
		newSignupCommand(opts),
		newLogoutCommand(opts),
		newWhoamiCommand(opts),
	}
}

func newLoginCommand(opts *RootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:          "login",
		Short:        "Log in and store the session",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}

			result, err := api.Login(client.LoginPayload{Email: email, Password: password})
			if err != nil {
				return err
			}

			// A fresh login replaces the whole session, including any
			// previously selected company.
			if err := store.Clear(); err != nil {
				return err
			}
			userJSON, err := json.Marshal(result.User)
			if err != nil {
				return err
			}
			if err := store.Set(session.KeyToken, result.Token); err != nil {
				return err
			}
			if err := store.Set(session.KeyUser, string(userJSON)); err != nil {
				return err
			}
			if err := store.Set(session.KeyExpirationTime, strconv.FormatInt(result.ExpiresAt, 10)); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s. Select a company with 'pcash companies use <id>'.\n", result.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newSignupCommand(opts *RootOptions) *cobra.Command {
	var name, email, password, inviteToken string

	cmd := &cobra.Command{
		Use:          "signup",
		Short:        "Create an account",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, api, err := opts.env()
			if err != nil {
				return err
			}

			payload := client.SignupPayload{
				Name:        name,
				Email:       email,
				Password:    password,
				InviteToken: inviteToken,
			}
			user, err := api.Signup(payload)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s. Log in with 'pcash login'.\n", user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&inviteToken, "invite-token", "", "invite token from an invitation email")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "logout",
		Short:        "Log out and clear the session",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}

			if store.Token() != "" {
				// Best effort; the local session is cleared either way.
				if err := api.Logout(); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "server logout failed: %v\n", err)
				}
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "whoami",
		Short:        "Show the logged-in account",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, api, err := opts.env()
			if err != nil {
				return err
			}
			// No role needed, only a live session.
			if err := requireGate(store, model.RoleEmployee, anyRole()...); err != nil {
				return err
			}

			user, err := api.Me()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", user.Name, user.Email)
			if companyID := store.CompanyID(); companyID != "" {
				role, _ := store.Role()
				fmt.Fprintf(cmd.OutOrStdout(), "Active company: %s (%s)\n", companyID, role)
			}
			return nil
		},
	}
}
