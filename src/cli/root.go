// Package cli implements the pcash command line client. Each command
// plays the role of a page: it checks the session gate, calls the API
// facade, and renders the result. Lists are always re-fetched after a
// mutation rather than patched locally.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/username/pettyvault/src/client"
	"github.com/username/pettyvault/src/model"
	"github.com/username/pettyvault/src/session"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	APIBaseURL  string
	SessionFile string
}

func defaultSessionFile() string {
	if v := os.Getenv("SESSION_FILE"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pcash-session.json"
	}
	return filepath.Join(home, ".pcash", "session.json")
}

func defaultAPIBaseURL() string {
	if v := os.Getenv("API_BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

// NewRootCommand creates the root command for the pcash CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "pcash",
		Short: "pcash - petty cash requisitions from the terminal",
		Long:  "Command line client for the pettyvault petty-cash requisition service.",
	}

	cmd.PersistentFlags().StringVar(&opts.APIBaseURL, "api", defaultAPIBaseURL(), "API base URL")
	cmd.PersistentFlags().StringVar(&opts.SessionFile, "session", defaultSessionFile(), "session file path")

	cmd.AddCommand(NewAuthCommands(opts)...)
	cmd.AddCommand(NewCompaniesCommand(opts))
	cmd.AddCommand(NewFundsCommand(opts))
	cmd.AddCommand(NewRequisitionsCommand(opts))
	cmd.AddCommand(NewApprovalsCommand(opts))
	cmd.AddCommand(NewTransactionsCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewDashboardCommand(opts))
	cmd.AddCommand(NewThemeCommand(opts))

	return cmd
}

// NewThemeCommand toggles the persisted dark mode preference. It is a
// session setting, kept alongside the login state.
func NewThemeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "theme [dark|light]",
		Short:        "Show or set the display theme preference",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := opts.env()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				theme := "light"
				if v, ok := store.Get(session.KeyDarkMode); ok && v == "true" {
					theme = "dark"
				}
				fmt.Fprintln(cmd.OutOrStdout(), theme)
				return nil
			}

			switch args[0] {
			case "dark":
				return store.Set(session.KeyDarkMode, "true")
			case "light":
				return store.Set(session.KeyDarkMode, "false")
			default:
				return fmt.Errorf("unknown theme %q, expected dark or light", args[0])
			}
		},
	}
}

// env opens the session store and builds the API client for a
// command invocation.
func (o *RootOptions) env() (*session.Store, *client.Client, error) {
	store, err := session.NewStore(o.SessionFile)
	if err != nil {
		return nil, nil, fmt.Errorf("opening session file: %w", err)
	}
	return store, client.New(o.APIBaseURL, store), nil
}

// requireGate runs the page gate before a protected command. An
// expired session clears the store; an insufficient role is refused.
// A zero defaultRole means a missing stored role is rejected.
func requireGate(store *session.Store, defaultRole model.Role, allowed ...model.Role) error {
	gate := session.Gate{
		Store:       store,
		Allowed:     allowed,
		DefaultRole: defaultRole,
	}
	switch gate.Check() {
	case session.Invalid:
		if err := store.Clear(); err != nil {
			return fmt.Errorf("clearing expired session: %w", err)
		}
		return fmt.Errorf("session expired, please log in again")
	case session.Unauthorized:
		return fmt.Errorf("you do not have permission to view this page")
	}
	return nil
}

// anyRole gates on authentication only.
func anyRole() []model.Role {
	return []model.Role{model.RoleAdmin, model.RoleFinance, model.RoleEmployee}
}
