package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/fasops-io/fasops/internal/console/authz"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the console session",
}

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the fasops backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtime()
		if err != nil {
			return err
		}

		email := loginEmail
		if email == "" {
			email, err = pterm.DefaultInteractiveTextInput.Show("Email")
			if err != nil {
				return err
			}
		}
		password, err := pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password")
		if err != nil {
			return err
		}

		token, err := rt.Client.Login(cmd.Context(), email, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		// Setting the token triggers identity resolution through the store
		// subscription; a rejected token would clear it again.
		if err := rt.Store.SetToken(token); err != nil {
			return fmt.Errorf("save credentials: %w", err)
		}
		if id, ok := rt.Resolver.Current(); ok {
			pterm.Success.Printfln("Logged in as %s (%s)", id.Name, id.Email)
		} else {
			pterm.Success.Println("Logged in")
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtime()
		if err != nil {
			return err
		}
		if _, ok := rt.Store.Token(); ok {
			// Best effort server-side revocation; the local clear is what
			// actually ends the session.
			if err := rt.Client.Logout(cmd.Context()); err != nil {
				pterm.Warning.Printfln("server-side logout failed: %v", err)
			}
		}
		if err := rt.Store.Clear(); err != nil {
			return err
		}
		pterm.Success.Println("Logged out")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := guard(cmd.Context(), "auth status", authz.Requirement{})
		if err != nil {
			return err
		}
		id, ok := rt.Resolver.Current()
		if !ok {
			return fmt.Errorf("no identity resolved")
		}
		pterm.DefaultSection.Println("Session")
		pterm.Printfln("User:        %s <%s> (id %d)", id.Name, id.Email, id.ID)
		pterm.Printfln("Admin:       %v", id.IsAdmin())
		pterm.Printfln("Roles:       %v", id.Roles())
		pterm.Printfln("Permissions: %v", id.Permissions())
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email (prompted when omitted)")
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
}
