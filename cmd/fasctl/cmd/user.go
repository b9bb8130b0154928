package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/fasops-io/fasops/internal/console/authz"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users with their roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := guard(cmd.Context(), "user list", authz.Requirement{Permission: "users.manage"})
		if err != nil {
			return err
		}
		list, err := rt.Client.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		rows := pterm.TableData{{"ID", "NAME", "EMAIL", "ROLES"}}
		for _, u := range list {
			rows = append(rows, []string{
				strconv.FormatInt(u.ID, 10), u.Name, u.Email, strings.Join(u.Roles, ", "),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

var userAssignRoleCmd = &cobra.Command{
	Use:   "assign-role USER_ID ROLE",
	Short: "Attach a role to a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := guard(cmd.Context(), "user assign-role", authz.Requirement{Permission: "users.manage"})
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}
		if err := rt.Client.AssignUserRole(cmd.Context(), id, args[1]); err != nil {
			return err
		}
		pterm.Success.Printfln("Role %s assigned to user %d", args[1], id)
		return nil
	},
}

var userRevokeRoleCmd = &cobra.Command{
	Use:   "revoke-role USER_ID ROLE",
	Short: "Detach a role from a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := guard(cmd.Context(), "user revoke-role", authz.Requirement{Permission: "users.manage"})
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}
		if err := rt.Client.RevokeUserRole(cmd.Context(), id, args[1]); err != nil {
			return err
		}
		pterm.Success.Printfln("Role %s revoked from user %d", args[1], id)
		return nil
	},
}

var userChangePasswordCmd = &cobra.Command{
	Use:   "change-password USER_ID",
	Short: "Set a new password for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := guard(cmd.Context(), "user change-password", authz.Requirement{Permission: "users.manage"})
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}
		password, err := pterm.DefaultInteractiveTextInput.WithMask("*").Show("New password")
		if err != nil {
			return err
		}
		confirmation, err := pterm.DefaultInteractiveTextInput.WithMask("*").Show("Confirm password")
		if err != nil {
			return err
		}
		// Local validation failures never reach the backend.
		if len(password) < 8 {
			return fmt.Errorf("password must be at least 8 characters")
		}
		if password != confirmation {
			return fmt.Errorf("passwords do not match")
		}
		if err := rt.Client.ChangePassword(cmd.Context(), id, password, confirmation); err != nil {
			return err
		}
		pterm.Success.Printfln("Password changed for user %d", id)
		return nil
	},
}

func init() {
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userAssignRoleCmd)
	userCmd.AddCommand(userRevokeRoleCmd)
	userCmd.AddCommand(userChangePasswordCmd)
}
