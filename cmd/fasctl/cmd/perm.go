package cmd

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/fasops-io/fasops/internal/console/authz"
)

var permCmd = &cobra.Command{
	Use:   "perm",
	Short: "Manage permissions",
}

var permListCmd = &cobra.Command{
	Use:   "list",
	Short: "List permissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := guard(cmd.Context(), "perm list", authz.Requirement{Permission: "roles.manage"})
		if err != nil {
			return err
		}
		perms, err := rt.Client.ListPermissions(cmd.Context())
		if err != nil {
			return err
		}
		rows := pterm.TableData{{"ID", "NAME"}}
		for _, p := range perms {
			rows = append(rows, []string{strconv.FormatInt(p.ID, 10), p.Name})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

var permCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a permission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := guard(cmd.Context(), "perm create", authz.Requirement{Permission: "roles.manage"})
		if err != nil {
			return err
		}
		perm, err := rt.Client.CreatePermission(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Permission %s created with id %d", perm.Name, perm.ID)
		return nil
	},
}

var permDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a permission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := guard(cmd.Context(), "perm delete", authz.Requirement{Permission: "roles.manage"})
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid permission id %q", args[0])
		}
		if err := rt.Client.DeletePermission(cmd.Context(), id); err != nil {
			return err
		}
		pterm.Success.Printfln("Permission %d deleted", id)
		return nil
	},
}

func init() {
	permCmd.AddCommand(permListCmd)
	permCmd.AddCommand(permCreateCmd)
	permCmd.AddCommand(permDeleteCmd)
}
