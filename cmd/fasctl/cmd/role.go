package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fasops-io/fasops/internal/console/api"
	"github.com/fasops-io/fasops/internal/console/authz"
	"github.com/fasops-io/fasops/internal/console/reconcile"
)

// Role administration is gated by the roles.manage permission; deleting a
// role is admin-only.
var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Manage roles and their permissions",
}

var roleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List roles with their permissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := guard(cmd.Context(), "role list", authz.Requirement{Permission: "roles.manage"})
		if err != nil {
			return err
		}
		roles, err := rt.Client.ListRoles(cmd.Context())
		if err != nil {
			return err
		}
		rows := pterm.TableData{{"ID", "NAME", "PERMISSIONS"}}
		for _, role := range roles {
			names := make([]string, 0, len(role.Permissions))
			for _, p := range role.Permissions {
				names = append(names, p.Name)
			}
			rows = append(rows, []string{strconv.FormatInt(role.ID, 10), role.Name, strings.Join(names, ", ")})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

var createPerms []string

var roleCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a role, optionally granting permissions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := guard(cmd.Context(), "role create", authz.Requirement{Permission: "roles.manage"})
		if err != nil {
			return err
		}
		result := rt.Reconciler.Apply(cmd.Context(), reconcile.Edit{
			Name:    args[0],
			Desired: createPerms,
		})
		reportReconcile(result)
		return result.Err()
	},
}

var editPerms []string

var roleEditCmd = &cobra.Command{
	Use:   "edit ID --permissions a.read,b.read",
	Short: "Set a role's desired permission set",
	Long: `Fetches the role's current permissions, diffs them against the desired
set and issues only the minimal grant/revoke calls. Steps that already
succeeded are not rolled back when a later step fails; re-run the command to
apply the remaining delta.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := guard(cmd.Context(), "role edit", authz.Requirement{Permission: "roles.manage"})
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid role id %q", args[0])
		}

		// Roles and permissions load independently; fetch both at once.
		var roles []api.Role
		var known []api.Permission
		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			var err error
			roles, err = rt.Client.ListRoles(ctx)
			return err
		})
		g.Go(func() error {
			var err error
			known, err = rt.Client.ListPermissions(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		var original []string
		found := false
		for _, role := range roles {
			if role.ID == id {
				found = true
				for _, p := range role.Permissions {
					original = append(original, p.Name)
				}
			}
		}
		if !found {
			return fmt.Errorf("role %d not found", id)
		}

		knownNames := make(map[string]struct{}, len(known))
		for _, p := range known {
			knownNames[p.Name] = struct{}{}
		}
		for _, name := range editPerms {
			if _, ok := knownNames[name]; !ok {
				return fmt.Errorf("unknown permission %q: create it first with `fasctl perm create`", name)
			}
		}

		result := rt.Reconciler.Apply(cmd.Context(), reconcile.Edit{
			RoleID:   &id,
			Original: original,
			Desired:  editPerms,
		})
		reportReconcile(result)

		// Refresh so the operator sees the true resulting state even after a
		// partial failure.
		if roles, err := rt.Client.ListRoles(cmd.Context()); err == nil {
			for _, role := range roles {
				if role.ID == id {
					names := make([]string, 0, len(role.Permissions))
					for _, p := range role.Permissions {
						names = append(names, p.Name)
					}
					pterm.Info.Printfln("Role %s now has: %s", role.Name, strings.Join(names, ", "))
				}
			}
		}
		return result.Err()
	},
}

var roleDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a role (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := guard(cmd.Context(), "role delete", authz.Requirement{AdminOnly: true})
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid role id %q", args[0])
		}
		if err := rt.Client.DeleteRole(cmd.Context(), id); err != nil {
			return err
		}
		pterm.Success.Printfln("Role %d deleted", id)
		return nil
	},
}

func reportReconcile(result reconcile.Result) {
	if result.Created {
		pterm.Success.Printfln("Role created with id %d", result.RoleID)
	}
	if result.Granted {
		pterm.Success.Println("Permissions granted")
	}
	if result.Revoked {
		pterm.Success.Println("Permissions revoked")
	}
	if result.RoleErr != nil {
		pterm.Error.Printfln("role step failed: %v", result.RoleErr)
	}
	if result.GrantErr != nil {
		pterm.Error.Printfln("grant step failed: %v", result.GrantErr)
	}
	if result.RevokeErr != nil {
		pterm.Error.Printfln("revoke step failed: %v", result.RevokeErr)
	}
}

func init() {
	roleCreateCmd.Flags().StringSliceVar(&createPerms, "permissions", nil, "permissions to grant to the new role")
	roleEditCmd.Flags().StringSliceVar(&editPerms, "permissions", nil, "the complete desired permission set")
	_ = roleEditCmd.MarkFlagRequired("permissions")
	roleCmd.AddCommand(roleListCmd)
	roleCmd.AddCommand(roleCreateCmd)
	roleCmd.AddCommand(roleEditCmd)
	roleCmd.AddCommand(roleDeleteCmd)
}
