// Package reconcile turns an edited role permission set into the minimal
// grant/revoke calls against the backend.
package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fasops-io/fasops/internal/console/api"
)

// RoleAPI is the part of the API client the reconciler uses.
type RoleAPI interface {
	CreateRole(ctx context.Context, name string) (*api.Role, error)
	UpdateRole(ctx context.Context, id int64, name string) (*api.Role, error)
	AssignPermissions(ctx context.Context, roleID int64, names []string) error
	RevokePermissions(ctx context.Context, roleID int64, names []string) error
}

// Edit captures one role edit session: the role (nil RoleID means creating a
// new role), the desired name, and the permission sets before and after
// editing.
type Edit struct {
	RoleID   *int64
	Name     string
	Original []string
	Desired  []string
}

// Plan is the grant/revoke delta. The two sets are disjoint by construction.
type Plan struct {
	Grant  []string
	Revoke []string
}

// Empty reports whether the plan issues no permission calls.
func (p Plan) Empty() bool {
	return len(p.Grant) == 0 && len(p.Revoke) == 0
}

// Diff computes the minimal delta between the original and desired sets.
// Inputs are treated as sets: duplicates collapse, order is irrelevant.
// Outputs are sorted for deterministic backend calls.
func Diff(original, desired []string) Plan {
	before := toSet(original)
	after := toSet(desired)

	var plan Plan
	for name := range after {
		if _, ok := before[name]; !ok {
			plan.Grant = append(plan.Grant, name)
		}
	}
	for name := range before {
		if _, ok := after[name]; !ok {
			plan.Revoke = append(plan.Revoke, name)
		}
	}
	sort.Strings(plan.Grant)
	sort.Strings(plan.Revoke)
	return plan
}

// Result reports what Apply managed to do. Steps already applied are never
// rolled back: a partial result is a real, documented outcome.
type Result struct {
	RoleID  int64
	Created bool
	Granted bool
	Revoked bool

	RoleErr   error
	GrantErr  error
	RevokeErr error
}

// Err aggregates the step failures, or returns nil when everything applied.
func (r Result) Err() error {
	var steps []string
	if r.RoleErr != nil {
		steps = append(steps, fmt.Sprintf("role: %v", r.RoleErr))
	}
	if r.GrantErr != nil {
		steps = append(steps, fmt.Sprintf("grant: %v", r.GrantErr))
	}
	if r.RevokeErr != nil {
		steps = append(steps, fmt.Sprintf("revoke: %v", r.RevokeErr))
	}
	if len(steps) == 0 {
		return nil
	}
	return fmt.Errorf("reconcile: %s", strings.Join(steps, "; "))
}

// Reconciler sequences role create/update and permission grant/revoke calls.
type Reconciler struct {
	client RoleAPI
}

// New constructs a Reconciler.
func New(client RoleAPI) *Reconciler {
	return &Reconciler{client: client}
}

// Apply executes an edit. For a new role, creation must complete and yield a
// server id before any permission call. Grant and revoke are independent:
// a grant failure does not stop the revoke attempt, and nothing is rolled
// back. Equal original/desired sets issue zero permission calls.
func (r *Reconciler) Apply(ctx context.Context, edit Edit) Result {
	var result Result

	switch {
	case edit.RoleID == nil:
		role, err := r.client.CreateRole(ctx, edit.Name)
		if err != nil {
			// Without a role id neither grant nor revoke can be addressed.
			result.RoleErr = err
			return result
		}
		result.RoleID = role.ID
		result.Created = true
	default:
		result.RoleID = *edit.RoleID
		if edit.Name != "" {
			if _, err := r.client.UpdateRole(ctx, result.RoleID, edit.Name); err != nil {
				result.RoleErr = err
			}
		}
	}

	plan := Diff(edit.Original, edit.Desired)
	if len(plan.Grant) > 0 {
		if err := r.client.AssignPermissions(ctx, result.RoleID, plan.Grant); err != nil {
			result.GrantErr = err
		} else {
			result.Granted = true
		}
	}
	if len(plan.Revoke) > 0 {
		if err := r.client.RevokePermissions(ctx, result.RoleID, plan.Revoke); err != nil {
			result.RevokeErr = err
		} else {
			result.Revoked = true
		}
	}
	return result
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}
