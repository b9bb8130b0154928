package authz

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fasops-io/fasops/internal/console/api"
	"github.com/fasops-io/fasops/internal/console/identity"
	"github.com/fasops-io/fasops/internal/console/session"
)

type fakeMe struct {
	fn func() (*api.MeResponse, error)
}

func (f *fakeMe) Me(ctx context.Context) (*api.MeResponse, error) { return f.fn() }

func resolvedGate(t *testing.T, me *api.MeResponse) *Gate {
	t.Helper()
	store := session.NewStore(nil)
	resolver := identity.NewResolver(&fakeMe{fn: func() (*api.MeResponse, error) { return me, nil }}, store, nil)
	require.NoError(t, store.SetToken("tok"))
	return NewGate(store, resolver)
}

func meWith(roles []string, perms []string) *api.MeResponse {
	me := &api.MeResponse{User: api.User{ID: 1, Name: "Dana"}}
	for _, r := range roles {
		me.Roles = append(me.Roles, api.Ref{Name: r})
	}
	for _, p := range perms {
		me.Permissions = append(me.Permissions, api.Ref{Name: p})
	}
	return me
}

func TestCheckUnauthenticatedWithoutToken(t *testing.T) {
	store := session.NewStore(nil)
	resolver := identity.NewResolver(&fakeMe{fn: func() (*api.MeResponse, error) { return nil, nil }}, store, nil)
	gate := NewGate(store, resolver)

	// No token wins over everything, even a view with no requirement.
	out := gate.Check("roles", Requirement{Permission: "roles.manage"})
	assert.Equal(t, Unauthenticated, out.Decision)
	assert.Equal(t, "roles", out.RequestedView)

	out = gate.Check("home", Requirement{})
	assert.Equal(t, Unauthenticated, out.Decision, "open view still needs a session")
}

func TestCheckPermissionRequirement(t *testing.T) {
	gate := resolvedGate(t, meWith([]string{"manager"}, []string{"workorders.view"}))

	assert.Equal(t, Authorized, gate.Check("workorders", Requirement{Permission: "workorders.view"}).Decision)
	assert.Equal(t, Forbidden, gate.Check("roles", Requirement{Permission: "roles.manage"}).Decision)
}

func TestPermissionRequirementHasNoAdminShortcut(t *testing.T) {
	// Membership in the resolved set is the only thing that authorizes a
	// permission requirement; the admin role name carries no weight here.
	gate := resolvedGate(t, meWith([]string{identity.AdminRole}, []string{"reports.view"}))

	assert.Equal(t, Forbidden, gate.Check("users", Requirement{Permission: "users.manage"}).Decision)
	assert.Equal(t, Authorized, gate.Check("reports", Requirement{Permission: "reports.view"}).Decision)
}

func TestCheckAdminOnly(t *testing.T) {
	admin := resolvedGate(t, meWith([]string{identity.AdminRole}, nil))
	assert.Equal(t, Authorized, admin.Check("settings", Requirement{AdminOnly: true}).Decision)

	manager := resolvedGate(t, meWith([]string{"manager"}, []string{"workorders.view"}))
	assert.Equal(t, Forbidden, manager.Check("settings", Requirement{AdminOnly: true}).Decision)
}

func TestCheckZeroRequirementAdmitsAnyIdentity(t *testing.T) {
	gate := resolvedGate(t, meWith(nil, nil))
	assert.Equal(t, Authorized, gate.Check("home", Requirement{}).Decision)
}

func TestCheckWhileResolutionInFlight(t *testing.T) {
	store := session.NewStore(nil)
	var gate *Gate
	var inFlight Outcome
	client := &fakeMe{}
	client.fn = func() (*api.MeResponse, error) {
		// Identity resolution has started but not finished.
		inFlight = gate.Check("roles", Requirement{Permission: "roles.manage"})
		return meWith(nil, []string{"roles.manage"}), nil
	}
	resolver := identity.NewResolver(client, store, nil)
	gate = NewGate(store, resolver)

	_ = store.SetToken("tok")

	assert.Equal(t, Checking, inFlight.Decision, "decision during resolution")
	assert.Equal(t, Authorized, gate.Check("roles", Requirement{Permission: "roles.manage"}).Decision)
}

func TestCheckTokenWithoutIdentity(t *testing.T) {
	store := session.NewStore(nil)
	client := &fakeMe{fn: func() (*api.MeResponse, error) {
		return nil, errors.New("connection refused")
	}}
	resolver := identity.NewResolver(client, store, nil)
	gate := NewGate(store, resolver)

	_ = store.SetToken("tok")

	// Resolution failed, so nobody is known despite the token.
	assert.Equal(t, Unauthenticated, gate.Check("roles", Requirement{}).Decision)
}

func TestForbiddenDiffersFromUnauthenticated(t *testing.T) {
	gate := resolvedGate(t, meWith([]string{"viewer"}, []string{"reports.view"}))
	out := gate.Check("users", Requirement{Permission: "users.manage"})
	require.Equal(t, Forbidden, out.Decision)
	assert.Equal(t, "forbidden", out.Decision.String())
}

func TestRejectedTokenTurnsIntoUnauthenticated(t *testing.T) {
	store := session.NewStore(nil)
	client := &fakeMe{fn: func() (*api.MeResponse, error) {
		return nil, &api.APIError{StatusCode: http.StatusUnauthorized}
	}}
	resolver := identity.NewResolver(client, store, nil)
	gate := NewGate(store, resolver)

	_ = store.SetToken("expired")

	out := gate.Check("workorders", Requirement{Permission: "workorders.view"})
	assert.Equal(t, Unauthenticated, out.Decision, "forced logout must read as unauthenticated")
}
