package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fasops-io/fasops/internal/console/api"
)

type fakeRoleAPI struct {
	createErr error
	updateErr error
	grantErr  error
	revokeErr error

	nextID  int64
	created []string
	updated map[int64]string
	granted map[int64][]string
	revoked map[int64][]string
	order   []string
}

func newFakeRoleAPI() *fakeRoleAPI {
	return &fakeRoleAPI{
		nextID:  100,
		updated: make(map[int64]string),
		granted: make(map[int64][]string),
		revoked: make(map[int64][]string),
	}
}

func (f *fakeRoleAPI) CreateRole(ctx context.Context, name string) (*api.Role, error) {
	f.order = append(f.order, "create")
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	f.created = append(f.created, name)
	return &api.Role{ID: f.nextID, Name: name}, nil
}

func (f *fakeRoleAPI) UpdateRole(ctx context.Context, id int64, name string) (*api.Role, error) {
	f.order = append(f.order, "update")
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updated[id] = name
	return &api.Role{ID: id, Name: name}, nil
}

func (f *fakeRoleAPI) AssignPermissions(ctx context.Context, roleID int64, names []string) error {
	f.order = append(f.order, "grant")
	if f.grantErr != nil {
		return f.grantErr
	}
	f.granted[roleID] = append(f.granted[roleID], names...)
	return nil
}

func (f *fakeRoleAPI) RevokePermissions(ctx context.Context, roleID int64, names []string) error {
	f.order = append(f.order, "revoke")
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked[roleID] = append(f.revoked[roleID], names...)
	return nil
}

func TestDiff(t *testing.T) {
	cases := []struct {
		name     string
		original []string
		desired  []string
		grant    []string
		revoke   []string
	}{
		{
			name:     "disjoint delta",
			original: []string{"a", "b", "c"},
			desired:  []string{"b", "c", "d"},
			grant:    []string{"d"},
			revoke:   []string{"a"},
		},
		{
			name:     "identical sets produce empty plan",
			original: []string{"a", "b"},
			desired:  []string{"b", "a"},
		},
		{
			name:    "everything granted from scratch",
			desired: []string{"y", "x"},
			grant:   []string{"x", "y"},
		},
		{
			name:     "everything revoked",
			original: []string{"x", "y"},
			revoke:   []string{"x", "y"},
		},
		{
			name:     "duplicates collapse",
			original: []string{"a", "a"},
			desired:  []string{"a", "b", "b"},
			grant:    []string{"b"},
		},
		{
			name:     "empty names ignored",
			original: []string{"", "a"},
			desired:  []string{"a", ""},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan := Diff(tc.original, tc.desired)
			assert.Equal(t, tc.grant, plan.Grant)
			assert.Equal(t, tc.revoke, plan.Revoke)
			assert.Equal(t, len(tc.grant) == 0 && len(tc.revoke) == 0, plan.Empty())
		})
	}
}

func TestDiffIsIdempotent(t *testing.T) {
	// Applying the plan to the original yields the desired set, and diffing
	// desired against itself yields nothing left to do.
	plan := Diff([]string{"a", "b"}, []string{"b", "c"})
	require.False(t, plan.Empty())

	again := Diff([]string{"b", "c"}, []string{"b", "c"})
	assert.True(t, again.Empty(), "second pass: %+v", again)
}

func TestApplyCreatesRoleBeforePermissions(t *testing.T) {
	client := newFakeRoleAPI()
	r := New(client)

	result := r.Apply(context.Background(), Edit{
		Name:    "dispatcher",
		Desired: []string{"workorders.edit", "workorders.view"},
	})

	require.NoError(t, result.Err())
	assert.True(t, result.Created)
	assert.NotZero(t, result.RoleID, "server id missing")
	assert.Equal(t, []string{"workorders.edit", "workorders.view"}, client.granted[result.RoleID])
	require.NotEmpty(t, client.order)
	assert.Equal(t, "create", client.order[0], "create did not run first: %v", client.order)
}

func TestApplyCreateFailureStopsEverything(t *testing.T) {
	client := newFakeRoleAPI()
	client.createErr = errors.New("duplicate role name")
	r := New(client)

	result := r.Apply(context.Background(), Edit{Name: "dup", Desired: []string{"a"}})

	require.Error(t, result.RoleErr)
	assert.Empty(t, client.granted, "permission calls issued without a role id")
	assert.Empty(t, client.revoked, "permission calls issued without a role id")
}

func TestApplyGrantAndRevokeAreIndependent(t *testing.T) {
	id := int64(5)
	client := newFakeRoleAPI()
	client.grantErr = errors.New("unknown permission")
	r := New(client)

	result := r.Apply(context.Background(), Edit{
		RoleID:   &id,
		Original: []string{"old.perm"},
		Desired:  []string{"new.perm"},
	})

	// The grant failed but the revoke still ran. Nothing is rolled back.
	require.Error(t, result.GrantErr)
	assert.True(t, result.Revoked, "revoke skipped after grant failure")
	assert.Equal(t, []string{"old.perm"}, client.revoked[id])
	assert.Error(t, result.Err(), "aggregate error missing")
}

func TestApplyRenameFailureStillReconcilesPermissions(t *testing.T) {
	id := int64(7)
	client := newFakeRoleAPI()
	client.updateErr = errors.New("conflict")
	r := New(client)

	result := r.Apply(context.Background(), Edit{
		RoleID:  &id,
		Name:    "renamed",
		Desired: []string{"p1"},
	})

	require.Error(t, result.RoleErr)
	assert.True(t, result.Granted, "grant skipped after rename failure")
}

func TestApplyEqualSetsIssueNoPermissionCalls(t *testing.T) {
	id := int64(3)
	client := newFakeRoleAPI()
	r := New(client)

	result := r.Apply(context.Background(), Edit{
		RoleID:   &id,
		Original: []string{"a", "b"},
		Desired:  []string{"b", "a"},
	})

	require.NoError(t, result.Err())
	assert.Empty(t, client.granted)
	assert.Empty(t, client.revoked)
}

func TestApplyExistingRoleSkipsRenameWhenNameEmpty(t *testing.T) {
	id := int64(9)
	client := newFakeRoleAPI()
	r := New(client)

	result := r.Apply(context.Background(), Edit{RoleID: &id, Desired: []string{"p"}})

	require.NoError(t, result.Err())
	assert.Empty(t, client.updated, "rename issued for empty name")
	assert.Equal(t, id, result.RoleID)
}
