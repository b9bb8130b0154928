package rbac

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	roles       map[int64]Role
	rolesByName map[string]int64
	perms       map[int64]Permission
	permsByName map[string]int64
	rolePerms   map[int64]map[int64]struct{}
	userRoles   map[int64]map[int64]struct{}
	nextRoleID  int64
	nextPermID  int64

	attachErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		roles:       make(map[int64]Role),
		rolesByName: make(map[string]int64),
		perms:       make(map[int64]Permission),
		permsByName: make(map[string]int64),
		rolePerms:   make(map[int64]map[int64]struct{}),
		userRoles:   make(map[int64]map[int64]struct{}),
	}
}

func (m *mockRepo) addRole(name string) Role {
	m.nextRoleID++
	role := Role{ID: m.nextRoleID, Name: name, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.roles[role.ID] = role
	m.rolesByName[name] = role.ID
	m.rolePerms[role.ID] = make(map[int64]struct{})
	return role
}

func (m *mockRepo) addPermission(name string) Permission {
	m.nextPermID++
	p := Permission{ID: m.nextPermID, Name: name}
	m.perms[p.ID] = p
	m.permsByName[name] = p.ID
	return p
}

func (m *mockRepo) ListRoles(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockRepo) GetRole(ctx context.Context, id int64) (Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return Role{}, ErrNotFound
	}
	return role, nil
}

func (m *mockRepo) GetRoleByName(ctx context.Context, name string) (Role, error) {
	id, ok := m.rolesByName[name]
	if !ok {
		return Role{}, ErrNotFound
	}
	return m.roles[id], nil
}

func (m *mockRepo) CreateRole(ctx context.Context, name string) (Role, error) {
	if _, ok := m.rolesByName[name]; ok {
		return Role{}, ErrDuplicate
	}
	return m.addRole(name), nil
}

func (m *mockRepo) UpdateRole(ctx context.Context, id int64, name string) (Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return Role{}, ErrNotFound
	}
	delete(m.rolesByName, role.Name)
	role.Name = name
	m.roles[id] = role
	m.rolesByName[name] = id
	return role, nil
}

func (m *mockRepo) DeleteRole(ctx context.Context, id int64) error {
	role, ok := m.roles[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.roles, id)
	delete(m.rolesByName, role.Name)
	return nil
}

func (m *mockRepo) ListPermissions(ctx context.Context) ([]Permission, error) {
	out := make([]Permission, 0, len(m.perms))
	for _, p := range m.perms {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockRepo) PermissionsByName(ctx context.Context, names []string) ([]Permission, error) {
	var out []Permission
	for _, n := range names {
		if id, ok := m.permsByName[n]; ok {
			out = append(out, m.perms[id])
		}
	}
	return out, nil
}

func (m *mockRepo) CreatePermission(ctx context.Context, name string) (Permission, error) {
	if _, ok := m.permsByName[name]; ok {
		return Permission{}, ErrDuplicate
	}
	return m.addPermission(name), nil
}

func (m *mockRepo) DeletePermission(ctx context.Context, id int64) error {
	p, ok := m.perms[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.perms, id)
	delete(m.permsByName, p.Name)
	return nil
}

func (m *mockRepo) RolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	var out []Permission
	for id := range m.rolePerms[roleID] {
		out = append(out, m.perms[id])
	}
	return out, nil
}

func (m *mockRepo) AttachPermissions(ctx context.Context, roleID int64, permIDs []int64) error {
	if m.attachErr != nil {
		return m.attachErr
	}
	for _, id := range permIDs {
		m.rolePerms[roleID][id] = struct{}{}
	}
	return nil
}

func (m *mockRepo) DetachPermissions(ctx context.Context, roleID int64, permIDs []int64) error {
	for _, id := range permIDs {
		delete(m.rolePerms[roleID], id)
	}
	return nil
}

func (m *mockRepo) AssignRoleToUser(ctx context.Context, userID, roleID int64) error {
	if m.userRoles[userID] == nil {
		m.userRoles[userID] = make(map[int64]struct{})
	}
	m.userRoles[userID][roleID] = struct{}{}
	return nil
}

func (m *mockRepo) RemoveRoleFromUser(ctx context.Context, userID, roleID int64) error {
	delete(m.userRoles[userID], roleID)
	return nil
}

func (m *mockRepo) RolesForUser(ctx context.Context, userID int64) ([]string, error) {
	var out []string
	for roleID := range m.userRoles[userID] {
		out = append(out, m.roles[roleID].Name)
	}
	return out, nil
}

func (m *mockRepo) UserEffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for roleID := range m.userRoles[userID] {
		for permID := range m.rolePerms[roleID] {
			name := m.perms[permID].Name
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out, nil
}

func TestAssignPermissionsUnknownNameFailsWholeCall(t *testing.T) {
	repo := newMockRepo()
	role := repo.addRole("manager")
	repo.addPermission("workorders.view")
	svc := NewService(repo)

	err := svc.AssignPermissions(context.Background(), role.ID, []string{"workorders.view", "no.such.perm"})
	require.ErrorIs(t, err, ErrUnknownPermission)
	assert.Empty(t, repo.rolePerms[role.ID], "partial attach happened despite unknown name")
}

func TestAssignPermissionsDedupesAndTrims(t *testing.T) {
	repo := newMockRepo()
	role := repo.addRole("manager")
	repo.addPermission("workorders.view")
	svc := NewService(repo)

	err := svc.AssignPermissions(context.Background(), role.ID, []string{" workorders.view ", "workorders.view", ""})
	require.NoError(t, err)
	assert.Len(t, repo.rolePerms[role.ID], 1)
}

func TestAssignPermissionsUnknownRole(t *testing.T) {
	repo := newMockRepo()
	repo.addPermission("workorders.view")
	svc := NewService(repo)

	err := svc.AssignPermissions(context.Background(), 99, []string{"workorders.view"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRevokePermissions(t *testing.T) {
	repo := newMockRepo()
	role := repo.addRole("manager")
	view := repo.addPermission("workorders.view")
	edit := repo.addPermission("workorders.edit")
	repo.rolePerms[role.ID][view.ID] = struct{}{}
	repo.rolePerms[role.ID][edit.ID] = struct{}{}
	svc := NewService(repo)

	require.NoError(t, svc.RevokePermissions(context.Background(), role.ID, []string{"workorders.edit"}))
	assert.NotContains(t, repo.rolePerms[role.ID], edit.ID, "permission still attached")
	assert.Contains(t, repo.rolePerms[role.ID], view.ID, "unrelated permission detached")
}

func TestDeleteAdminRoleRefused(t *testing.T) {
	repo := newMockRepo()
	admin := repo.addRole(AdminRole)
	svc := NewService(repo)

	require.Error(t, svc.DeleteRole(context.Background(), admin.ID), "admin role deletion must fail")
	assert.Contains(t, repo.roles, admin.ID, "admin role gone")

	other := repo.addRole("viewer")
	require.NoError(t, svc.DeleteRole(context.Background(), other.ID))
}

func TestCreateRoleValidation(t *testing.T) {
	svc := NewService(newMockRepo())
	_, err := svc.CreateRole(context.Background(), "   ")
	assert.Error(t, err, "blank role name accepted")
}

func TestAssignRoleToUserUnknownRole(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	err := svc.AssignRoleToUser(context.Background(), 1, "ghost")
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestEffectivePermissionsDeduplicated(t *testing.T) {
	repo := newMockRepo()
	manager := repo.addRole("manager")
	viewer := repo.addRole("viewer")
	view := repo.addPermission("workorders.view")
	repo.rolePerms[manager.ID][view.ID] = struct{}{}
	repo.rolePerms[viewer.ID][view.ID] = struct{}{}
	_ = repo.AssignRoleToUser(context.Background(), 1, manager.ID)
	_ = repo.AssignRoleToUser(context.Background(), 1, viewer.ID)
	svc := NewService(repo)

	perms, err := svc.EffectivePermissions(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, perms, 1, "perms = %v, want single deduplicated entry", perms)
}
