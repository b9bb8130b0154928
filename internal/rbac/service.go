package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Service orchestrates role and permission administration.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListRoles returns all roles with their permissions.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, name string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	return s.repo.CreateRole(ctx, name)
}

// UpdateRole renames an existing role.
func (s *Service) UpdateRole(ctx context.Context, id int64, name string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	return s.repo.UpdateRole(ctx, id, name)
}

// DeleteRole removes a role. The admin role cannot be deleted.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if role.Name == AdminRole {
		return fmt.Errorf("rbac: the %s role cannot be deleted", AdminRole)
	}
	return s.repo.DeleteRole(ctx, id)
}

// ListPermissions returns all permissions.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// CreatePermission inserts a new named capability.
func (s *Service) CreatePermission(ctx context.Context, name string) (Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Permission{}, errors.New("rbac: permission name required")
	}
	return s.repo.CreatePermission(ctx, name)
}

// DeletePermission removes a permission by ID.
func (s *Service) DeletePermission(ctx context.Context, id int64) error {
	return s.repo.DeletePermission(ctx, id)
}

// AssignPermissions grants exactly the named permissions to the role. All names
// must reference existing permissions; unknown names fail the whole call before
// anything is attached.
func (s *Service) AssignPermissions(ctx context.Context, roleID int64, names []string) error {
	if len(names) == 0 {
		return nil
	}
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return err
	}
	perms, err := s.resolveNames(ctx, names)
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(perms))
	for _, p := range perms {
		ids = append(ids, p.ID)
	}
	return s.repo.AttachPermissions(ctx, roleID, ids)
}

// RevokePermissions removes exactly the named permissions from the role.
func (s *Service) RevokePermissions(ctx context.Context, roleID int64, names []string) error {
	if len(names) == 0 {
		return nil
	}
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return err
	}
	perms, err := s.resolveNames(ctx, names)
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(perms))
	for _, p := range perms {
		ids = append(ids, p.ID)
	}
	return s.repo.DetachPermissions(ctx, roleID, ids)
}

// AssignRoleToUser links the named role to a user.
func (s *Service) AssignRoleToUser(ctx context.Context, userID int64, roleName string) error {
	role, err := s.repo.GetRoleByName(ctx, strings.TrimSpace(roleName))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUnknownRole
		}
		return err
	}
	return s.repo.AssignRoleToUser(ctx, userID, role.ID)
}

// RevokeRoleFromUser unlinks the named role from a user.
func (s *Service) RevokeRoleFromUser(ctx context.Context, userID int64, roleName string) error {
	role, err := s.repo.GetRoleByName(ctx, strings.TrimSpace(roleName))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUnknownRole
		}
		return err
	}
	return s.repo.RemoveRoleFromUser(ctx, userID, role.ID)
}

// RolesForUser returns the role names assigned to a user.
func (s *Service) RolesForUser(ctx context.Context, userID int64) ([]string, error) {
	return s.repo.RolesForUser(ctx, userID)
}

// EffectivePermissions returns deduplicated permission names for a user.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.repo.UserEffectivePermissions(ctx, userID)
}

func (s *Service) resolveNames(ctx context.Context, names []string) ([]Permission, error) {
	trimmed := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		trimmed = append(trimmed, n)
	}
	perms, err := s.repo.PermissionsByName(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	if len(perms) != len(trimmed) {
		found := make(map[string]struct{}, len(perms))
		for _, p := range perms {
			found[p.Name] = struct{}{}
		}
		for _, n := range trimmed {
			if _, ok := found[n]; !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownPermission, n)
			}
		}
	}
	return perms, nil
}
