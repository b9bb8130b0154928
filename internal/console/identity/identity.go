package identity

import "github.com/fasops-io/fasops/internal/console/api"

// Identity is the resolved principal: the authenticated user plus the
// effective role and permission name sets.
type Identity struct {
	ID    int64
	Name  string
	Email string

	roles       map[string]struct{}
	permissions map[string]struct{}
	roleIDs     map[string]int64
}

// AdminRole is the role name whose presence makes an identity administrative.
const AdminRole = "admin"

// FromMe normalizes a /me payload into an Identity. Role and permission
// entries may arrive as strings or {id,name} objects; both collapse to name
// sets here so downstream code never branches on shape. Missing arrays become
// empty sets; missing user fields stay zero.
func FromMe(me *api.MeResponse) *Identity {
	id := &Identity{
		ID:          me.User.ID,
		Name:        me.User.Name,
		Email:       me.User.Email,
		roles:       make(map[string]struct{}, len(me.Roles)),
		permissions: make(map[string]struct{}, len(me.Permissions)),
		roleIDs:     make(map[string]int64),
	}
	for _, r := range me.Roles {
		if r.Name == "" {
			continue
		}
		id.roles[r.Name] = struct{}{}
		if r.ID != 0 {
			id.roleIDs[r.Name] = r.ID
		}
	}
	for _, p := range me.Permissions {
		if p.Name == "" {
			continue
		}
		id.permissions[p.Name] = struct{}{}
	}
	return id
}

// HasRole reports exact role name membership.
func (i *Identity) HasRole(name string) bool {
	_, ok := i.roles[name]
	return ok
}

// HasPermission reports exact permission name membership. No hierarchy, no
// wildcards.
func (i *Identity) HasPermission(name string) bool {
	_, ok := i.permissions[name]
	return ok
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i.HasRole(AdminRole)
}

// Roles returns the role names as a slice (order unspecified).
func (i *Identity) Roles() []string {
	out := make([]string, 0, len(i.roles))
	for r := range i.roles {
		out = append(out, r)
	}
	return out
}

// Permissions returns the permission names as a slice (order unspecified).
func (i *Identity) Permissions() []string {
	out := make([]string, 0, len(i.permissions))
	for p := range i.permissions {
		out = append(out, p)
	}
	return out
}

// RoleID returns the backend id for a role name when the payload carried one.
func (i *Identity) RoleID(name string) (int64, bool) {
	id, ok := i.roleIDs[name]
	return id, ok
}
