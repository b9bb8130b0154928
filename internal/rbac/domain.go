package rbac

import (
	"errors"
	"time"
)

// Role represents a named bundle of permissions assignable to users.
type Role struct {
	ID          int64
	Name        string
	Permissions []Permission
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic capability checked by exact name membership.
type Permission struct {
	ID   int64
	Name string
}

// AdminRole is the role name that grants unrestricted access.
const AdminRole = "admin"

var (
	// ErrNotFound indicates that the requested record does not exist.
	ErrNotFound = errors.New("rbac: not found")
	// ErrDuplicate indicates a unique constraint violation on a name.
	ErrDuplicate = errors.New("rbac: duplicate name")
	// ErrUnknownPermission indicates a grant/revoke referenced a permission name
	// that has not been created.
	ErrUnknownPermission = errors.New("rbac: unknown permission")
	// ErrUnknownRole indicates a user role assignment referenced a missing role.
	ErrUnknownRole = errors.New("rbac: unknown role")
)
