package users

import (
	"context"
)

// RoleDirectory is the subset of the rbac service the directory needs.
type RoleDirectory interface {
	AssignRoleToUser(ctx context.Context, userID int64, roleName string) error
	RevokeRoleFromUser(ctx context.Context, userID int64, roleName string) error
}

// PasswordChanger is the subset of the auth service the directory needs.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, userID int64, password string) error
}

// Service handles user directory business logic.
type Service struct {
	repo      RepositoryPort
	roles     RoleDirectory
	passwords PasswordChanger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, roles RoleDirectory, passwords PasswordChanger) *Service {
	return &Service{repo: repo, roles: roles, passwords: passwords}
}

// ListUsers returns all accounts with their roles.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// AssignRole attaches the named role to the user.
func (s *Service) AssignRole(ctx context.Context, userID int64, roleName string) error {
	return s.roles.AssignRoleToUser(ctx, userID, roleName)
}

// RevokeRole detaches the named role from the user.
func (s *Service) RevokeRole(ctx context.Context, userID int64, roleName string) error {
	return s.roles.RevokeRoleFromUser(ctx, userID, roleName)
}

// ChangePassword replaces the user's password.
func (s *Service) ChangePassword(ctx context.Context, userID int64, password string) error {
	return s.passwords.ChangePassword(ctx, userID, password)
}
