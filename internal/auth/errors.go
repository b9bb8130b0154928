package auth

import "errors"

var (
	// ErrInvalidCredentials is returned when email/password do not match an active account.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrTokenInvalid is returned when a bearer token is unknown or expired.
	ErrTokenInvalid = errors.New("auth: token invalid")
	// ErrEmailTaken is returned when registration hits an existing email.
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrNotFound is returned when the referenced user does not exist.
	ErrNotFound = errors.New("auth: not found")
)
