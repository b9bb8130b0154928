package users

import "time"

// User is the administrative directory view of an account.
type User struct {
	ID        int64
	Name      string
	Email     string
	IsActive  bool
	Roles     []string
	CreatedAt time.Time
}
