package model

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Role is a named access level. The default set (admin, user) is seeded by an
// explicit idempotent step at process start.
type Role struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
