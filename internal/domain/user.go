package domain

import "time"

// Role distinguishes the three kinds of actors in the dispatch system.
type Role string

const (
	RolePassenger Role = "passenger"
	RoleDriver    Role = "driver"
	RoleAdmin     Role = "admin"
)

// ParseRole validates a role string.
func ParseRole(role string) (Role, bool) {
	switch Role(role) {
	case RolePassenger, RoleDriver, RoleAdmin:
		return Role(role), true
	default:
		return "", false
	}
}

// User represents a passenger, driver, or admin account. Trips reference
// drivers by their user id; there is no separate driver-profile id.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
}
