package domain

import "time"

// Role enumerates platform roles. Guests hold RoleUser; the three staff
// roles carry desk responsibilities and wider ticket visibility.
type Role string

const (
	RoleUser          Role = "USER"
	RoleAdmin         Role = "ADMIN"
	RoleReception     Role = "RECEPTION"
	RoleCleaningStaff Role = "CLEANING_STAFF"
)

// ValidRole reports whether the value is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleAdmin, RoleReception, RoleCleaningStaff:
		return true
	}
	return false
}

// IsStaffRole reports whether the role belongs to hotel staff.
func IsStaffRole(role Role) bool {
	return role == RoleAdmin || role == RoleReception || role == RoleCleaningStaff
}

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the domain model for guests and staff alike; Role distinguishes
// them.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
