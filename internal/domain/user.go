package domain

import "time"

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "Active"
	UserStatusPending   UserStatus = "Pending"
	UserStatusSuspended UserStatus = "Suspended"
)

// User is an account holder: operators and renters share one table.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Status       UserStatus
	Avatar       string
	Balance      int64
	LastActive   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Caller returns the identity used for authorization checks.
func (u *User) Caller() Caller {
	return Caller{UserID: u.ID, Role: u.Role}
}
