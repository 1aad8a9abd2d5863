package dto

import (
	"time"

	"github.com/spec-kit/locker-service/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login.
type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      UserProfile `json:"user"`
}

// UserProfile is the public view of an account; it never carries the password hash.
type UserProfile struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Role       domain.Role       `json:"role"`
	Status     domain.UserStatus `json:"status"`
	Avatar     string            `json:"avatar,omitempty"`
	Balance    int64             `json:"balance"`
	LastActive *time.Time        `json:"last_active,omitempty"`
}

// NewUserProfile maps a domain user.
func NewUserProfile(u *domain.User) UserProfile {
	return UserProfile{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Status:     u.Status,
		Avatar:     u.Avatar,
		Balance:    u.Balance,
		LastActive: u.LastActive,
	}
}
