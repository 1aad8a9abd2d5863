package domain

import "time"

// Session describes an issued access token.
type Session struct {
	TokenID   string
	UserID    string
	Role      Role
	ExpiresAt time.Time
	IssuedAt  time.Time
}
