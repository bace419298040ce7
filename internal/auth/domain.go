package auth

import "time"

// Credentials is the configured dashboard account.
type Credentials struct {
	Username     string
	PasswordHash string
}

// User is an authenticated dashboard user.
type User struct {
	Username   string
	SignedInAt time.Time
}

// Login records one signed-in session for auditing.
type Login struct {
	SessionID string    `json:"session_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}
