package domain

import (
	"time"
)

// User represents a registered dashboard account.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"full_name"`
	Role         string     `json:"role"`
	RefreshToken *string    `json:"-"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TokenClaims is the decoded identity carried by a verified access token.
type TokenClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Session holds the credentials issued by a successful login.
type Session struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}
