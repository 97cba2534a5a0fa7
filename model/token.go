// file: model/token.go

package model

import "time"

// RefreshToken holds the data for a refresh token in the database. Only the
// SHA-256 hash of the opaque token string is persisted; the plaintext is
// handed to the client exactly once at creation.
type RefreshToken struct {
	ID        int       `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// PasswordResetToken is a single-use, time-boxed reset capability. Used flips
// from false to true exactly once; the record is rejected thereafter.
type PasswordResetToken struct {
	ID        int       `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}
