package model

import "time"

// User is the principal record owned by the credential store. Role and
// permission names are opaque strings; the auth core passes them through
// without interpreting them.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Password    string    `json:"-"` // bcrypt hash, never serialized
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}
