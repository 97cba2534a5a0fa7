package model

import "github.com/golang-jwt/jwt/v5"

// AppClaims is the claim set carried by an access token. Validity is fully
// determined by the signature and the registered expiry; nothing here is ever
// looked up in a store.
type AppClaims struct {
	UserID      string   `json:"user_id"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}
