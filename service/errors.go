// file: service/errors.go

package service

import "errors"

// Token-lifecycle and credential failures are exposed as sentinel errors so
// the handler layer can match them with errors.Is and map each kind to the
// right HTTP status without inspecting error strings.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenInvalid       = errors.New("token is invalid")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenUsed          = errors.New("token has already been used")
)
