package handler

import (
	"errors"
	"go-auth-api/common"
	"go-auth-api/service"
	"net/http"
)

func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w)
		}
	}
}

// toAppError maps service-level sentinel errors to boundary responses.
// Bearer and refresh token failures all collapse into the same 401 message
// so callers cannot probe which check failed; reset-token failures are named
// because the token was delivered by email and is not an oracle in the same
// way. Everything unmatched is an internal failure: logged in full, surfaced
// as a generic 500.
func toAppError(err error) *common.AppError {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return common.Unauthorized("Invalid email or password", err)
	case errors.Is(err, service.ErrTokenNotFound), errors.Is(err, service.ErrTokenInvalid), errors.Is(err, service.ErrTokenExpired):
		return common.Unauthorized("Invalid or expired token", err)
	case errors.Is(err, service.ErrTokenUsed):
		return common.Unauthorized("This token has already been used", err)
	default:
		return common.Internal(err)
	}
}

// toResetAppError is the reset-password variant of toAppError: it names the
// specific token failure so the user knows to request a new reset email.
func toResetAppError(err error) *common.AppError {
	switch {
	case errors.Is(err, service.ErrTokenInvalid):
		return common.Unauthorized("Invalid or non-existent password reset token", err)
	case errors.Is(err, service.ErrTokenUsed):
		return common.Unauthorized("This password reset token has already been used", err)
	case errors.Is(err, service.ErrTokenExpired):
		return common.Unauthorized("Password reset token has expired", err)
	default:
		return common.Internal(err)
	}
}
