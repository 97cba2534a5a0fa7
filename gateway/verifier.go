// file: gateway/verifier.go

package gateway

import (
	"go-auth-api/common"
	"go-auth-api/logger"
	"go-auth-api/service"
	"net/http"
	"strings"
)

// Identity headers injected for downstream services. These are the sole
// identity channel past the gateway; internal services must only ever accept
// them from the gateway boundary (enforced by deployment-level firewalling,
// not here).
const (
	HeaderUserID    = "X-User-Id"
	HeaderUserRoles = "X-User-Roles"
)

// publicPrefixes lists the paths that pass through without a token: the auth
// endpoints themselves, API docs and health probes.
var publicPrefixes = []string{
	"/v1/api/auth",
	"/swagger",
	"/health",
}

// Verifier authenticates every non-public request using nothing but the
// shared signing key. No session store, no call back to the issuing service;
// this is what lets gateway instances scale out without coordination.
func Verifier(codec *service.TokenCodec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Inbound copies of the identity headers are never trusted, on
			// public paths included; only the gateway itself may set them.
			r.Header.Del(HeaderUserID)
			r.Header.Del(HeaderUserRoles)

			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				rejectUnauthorized(w, "Authorization header is required")
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				rejectUnauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := codec.Verify(headerParts[1])
			if err != nil {
				// Expired and malformed collapse into one message: the
				// response must not act as an oracle for token guessing.
				logger.Log.WithError(err).Debug("Gateway rejected bearer token")
				rejectUnauthorized(w, "Invalid or expired token")
				return
			}

			r.Header.Set(HeaderUserID, claims.UserID)
			r.Header.Set(HeaderUserRoles, strings.Join(claims.Roles, ","))

			next.ServeHTTP(w, r)
		})
	}
}

func isPublic(path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func rejectUnauthorized(w http.ResponseWriter, message string) {
	appErr := common.NewAppError(http.StatusUnauthorized, message, nil)
	appErr.Send(w)
}
