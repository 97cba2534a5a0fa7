// file: ratelimit/middleware.go

package ratelimit

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Middleware wraps a handler with admission control for one endpoint class.
// The budget key is "<class>_<client ip>", so the same client gets an
// independent budget per class.
func Middleware(limiter *Limiter, class string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := class + "_" + clientIP(r, limiter.trustProxy)
			decision := limiter.TryAcquire(key)

			if decision.Allowed {
				w.Header().Set("X-Rate-Limit-Remaining", strconv.Itoa(decision.Remaining))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(decision.RetryAfterSeconds))
			w.WriteHeader(http.StatusTooManyRequests)

			json.NewEncoder(w).Encode(map[string]interface{}{
				"timestamp": time.Now().UnixMilli(),
				"status":    http.StatusTooManyRequests,
				"error":     "Too Many Requests",
				"message":   fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", decision.RetryAfterSeconds),
				"path":      r.URL.Path,
			})
		})
	}
}

// clientIP prefers the first X-Forwarded-For entry so budgets follow the
// originating client through proxies, falling back to the socket address.
// The header is only consulted when the limiter was configured to trust it.
func clientIP(r *http.Request, trustProxy bool) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); trustProxy && forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
