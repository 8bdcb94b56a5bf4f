package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/Dev-Arnold/coinBackend/internal/api/response"
)

// NewAPIKey returns a middleware that guards admin routes with a static
// API key supplied in the X-API-Key header. An empty configured key
// disables the admin surface entirely rather than leaving it open.
func NewAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				response.RespondError(w, http.StatusServiceUnavailable, "admin API is not configured", "")
				return
			}
			provided := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				response.RespondError(w, http.StatusUnauthorized, "invalid API key", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
