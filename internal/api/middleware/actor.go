package middleware

import (
	"context"
	"net/http"

	"github.com/Dev-Arnold/coinBackend/internal/api/response"
	"github.com/Dev-Arnold/coinBackend/internal/validation"
)

type contextKey string

const actorKey contextKey = "actorID"

// RequireActor extracts the authenticated participant's ID from the
// X-Actor-ID header into the request context. Authentication itself
// happens upstream; this layer only needs the identity. Requests
// without a valid ID are rejected.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actorID := r.Header.Get("X-Actor-ID")
		if actorID == "" {
			response.RespondError(w, http.StatusUnauthorized, "missing actor identity", "")
			return
		}
		if err := validation.ValidateUUID(actorID); err != nil {
			response.RespondError(w, http.StatusUnauthorized, "invalid actor identity", err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), actorKey, actorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorID returns the participant ID stored by RequireActor, or an
// empty string when the request skipped that middleware.
func ActorID(ctx context.Context) string {
	id, _ := ctx.Value(actorKey).(string)
	return id
}
