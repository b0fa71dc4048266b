package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/opdesk-io/opdesk/modules/core/domain/entities/user"
	"github.com/opdesk-io/opdesk/pkg/composables"
	"github.com/opdesk-io/opdesk/pkg/httpapi"
)

// RequireUser authenticates operator API requests with a bearer token and
// stores the resolved user id in the request context. Token lookup runs
// against the same pool the handler will use.
func RequireUser(users user.Repository) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token", nil)
				return
			}
			u, err := users.GetByAPIToken(r.Context(), token)
			if err != nil {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid bearer token", nil)
				return
			}
			ctx := composables.WithUserID(r.Context(), u.ID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
