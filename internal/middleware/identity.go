package middleware

import (
	"net/http"
	"strings"

	"github.com/dukerupert/brightday/internal/auth"
)

const userIDHeader = "X-User-ID"

// Identity populates the request context with the user ID supplied by
// the identity collaborator. No header means guest/local-only mode; the
// request proceeds with an empty identity rather than being rejected.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(userIDHeader))
		ctx := auth.WithIdentity(r.Context(), auth.Identity{UserID: userID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
