package middleware

import (
	"net/http"
	"strings"

	"github.com/dukerupert/brightday/internal/auth"
	"github.com/dukerupert/brightday/internal/remotesvc/token"
)

// RequireAuth validates the Bearer token and rejects requests whose
// path user does not match the token's user. The token's user ID is
// placed in the request context.
func RequireAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			userID, err := token.Verify(secret, raw)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			if pathUser := r.PathValue("user"); pathUser != "" && pathUser != userID {
				http.Error(w, "token not valid for this user", http.StatusForbidden)
				return
			}

			ctx := auth.WithIdentity(r.Context(), auth.Identity{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}
