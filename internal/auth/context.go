// Package auth carries the caller identity supplied by the identity
// collaborator. An empty user ID means guest/local-only mode: the sync
// engine and push subscription manager become no-ops and only the local
// store is active.
package auth

import "context"

type contextKey struct{}

// Identity is the authenticated caller for one request.
type Identity struct {
	UserID string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// UserID returns the current user ID, or "" for guest mode.
func UserID(ctx context.Context) string {
	id, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return id.UserID
}

// Guest reports whether the request carries no signed-in user.
func Guest(ctx context.Context) bool {
	return UserID(ctx) == ""
}
