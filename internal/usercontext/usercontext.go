// Package usercontext carries the authenticated user through request context.
package usercontext

import "context"

type contextKey struct{}

// WithUserID stores the acting user id on the context.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserID returns the acting user id, or false when the request is anonymous.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(contextKey{}).(int64)
	if !ok || id == 0 {
		return 0, false
	}
	return id, true
}
