package shared

import "context"

type userContextKey struct{}

// ContextWithUser stores the authenticated user id in context.
func ContextWithUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userContextKey{}, userID)
}

// UserFromContext extracts the authenticated user id, zero when absent.
func UserFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(userContextKey{}).(int64)
	return id
}
