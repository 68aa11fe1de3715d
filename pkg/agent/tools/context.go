package tools

import "context"

type userKey struct{}

// WithUser attaches the authenticated user's identity to ctx. Tool bodies
// scope every database access by it.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFrom extracts the user identity set by WithUser. An empty string
// means the turn is unauthenticated; store-backed tools refuse to run.
func UserFrom(ctx context.Context) string {
	v, _ := ctx.Value(userKey{}).(string)
	return v
}
