// Package userctx carries the acting user through request contexts. The
// audited repositories record it on every history event.
package userctx

import "context"

// AnonymousUser is recorded when no user is attached to the context
const AnonymousUser = "anonymous"

type contextKey string

const (
	userKey   contextKey = "acting_user"
	userIDKey contextKey = "user_id"
)

// SetUser attaches the acting user's display name (usually an email)
func SetUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// User returns the acting user, or AnonymousUser
func User(ctx context.Context) string {
	if user, ok := ctx.Value(userKey).(string); ok && user != "" {
		return user
	}
	return AnonymousUser
}

// IsAnonymous reports whether ctx carries no acting user
func IsAnonymous(ctx context.Context) bool {
	return User(ctx) == AnonymousUser
}

// SetUserID attaches the identity provider's subject
func SetUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID returns the subject, or "" when unauthenticated
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
