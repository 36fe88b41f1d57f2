package middleware

import (
	"context"

	"github.com/seifpharma/storefront-gateway/internal/session"
)

type contextKey string

const sessionContextKey contextKey = "session"

// WithSession stores the resolved visitor session in the request context.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SessionFromContext returns the session placed by the Visitor middleware,
// or nil when the request never passed through it.
func SessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionContextKey).(*session.Session)
	return sess
}
