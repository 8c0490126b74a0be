package tenant

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithScope adds a request scope to the context.
func WithScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, contextKey{}, scope)
}

// ScopeFromContext retrieves the request scope from the context.
// Returns nil, false if no scope is found.
func ScopeFromContext(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(contextKey{}).(*Scope)
	return scope, ok
}

// SessionFromContext retrieves the attached session from the context scope.
// Returns nil, false when no scope is present or no session is attached.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	scope, ok := ScopeFromContext(ctx)
	if !ok || scope == nil {
		return nil, false
	}
	sess := scope.Session()
	return sess, sess != nil
}

// IDFromContext retrieves just the tenant ID from the context.
// Returns zero UUID and false if no tenant is attached.
func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return uuid.UUID{}, false
	}
	return sess.TenantID(), true
}

// MustSessionFromContext retrieves the session from the context.
// Panics if no tenant is attached. Use this only in handlers that absolutely
// require a tenant to function.
func MustSessionFromContext(ctx context.Context) *Session {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		panic("tenant: no tenant in context")
	}
	return sess
}

// LoggerExtractor returns a context extractor for the logger that adds the
// tenant id attribute when a tenant is attached to the request.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IDFromContext(ctx); ok {
			return slog.String("tenant_id", id.String()), true
		}
		return slog.Attr{}, false
	}
}
