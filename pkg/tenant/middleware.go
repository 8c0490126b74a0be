package tenant

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Source resolves a raw identifier to a registry record. Implemented by
// registry.Registry; it must return ErrTenantNotFound for unknown and
// inactive tenants alike.
type Source interface {
	Resolve(ctx context.Context, identifier string) (*Record, error)
}

// Middleware creates HTTP middleware that resolves the tenant for each
// request, attaches a fresh request scope to the context and clears it at
// request teardown. Resolution failures on this path are not retried; a
// registry outage fails the request immediately instead of stacking latency.
func Middleware(resolver Resolver, source Source, factory HandleFactory, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		errorHandler: defaultErrorHandler,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			identifier, err := resolver.Resolve(r)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			// No identifier means a non-tenant request; continue without scope.
			if identifier == "" {
				next.ServeHTTP(w, r)
				return
			}

			rec, err := source.Resolve(r.Context(), identifier)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			scope := NewScope(factory)
			if err := scope.Attach(NewSession(rec)); err != nil {
				cfg.errorHandler(w, r, err)
				return
			}
			defer scope.Detach()

			if cfg.logger != nil {
				cfg.logger.DebugContext(r.Context(), "tenant resolved",
					"tenant_id", rec.ID.String(), "domain", rec.Domain)
			}

			next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), scope)))
		})
	}
}

// RequireTenant creates middleware that ensures a tenant is attached to the
// request context. Useful for protecting routes that cannot run without one.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := SessionFromContext(r.Context()); !ok {
				errorHandler(w, r, ErrNoScopeInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTenantNotFound):
		http.Error(w, "Tenant not found", http.StatusNotFound)
	case errors.Is(err, ErrNoScopeInContext):
		http.Error(w, "Tenant not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidIdentifier):
		http.Error(w, "Invalid tenant identifier", http.StatusBadRequest)
	case errors.Is(err, ErrAlreadyAttached):
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
