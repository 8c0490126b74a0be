// Package tenant provides the request-side multi-tenancy primitives of the
// platform: tenant records and sessions, request scopes, identifier
// resolution and the caches shared with the registry.
//
// The package is built around four core concepts:
//
//  1. Records - registry rows describing a tenant (id, domain, database,
//     feature settings, lifecycle status)
//  2. Sessions - immutable per-request snapshots of a resolved record
//  3. Scopes - per-request cells holding at most one session plus the
//     lazily created, request-memoized tenant database handle
//  4. Resolvers - strategies for extracting a raw tenant identifier from
//     an HTTP request (host, subdomain, header, composite)
//
// # Usage
//
//	import "github.com/sitehub-io/tenantcore/pkg/tenant"
//
//	resolver := tenant.NewCompositeResolver(
//		tenant.NewHostResolver(),
//		tenant.NewHeaderResolver("X-Tenant-ID"),
//	)
//
//	// source is a *registry.Registry, factory a *pg.ContextFactory
//	mw := tenant.Middleware(resolver, source, factory,
//		tenant.WithSkipPaths([]string{"/health"}),
//	)
//	router.Use(mw)
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		scope, ok := tenant.ScopeFromContext(r.Context())
//		if !ok {
//			return
//		}
//		db, err := scope.Conn(r.Context())
//		// run tenant-scoped queries on db
//	}
//
// # Scope semantics
//
// A scope accepts exactly one session per request. A second Attach fails with
// ErrAlreadyAttached without touching the first session; tenant switching
// mid-request would leak one tenant's data into another tenant's response.
// Conn creates the tenant database handle on first use under the scope mutex
// and returns the same handle to every subsequent caller in the request.
//
// # Caching
//
// Cache and FeatureCache are populated and invalidated by the registry, never
// by this package. In-memory (LRU with TTL) and Redis-backed implementations
// are provided; the Redis variant keeps multiple application nodes coherent
// after registry writes.
//
// # Error Handling
//
// The package defines sentinel errors for common failure scenarios:
//
//   - ErrTenantNotFound: tenant absent or not active (deliberately the same)
//   - ErrAlreadyAttached: second session attach on one request
//   - ErrNotResolved: scoped handle requested before resolution
//   - ErrInvalidIdentifier: malformed tenant identifier
//
// Inactive tenants resolve exactly like absent ones so that deactivated
// customers are not discoverable through the routing path.
package tenant
