package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when a tenant cannot be found or is not
	// active. Inactive tenants are deliberately indistinguishable from
	// absent ones on the routing path.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrInvalidIdentifier is returned when the identifier format is invalid.
	ErrInvalidIdentifier = errors.New("invalid tenant identifier")

	// ErrTenantConflict is returned on duplicate identifier, domain or
	// database name during registry writes.
	ErrTenantConflict = errors.New("tenant already exists")

	// ErrAlreadyAttached is returned when a second session is attached to a
	// request scope that already carries one.
	ErrAlreadyAttached = errors.New("tenant already attached to request")

	// ErrNotResolved is returned when a scoped database handle is requested
	// before a tenant session was attached.
	ErrNotResolved = errors.New("tenant not resolved")

	// ErrNoScopeInContext is returned when no request scope is found in context.
	ErrNoScopeInContext = errors.New("no tenant scope in context")
)
