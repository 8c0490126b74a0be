package registry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sitehub-io/tenantcore/pkg/tenant"
)

// DefaultCacheTTL bounds how long registry rows live in cache. The registry
// invalidates eagerly on every write; the TTL only caps staleness when an
// external writer bypasses this process.
const DefaultCacheTTL = 5 * time.Minute

// Registry is the source of truth for tenant records. All reads go through
// the metadata cache; every read miss and every write populates the feature
// cache together with the metadata cache, so resolving a tenant and fetching
// its features costs a single master-store round trip.
type Registry struct {
	store    Store
	meta     tenant.Cache
	features tenant.FeatureCache
	cacheTTL time.Duration
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMetadataCache sets the metadata cache implementation.
func WithMetadataCache(c tenant.Cache) RegistryOption {
	return func(r *Registry) {
		if c != nil {
			r.meta = c
		}
	}
}

// WithFeatureCache sets the feature cache implementation.
func WithFeatureCache(c tenant.FeatureCache) RegistryOption {
	return func(r *Registry) {
		if c != nil {
			r.features = c
		}
	}
}

// WithCacheTTL sets the cache entry lifetime.
func WithCacheTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		if ttl > 0 {
			r.cacheTTL = ttl
		}
	}
}

// New creates a Registry over the given store. Caches default to the
// in-memory implementations.
func New(store Store, opts ...RegistryOption) *Registry {
	r := &Registry{
		store:    store,
		meta:     tenant.NewInMemoryCache(),
		features: tenant.NewInMemoryFeatureCache(),
		cacheTTL: DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FeatureCache exposes the feature cache so collaborators (feature
// evaluation, provisioning) share the instance the registry populates.
func (r *Registry) FeatureCache() tenant.FeatureCache { return r.features }

// normalize folds routing keys to their canonical form. Writes and reads
// must agree on it, otherwise a record stored with a mixed-case domain is
// unroutable through the lowercasing resolve path.
func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func domainKey(domain string) string { return "domain:" + domain }

func identKey(identifier string) string { return "ident:" + identifier }

func idKey(id uuid.UUID) string { return "id:" + id.String() }

// populate is the single cache-population path used by both the read-miss
// and the write paths. Keeping it in one place guarantees the feature cache
// is warmed whenever the metadata cache is.
func (r *Registry) populate(ctx context.Context, rec *tenant.Record) {
	r.meta.Set(ctx, domainKey(rec.Domain), rec, r.cacheTTL)
	r.meta.Set(ctx, identKey(rec.Identifier), rec, r.cacheTTL)
	r.meta.Set(ctx, idKey(rec.ID), rec, r.cacheTTL)
	if len(rec.Features) > 0 {
		r.features.Set(ctx, rec.ID, rec.Features, r.cacheTTL)
	}
}

// invalidate removes every cache entry keyed by the record. It must complete
// before any repopulation for the same logical write, so a reader never
// observes the new value followed by the stale one.
func (r *Registry) invalidate(ctx context.Context, rec *tenant.Record) {
	r.meta.Delete(ctx, domainKey(rec.Domain))
	r.meta.Delete(ctx, identKey(rec.Identifier))
	r.meta.Delete(ctx, idKey(rec.ID))
	r.features.Delete(ctx, rec.ID)
}

// GetByDomain returns the non-deleted tenant routed by the given domain.
func (r *Registry) GetByDomain(ctx context.Context, domain string) (*tenant.Record, error) {
	if rec, ok := r.meta.Get(ctx, domainKey(domain)); ok {
		return rec, nil
	}

	rec, err := r.store.GetByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	r.populate(ctx, rec)
	return rec, nil
}

// GetByIdentifier returns the non-deleted tenant with the given slug.
func (r *Registry) GetByIdentifier(ctx context.Context, identifier string) (*tenant.Record, error) {
	if rec, ok := r.meta.Get(ctx, identKey(identifier)); ok {
		return rec, nil
	}

	rec, err := r.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	r.populate(ctx, rec)
	return rec, nil
}

// GetByID returns the tenant with the given id, including logically deleted
// ones. Administrative lookups need deleted rows for forensic access.
func (r *Registry) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Record, error) {
	if rec, ok := r.meta.Get(ctx, idKey(id)); ok {
		return rec, nil
	}

	rec, err := r.store.GetByID(ctx, id.String())
	if err != nil {
		return nil, err
	}
	r.populate(ctx, rec)
	return rec, nil
}

// ListActive returns all active tenants directly from the store.
func (r *Registry) ListActive(ctx context.Context) ([]*tenant.Record, error) {
	return r.store.ListActive(ctx)
}

// Resolve returns the tenant for a raw request identifier (usually a domain,
// with identifier slug as fallback) only if it is registered and active.
// Inactive tenants resolve as not found so deactivated customers are not
// discoverable through the routing path.
func (r *Registry) Resolve(ctx context.Context, identifier string) (*tenant.Record, error) {
	identifier = normalize(identifier)
	if identifier == "" {
		return nil, tenant.ErrTenantNotFound
	}

	rec, err := r.GetByDomain(ctx, identifier)
	if errors.Is(err, tenant.ErrTenantNotFound) {
		rec, err = r.GetByIdentifier(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}
	if !rec.Active() {
		return nil, tenant.ErrTenantNotFound
	}
	return rec, nil
}

// Upsert creates the tenant when no record matches the identifier, otherwise
// updates routing and connection fields in place. The record's lifecycle
// status is never changed by an update; Activate and Deactivate own that.
// Identifier and domain are persisted in canonical lowercase form so every
// stored record stays reachable through Resolve. Old cache keys are
// invalidated before the new value is repopulated.
func (r *Registry) Upsert(ctx context.Context, rec *tenant.Record) (*tenant.Record, error) {
	now := time.Now().UTC()
	identifier := normalize(rec.Identifier)
	domain := normalize(rec.Domain)

	existing, err := r.store.GetByIdentifier(ctx, identifier)
	switch {
	case errors.Is(err, tenant.ErrTenantNotFound):
		fresh := *rec
		fresh.Identifier = identifier
		fresh.Domain = domain
		if fresh.ID == uuid.Nil {
			fresh.ID = uuid.New()
		}
		if fresh.Status == "" {
			fresh.Status = tenant.StatusActive
		}
		fresh.CreatedAt = now
		fresh.UpdatedAt = now

		if err := r.store.Insert(ctx, &fresh); err != nil {
			return nil, err
		}
		r.invalidate(ctx, &fresh)
		r.populate(ctx, &fresh)
		return &fresh, nil

	case err != nil:
		return nil, err
	}

	updated := *existing
	updated.Name = rec.Name
	updated.Domain = domain
	updated.DatabaseName = rec.DatabaseName
	updated.ConnectionString = rec.ConnectionString
	updated.Features = rec.Features
	updated.Isolation = rec.Isolation
	updated.UpdatedAt = now

	if err := r.store.Update(ctx, &updated); err != nil {
		return nil, err
	}

	// Invalidate under the pre-update keys first: the domain may have moved.
	r.invalidate(ctx, existing)
	r.populate(ctx, &updated)
	return &updated, nil
}

// Activate flips the tenant back into routing.
func (r *Registry) Activate(ctx context.Context, identifier string) (*tenant.Record, error) {
	return r.setStatus(ctx, identifier, tenant.StatusActive)
}

// Deactivate excludes the tenant from routing while keeping it retrievable
// by administrative lookups.
func (r *Registry) Deactivate(ctx context.Context, identifier string) (*tenant.Record, error) {
	return r.setStatus(ctx, identifier, tenant.StatusDeactivated)
}

func (r *Registry) setStatus(ctx context.Context, identifier string, status tenant.Status) (*tenant.Record, error) {
	existing, err := r.store.GetByIdentifier(ctx, normalize(identifier))
	if err != nil {
		return nil, err
	}

	updated := *existing
	updated.Status = status
	updated.UpdatedAt = time.Now().UTC()

	if err := r.store.Update(ctx, &updated); err != nil {
		return nil, err
	}
	r.invalidate(ctx, existing)
	r.populate(ctx, &updated)
	return &updated, nil
}

// DeactivateAndDelete takes the tenant out of routing and marks it logically
// deleted in a single write. Both caches are invalidated and deliberately
// not repopulated: a deleted tenant must never be served from cache again.
// The row itself is kept for forensic access to historical databases.
func (r *Registry) DeactivateAndDelete(ctx context.Context, identifier string) error {
	existing, err := r.store.GetByIdentifier(ctx, normalize(identifier))
	if err != nil {
		return err
	}

	updated := *existing
	updated.Status = tenant.StatusDeleted
	updated.UpdatedAt = time.Now().UTC()

	if err := r.store.Update(ctx, &updated); err != nil {
		return err
	}
	r.invalidate(ctx, existing)
	return nil
}
