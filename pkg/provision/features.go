package provision

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sitehub-io/tenantcore/pkg/tenant"
)

// PgFeatureInitializer persists the tenant's feature-flag JSON into the
// settings document table of the tenant database and pushes the same JSON
// into the feature cache under the tenant id, so the authoritative store and
// the cache agree from the first request on.
type PgFeatureInitializer struct {
	factory tenant.HandleFactory
	cache   tenant.FeatureCache
	ttl     time.Duration
}

// NewPgFeatureInitializer creates a feature initializer. The cache should be
// the same instance the registry populates (registry.FeatureCache()).
func NewPgFeatureInitializer(factory tenant.HandleFactory, cache tenant.FeatureCache, ttl time.Duration) *PgFeatureInitializer {
	return &PgFeatureInitializer{factory: factory, cache: cache, ttl: ttl}
}

// Run writes (or updates) the feature configuration document and warms the
// feature cache.
func (f *PgFeatureInitializer) Run(ctx context.Context, tenantID uuid.UUID, connString string, features json.RawMessage) error {
	if len(features) == 0 {
		features = json.RawMessage(`{}`)
	}

	pool, err := f.factory.Create(ctx, connString)
	if err != nil {
		return errors.Join(ErrFeatureInitFailed, err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx,
		`INSERT INTO tenant_settings (namespace, key, value) VALUES ($1, $2, $3)
		 ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		SystemNamespace, FeaturesKey, string(features),
	); err != nil {
		return errors.Join(ErrFeatureInitFailed, err)
	}

	f.cache.Set(ctx, tenantID, features, f.ttl)
	return nil
}
