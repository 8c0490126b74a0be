package provision

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/sitehub-io/tenantcore/pkg/tenant"
)

// DatabaseCreator performs server-level create/drop of a tenant database.
// Both operations must be idempotent: creating an existing database and
// dropping an absent one are no-op successes. Implemented by
// pg.DatabaseCreator and mongo.DatabaseCreator.
type DatabaseCreator interface {
	CreateIfNotExists(ctx context.Context, name string) error
	DeleteIfExists(ctx context.Context, name string) error
}

// Migrator brings one tenant database schema up to date. Must be safe to
// invoke on an already-migrated schema. Implemented by pg.Migrator.
type Migrator interface {
	Run(ctx context.Context, connString string) error
}

// Seeder writes baseline content into a freshly migrated tenant database.
// Re-running on an already-seeded tenant must be a no-op.
type Seeder interface {
	Run(ctx context.Context, connString string) error
}

// FeatureInitializer persists the tenant's feature-flag JSON and warms the
// feature cache, keeping store and cache consistent at initialization time.
type FeatureInitializer interface {
	Run(ctx context.Context, tenantID uuid.UUID, connString string, features json.RawMessage) error
}

// Registry is the subset of the tenant registry the coordinator needs to
// persist tenant metadata.
type Registry interface {
	Upsert(ctx context.Context, rec *tenant.Record) (*tenant.Record, error)
}
