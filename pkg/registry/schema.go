package registry

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// masterSchemaDDL creates the tenants table in the master database. Guarded
// statements keep it safe to run on every startup.
var masterSchemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS tenants (
		id                UUID        PRIMARY KEY,
		identifier        TEXT        NOT NULL UNIQUE,
		domain            TEXT        NOT NULL UNIQUE,
		name              TEXT        NOT NULL,
		database_name     TEXT        NOT NULL UNIQUE,
		connection_string TEXT        NOT NULL,
		status            TEXT        NOT NULL DEFAULT 'active',
		features          JSONB       NOT NULL DEFAULT '{}'::jsonb,
		isolation         JSONB       NOT NULL DEFAULT '{}'::jsonb,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS tenants_status_idx ON tenants (status)`,
}

// ErrFailedToEnsureSchema wraps master-schema creation failures.
var ErrFailedToEnsureSchema = errors.New("failed to ensure tenants schema")

// EnsureSchema creates the master tenants table if missing. Call once at
// startup before serving lookups.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, ddl := range masterSchemaDDL {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return errors.Join(ErrFailedToEnsureSchema, err)
		}
	}
	return nil
}

var _ Store = (*pgStore)(nil)
