package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// tenantSchemaDDL is the baseline tenant schema used when no migration
// history mechanism is available. Every statement is guarded so re-running
// on an up-to-date database is a no-op.
var tenantSchemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS tenant_settings (
		namespace  TEXT        NOT NULL,
		key        TEXT        NOT NULL,
		value      JSONB       NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (namespace, key)
	)`,
	`CREATE TABLE IF NOT EXISTS pages (
		id         UUID        PRIMARY KEY,
		slug       TEXT        NOT NULL UNIQUE,
		title      TEXT        NOT NULL,
		body       JSONB       NOT NULL DEFAULT '{}'::jsonb,
		published  BOOLEAN     NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS menus (
		id         UUID        PRIMARY KEY,
		name       TEXT        NOT NULL UNIQUE,
		items      JSONB       NOT NULL DEFAULT '[]'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS sliders (
		id         UUID        PRIMARY KEY,
		name       TEXT        NOT NULL UNIQUE,
		slides     JSONB       NOT NULL DEFAULT '[]'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates the baseline tenant schema in one shot. Used as the
// fallback migration path and safe to call on an already-provisioned
// database.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, ddl := range tenantSchemaDDL {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return errors.Join(ErrFailedToApplyMigrations, err)
		}
	}
	return nil
}
