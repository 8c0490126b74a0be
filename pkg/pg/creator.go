package pg

import (
	"context"
	"errors"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// databaseNamePattern restricts tenant database names to identifiers that
// are safe to interpolate into DDL statements after quoting.
var databaseNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// DatabaseCreator performs server-level administrative operations against
// the Postgres instance hosting tenant databases. It holds an admin pool
// connected to a maintenance database (usually "postgres"), never to a
// specific tenant database.
//
// Both operations are idempotent: creating an existing database and dropping
// an absent one are no-op successes. Idempotent drop is what lets the
// onboarding compensation path run even when creation never completed.
type DatabaseCreator struct {
	admin *pgxpool.Pool
}

// NewDatabaseCreator creates a DatabaseCreator over the given admin pool.
func NewDatabaseCreator(admin *pgxpool.Pool) *DatabaseCreator {
	return &DatabaseCreator{admin: admin}
}

// CreateIfNotExists creates the tenant database unless it already exists.
// Postgres has no CREATE DATABASE IF NOT EXISTS, so existence is checked
// first; a concurrent creator winning the race (SQLSTATE 42P04) also counts
// as success.
func (c *DatabaseCreator) CreateIfNotExists(ctx context.Context, name string) error {
	if !databaseNamePattern.MatchString(name) {
		return ErrInvalidDatabaseName
	}

	var exists bool
	err := c.admin.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, name,
	).Scan(&exists)
	if err != nil {
		return errors.Join(ErrFailedToCreateDatabase, err)
	}
	if exists {
		return nil
	}

	// CREATE DATABASE cannot be parameterized; the name is validated above
	// and quoted here.
	if _, err := c.admin.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
		if IsDuplicateDatabaseError(err) {
			return nil
		}
		return errors.Join(ErrFailedToCreateDatabase, err)
	}
	return nil
}

// DeleteIfExists drops the tenant database if present. Postgres refuses to
// drop a database with active connections, so other backends connected to it
// are terminated first.
func (c *DatabaseCreator) DeleteIfExists(ctx context.Context, name string) error {
	if !databaseNamePattern.MatchString(name) {
		return ErrInvalidDatabaseName
	}

	if _, err := c.admin.Exec(ctx,
		`SELECT pg_terminate_backend(pid) FROM pg_stat_activity
		 WHERE datname = $1 AND pid <> pg_backend_pid()`, name,
	); err != nil {
		return errors.Join(ErrFailedToDropDatabase, err)
	}

	if _, err := c.admin.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{name}.Sanitize()); err != nil {
		return errors.Join(ErrFailedToDropDatabase, err)
	}
	return nil
}
