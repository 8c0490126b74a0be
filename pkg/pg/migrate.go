package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// logger defines the interface required for migration logging integration.
// Compatible with slog and other structured loggers, required for goose
// migration output routing to application logging instead of stdout/stderr.
type logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// Migrator applies schema migrations to one tenant database at a time. Safe
// to invoke on an up-to-date schema: goose tracks applied versions and the
// fallback DDL is written with IF NOT EXISTS guards.
type Migrator struct {
	factory *ContextFactory
	cfg     Config
	log     logger
}

// NewMigrator creates a tenant schema migrator. Handles are created through
// the factory so repeated migrations of the same tenant reuse the memoized
// pool configuration.
func NewMigrator(factory *ContextFactory, cfg Config, log logger) *Migrator {
	return &Migrator{factory: factory, cfg: cfg, log: log}
}

// Run opens a handle on the tenant database and brings its schema up to
// date. When no migrations directory is available it falls back to the
// one-shot EnsureSchema path.
func (m *Migrator) Run(ctx context.Context, connString string) error {
	pool, err := m.factory.Create(ctx, connString)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	defer pool.Close()

	if m.cfg.MigrationsPath == "" {
		return EnsureSchema(ctx, pool)
	}
	if _, err := os.Stat(m.cfg.MigrationsPath); err != nil {
		if os.IsNotExist(err) {
			m.log.InfoContext(ctx, "migrations directory not found, ensuring base schema",
				"path", m.cfg.MigrationsPath)
			return EnsureSchema(ctx, pool)
		}
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	return Migrate(ctx, pool, m.cfg, m.log)
}

// Migrate applies database schema migrations using goose with pgx integration.
// Handles the pgx->database/sql conversion required since goose doesn't natively support pgx.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg Config, log logger) error {
	// Bridge pgx connection pool to database/sql interface required by goose.
	// This creates a wrapper that shares the underlying connections but provides
	// the standard library interface that goose migration tool expects.
	db := stdlib.OpenDBFromPool(pool)
	defer func(db *sql.DB) {
		err := db.Close()
		if err != nil {
			log.ErrorContext(ctx, "Failed to close database connection", "error", err)
		}
	}(db)

	// Route goose migration logs through application logger instead of stdout.
	goose.SetLogger(newSlogAdapter(log))
	goose.SetTableName(cfg.MigrationsTable)

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	if err := goose.UpContext(ctx, db, cfg.MigrationsPath); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	return nil
}

// migrateSlogAdapter bridges goose's Printf-style logging to structured logging.
// Maps goose's Fatalf to ErrorContext and Printf to InfoContext for consistency.
type migrateSlogAdapter struct {
	log logger
}

func newSlogAdapter(log logger) goose.Logger {
	return &migrateSlogAdapter{
		log: log,
	}
}

func (a *migrateSlogAdapter) Fatalf(format string, v ...any) {
	a.log.ErrorContext(context.Background(), fmt.Sprintf(format, v...))
}

func (a *migrateSlogAdapter) Printf(format string, v ...any) {
	a.log.InfoContext(context.Background(), fmt.Sprintf(format, v...))
}
