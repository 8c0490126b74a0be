// Package pg provides the PostgreSQL plumbing for the tenant platform using
// the pgx/v5 driver: master-store connectivity, per-tenant handle
// configuration, administrative database management and tenant schema
// migrations.
//
// # Architecture
//
// The package exposes four cooperating building blocks:
//
//   - Config – a declarative struct whose fields are populated from
//     environment variables via github.com/caarlos0/env. It controls
//     connection pool limits, the admin connection and migration paths.
//
//   - Connect – opens the master-store *pgxpool.Pool based on Config,
//     retrying with exponential back-off until the database is available.
//
//   - ContextFactory – memoizes parsed pool configurations per connection
//     string and manufactures tenant database handles from the shared,
//     immutable configuration. One instance serves all concurrent requests.
//
//   - DatabaseCreator / Migrator / EnsureSchema – the provisioning side:
//     idempotent create/drop of tenant databases over an admin connection,
//     and goose-driven schema migrations with a one-shot base-schema
//     fallback when no migrations directory is present.
//
// # Usage
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//	    panic(err)
//	}
//
//	master, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    panic(err)
//	}
//	defer master.Close()
//
//	factory := pg.NewContextFactory()
//	migrator := pg.NewMigrator(factory, cfg, slog.Default())
//
// # Error Handling
//
// Helpers such as [IsDuplicateKeyError] and [IsDuplicateDatabaseError]
// unwrap `*pgconn.PgError` values and make error classification trivial in
// the registry and provisioning layers.
package pg
