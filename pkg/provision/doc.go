// Package provision implements tenant onboarding as a saga with per-step
// retry and a single whole-pipeline compensation.
//
// The Coordinator executes four steps strictly in order:
//
//	CreateDatabase -> RunMigrations -> RunSeeders -> InitializeFeatures
//
// Each step is retried up to 3 attempts with exponential backoff starting at
// 200ms (200ms, 400ms; the final attempt is not followed by a wait).
// Cancellation aborts before a new attempt starts. If a step exhausts its
// retries the coordinator performs exactly one compensating action —
// delete-if-exists on the tenant database, under the same retry policy —
// and propagates the step's root cause. Compensation failures are logged
// with the tenant identifier, never returned.
//
// Step executors are small interfaces so a Postgres tenant uses
// pg.DatabaseCreator and pg.Migrator while a document-store tenant uses the
// mongo counterparts, without the coordinator caring. The provided PgSeeder
// and PgFeatureInitializer write the baseline content set and the
// feature-settings document; both are idempotent, guarded by the bootstrap
// marker and an upsert respectively.
//
// Known operational gap, preserved deliberately: a registry row written
// before a permanent failure is not removed. The tenant remains visible as
// provisioned-but-broken until an operator either retries onboarding (every
// step tolerates re-running) or deletes the tenant explicitly.
package provision
