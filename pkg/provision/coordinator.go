package provision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/sitehub-io/tenantcore/pkg/tenant"
)

const (
	// DefaultRetryAttempts is the total number of attempts per step.
	DefaultRetryAttempts = 3
	// DefaultRetryDelay is the backoff before the second attempt; it doubles
	// after every failed attempt (200ms, 400ms, ...).
	DefaultRetryDelay = 200 * time.Millisecond
)

// Coordinator drives tenant onboarding as a forward-only saga:
// CreateDatabase -> RunMigrations -> RunSeeders -> InitializeFeatures, each
// step retried with exponential backoff. When a step permanently fails the
// coordinator makes exactly one compensating move, delete-if-exists on the
// tenant database, itself wrapped in the same retry policy. No per-step undo
// is needed: steps after creation only touch the just-created database,
// which compensation destroys wholesale.
//
// The registry row written at the start of onboarding is deliberately left
// in place on failure. The operator sees a tenant pointing at resources that
// are provisioned-but-broken and decides what to do; deleting registry rows
// is a separate administrative action, never an automatic one.
type Coordinator struct {
	registry Registry
	creator  DatabaseCreator
	migrator Migrator
	seeder   Seeder
	features FeatureInitializer
	log      *slog.Logger

	attempts uint
	delay    time.Duration
}

// CoordinatorOption configures the coordinator.
type CoordinatorOption func(*Coordinator)

// WithRetryPolicy overrides the per-step retry attempts and initial backoff
// delay. Intended for tests; production uses the defaults.
func WithRetryPolicy(attempts uint, delay time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if delay > 0 {
			c.delay = delay
		}
	}
}

// NewCoordinator wires the onboarding saga from its step executors.
func NewCoordinator(
	registry Registry,
	creator DatabaseCreator,
	migrator Migrator,
	seeder Seeder,
	features FeatureInitializer,
	log *slog.Logger,
	opts ...CoordinatorOption,
) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	c := &Coordinator{
		registry: registry,
		creator:  creator,
		migrator: migrator,
		seeder:   seeder,
		features: features,
		log:      log,
		attempts: DefaultRetryAttempts,
		delay:    DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// step is one named unit of the saga. Additional onboarding steps slot into
// the ordered list in Onboard without touching the retry machinery.
type step struct {
	name string
	run  func(ctx context.Context) error
}

// Onboard provisions a brand-new tenant from a fully described, not yet
// persisted record plus its feature-settings JSON. On success the persisted
// record is returned. On permanent step failure the root cause propagates
// after best-effort compensation; a compensation failure is logged with the
// tenant identifier and never replaces the original error.
func (c *Coordinator) Onboard(ctx context.Context, rec *tenant.Record, features json.RawMessage) (*tenant.Record, error) {
	if rec == nil || rec.Identifier == "" || rec.DatabaseName == "" || rec.ConnectionString == "" {
		return nil, ErrInvalidTenantRecord
	}

	rec.Features = features
	persisted, err := c.registry.Upsert(ctx, rec)
	if err != nil {
		return nil, errors.Join(ErrProvisioningFailed, err)
	}

	steps := []step{
		{name: "create database", run: func(ctx context.Context) error {
			return c.creator.CreateIfNotExists(ctx, persisted.DatabaseName)
		}},
		{name: "run migrations", run: func(ctx context.Context) error {
			return c.migrator.Run(ctx, persisted.ConnectionString)
		}},
		{name: "run seeders", run: func(ctx context.Context) error {
			return c.seeder.Run(ctx, persisted.ConnectionString)
		}},
		{name: "initialize features", run: func(ctx context.Context) error {
			return c.features.Run(ctx, persisted.ID, persisted.ConnectionString, features)
		}},
	}

	for _, s := range steps {
		if err := c.runStep(ctx, s); err != nil {
			c.log.ErrorContext(ctx, "tenant onboarding step failed permanently",
				"tenant", persisted.Identifier, "step", s.name, "error", err)
			c.compensate(ctx, persisted)
			return nil, errors.Join(ErrProvisioningFailed, fmt.Errorf("step %q: %w", s.name, err))
		}
	}

	c.log.InfoContext(ctx, "tenant onboarded",
		"tenant", persisted.Identifier, "database", persisted.DatabaseName)
	return persisted, nil
}

// runStep executes one step under the retry policy. Cancellation aborts
// before a new attempt starts, never mid-statement.
func (c *Coordinator) runStep(ctx context.Context, s step) error {
	return retry.Do(
		func() error { return s.run(ctx) },
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.WarnContext(ctx, "tenant onboarding step retrying",
				"step", s.name, "attempt", n+1, "error", err)
		}),
	)
}

// compensate drops the tenant database, retried under the same policy. The
// registry row stays; the caller's original error stays the one that
// propagates.
func (c *Coordinator) compensate(ctx context.Context, rec *tenant.Record) {
	err := retry.Do(
		func() error { return c.creator.DeleteIfExists(ctx, rec.DatabaseName) },
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		c.log.ErrorContext(ctx, "tenant onboarding compensation failed",
			"tenant", rec.Identifier, "database", rec.DatabaseName,
			"error", errors.Join(ErrCompensationFailed, err))
		return
	}
	c.log.WarnContext(ctx, "tenant database dropped after failed onboarding, registry row kept",
		"tenant", rec.Identifier, "database", rec.DatabaseName)
}
