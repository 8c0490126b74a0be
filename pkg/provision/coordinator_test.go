package provision_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitehub-io/tenantcore/pkg/provision"
	"github.com/sitehub-io/tenantcore/pkg/tenant"
)

// recorder journals every executor call in order so tests can assert the
// saga's sequencing.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *recorder) journal() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) count(name string) int {
	n := 0
	for _, c := range r.journal() {
		if c == name {
			n++
		}
	}
	return n
}

type fakeRegistry struct {
	rec *recorder
	err error
}

func (f *fakeRegistry) Upsert(ctx context.Context, rec *tenant.Record) (*tenant.Record, error) {
	f.rec.record("upsert")
	if f.err != nil {
		return nil, f.err
	}
	persisted := *rec
	if persisted.ID == uuid.Nil {
		persisted.ID = uuid.New()
	}
	persisted.Status = tenant.StatusActive
	return &persisted, nil
}

type fakeCreator struct {
	rec       *recorder
	createErr error
	deleteErr error
}

func (f *fakeCreator) CreateIfNotExists(ctx context.Context, name string) error {
	f.rec.record("create")
	return f.createErr
}

func (f *fakeCreator) DeleteIfExists(ctx context.Context, name string) error {
	f.rec.record("delete")
	return f.deleteErr
}

type fakeMigrator struct {
	rec *recorder
	err error
	// failures > 0 makes the first N calls fail, then succeed.
	failures int
	calls    int
}

func (f *fakeMigrator) Run(ctx context.Context, connString string) error {
	f.rec.record("migrate")
	f.calls++
	if f.failures > 0 && f.calls <= f.failures {
		return errors.New("transient migration failure")
	}
	return f.err
}

type fakeSeeder struct {
	rec *recorder
	err error
}

func (f *fakeSeeder) Run(ctx context.Context, connString string) error {
	f.rec.record("seed")
	return f.err
}

type fakeFeatures struct {
	rec *recorder
	err error
}

func (f *fakeFeatures) Run(ctx context.Context, tenantID uuid.UUID, connString string, features json.RawMessage) error {
	f.rec.record("features")
	return f.err
}

type fixture struct {
	rec      *recorder
	registry *fakeRegistry
	creator  *fakeCreator
	migrator *fakeMigrator
	seeder   *fakeSeeder
	features *fakeFeatures
}

func newFixture() *fixture {
	rec := &recorder{}
	return &fixture{
		rec:      rec,
		registry: &fakeRegistry{rec: rec},
		creator:  &fakeCreator{rec: rec},
		migrator: &fakeMigrator{rec: rec},
		seeder:   &fakeSeeder{rec: rec},
		features: &fakeFeatures{rec: rec},
	}
}

func (f *fixture) coordinator(opts ...provision.CoordinatorOption) *provision.Coordinator {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return provision.NewCoordinator(f.registry, f.creator, f.migrator, f.seeder, f.features, log, opts...)
}

func onboardRecord() *tenant.Record {
	return &tenant.Record{
		Identifier:       "acme",
		Domain:           "acme.example.com",
		Name:             "Acme Inc",
		DatabaseName:     "tenant_acme",
		ConnectionString: "postgres://localhost/tenant_acme",
	}
}

// fastRetry keeps retried-path tests quick without touching the policy shape.
func fastRetry() provision.CoordinatorOption {
	return provision.WithRetryPolicy(3, time.Millisecond)
}

func TestCoordinator_Onboard(t *testing.T) {
	t.Parallel()

	t.Run("runs all steps in order", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		c := f.coordinator()

		persisted, err := c.Onboard(context.Background(), onboardRecord(), json.RawMessage(`{"blog":true}`))
		require.NoError(t, err)
		require.NotNil(t, persisted)
		assert.NotEqual(t, uuid.Nil, persisted.ID)
		assert.JSONEq(t, `{"blog":true}`, string(persisted.Features))

		assert.Equal(t, []string{"upsert", "create", "migrate", "seed", "features"}, f.rec.journal())
	})

	t.Run("rejects incomplete records", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		c := f.coordinator()
		ctx := context.Background()

		_, err := c.Onboard(ctx, nil, nil)
		assert.ErrorIs(t, err, provision.ErrInvalidTenantRecord)

		rec := onboardRecord()
		rec.DatabaseName = ""
		_, err = c.Onboard(ctx, rec, nil)
		assert.ErrorIs(t, err, provision.ErrInvalidTenantRecord)

		assert.Empty(t, f.rec.journal())
	})

	t.Run("registry failure aborts before any step", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.registry.err = errors.New("registry down")
		c := f.coordinator()

		_, err := c.Onboard(context.Background(), onboardRecord(), nil)
		require.ErrorIs(t, err, provision.ErrProvisioningFailed)
		assert.Equal(t, []string{"upsert"}, f.rec.journal())
	})

	t.Run("transient step failure recovers within the retry budget", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.migrator.failures = 2
		c := f.coordinator(fastRetry())

		_, err := c.Onboard(context.Background(), onboardRecord(), nil)
		require.NoError(t, err)

		assert.Equal(t, 3, f.rec.count("migrate"))
		assert.Equal(t, 1, f.rec.count("seed"))
		assert.Equal(t, 0, f.rec.count("delete"))
	})

	t.Run("permanent failure compensates once and propagates the cause", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		migrationErr := errors.New("schema is broken")
		f.migrator.err = migrationErr
		c := f.coordinator(fastRetry())

		_, err := c.Onboard(context.Background(), onboardRecord(), nil)
		require.ErrorIs(t, err, provision.ErrProvisioningFailed)
		assert.ErrorIs(t, err, migrationErr)

		assert.Equal(t, 3, f.rec.count("migrate"))
		assert.Equal(t, 1, f.rec.count("delete"))
		// Later steps never run after a permanent failure.
		assert.Equal(t, 0, f.rec.count("seed"))
		assert.Equal(t, 0, f.rec.count("features"))
	})

	t.Run("compensation failure never masks the original error", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		migrationErr := errors.New("schema is broken")
		f.migrator.err = migrationErr
		f.creator.deleteErr = errors.New("drop refused")
		c := f.coordinator(fastRetry())

		_, err := c.Onboard(context.Background(), onboardRecord(), nil)
		require.ErrorIs(t, err, provision.ErrProvisioningFailed)
		assert.ErrorIs(t, err, migrationErr)
		assert.NotErrorIs(t, err, provision.ErrCompensationFailed)

		// Compensation itself is retried.
		assert.Equal(t, 3, f.rec.count("delete"))
	})

	t.Run("seeder failure compensates too", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.seeder.err = errors.New("seed data rejected")
		c := f.coordinator(fastRetry())

		_, err := c.Onboard(context.Background(), onboardRecord(), nil)
		require.ErrorIs(t, err, provision.ErrProvisioningFailed)
		assert.Equal(t, 1, f.rec.count("create"))
		assert.Equal(t, 1, f.rec.count("migrate"))
		assert.Equal(t, 1, f.rec.count("delete"))
	})

	t.Run("cancellation stops retrying", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.migrator.err = errors.New("still failing")
		c := f.coordinator(provision.WithRetryPolicy(3, time.Hour))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			_, err := c.Onboard(ctx, onboardRecord(), nil)
			done <- err
		}()

		// Let the first attempt fail, then cancel during the backoff wait.
		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			require.ErrorIs(t, err, provision.ErrProvisioningFailed)
		case <-time.After(5 * time.Second):
			t.Fatal("onboarding did not abort on cancellation")
		}
		assert.Equal(t, 1, f.rec.count("migrate"))
	})

	t.Run("default policy waits 200ms then 400ms", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.migrator.failures = 2
		c := f.coordinator()

		start := time.Now()
		_, err := c.Onboard(context.Background(), onboardRecord(), nil)
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Equal(t, 3, f.rec.count("migrate"))
		assert.GreaterOrEqual(t, elapsed, 600*time.Millisecond)
		assert.Less(t, elapsed, 3*time.Second)
	})

	t.Run("backoff doubles between attempts", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.migrator.err = errors.New("still failing")
		c := f.coordinator(provision.WithRetryPolicy(3, 50*time.Millisecond))
		// Compensation runs instantly: dropping succeeds on the first try.

		start := time.Now()
		_, err := c.Onboard(context.Background(), onboardRecord(), nil)
		elapsed := time.Since(start)

		require.ErrorIs(t, err, provision.ErrProvisioningFailed)
		assert.Equal(t, 3, f.rec.count("migrate"))
		// Two waits: 50ms then 100ms.
		assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
		assert.Less(t, elapsed, 2*time.Second)
	})
}
