package registry_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitehub-io/tenantcore/pkg/registry"
	"github.com/sitehub-io/tenantcore/pkg/tenant"
)

// fakeStore is an in-memory Store with call counters.
type fakeStore struct {
	mu      sync.RWMutex
	rows    map[uuid.UUID]*tenant.Record
	reads   int
	inserts int
	updates int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[uuid.UUID]*tenant.Record)}
}

func (s *fakeStore) find(match func(*tenant.Record) bool) (*tenant.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads++
	for _, rec := range s.rows {
		if match(rec) {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

func (s *fakeStore) GetByDomain(ctx context.Context, domain string) (*tenant.Record, error) {
	return s.find(func(r *tenant.Record) bool {
		return r.Domain == domain && r.Status != tenant.StatusDeleted
	})
}

func (s *fakeStore) GetByIdentifier(ctx context.Context, identifier string) (*tenant.Record, error) {
	return s.find(func(r *tenant.Record) bool {
		return r.Identifier == identifier && r.Status != tenant.StatusDeleted
	})
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*tenant.Record, error) {
	return s.find(func(r *tenant.Record) bool { return r.ID.String() == id })
}

func (s *fakeStore) ListActive(ctx context.Context) ([]*tenant.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*tenant.Record
	for _, rec := range s.rows {
		if rec.Status == tenant.StatusActive {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeStore) Insert(ctx context.Context, rec *tenant.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.rows {
		if existing.Identifier == rec.Identifier || existing.Domain == rec.Domain ||
			existing.DatabaseName == rec.DatabaseName {
			return tenant.ErrTenantConflict
		}
	}
	s.inserts++
	cp := *rec
	s.rows[rec.ID] = &cp
	return nil
}

func (s *fakeStore) Update(ctx context.Context, rec *tenant.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[rec.ID]; !ok {
		return tenant.ErrTenantNotFound
	}
	s.updates++
	cp := *rec
	s.rows[rec.ID] = &cp
	return nil
}

func (s *fakeStore) readCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reads
}

func testRecord(identifier string) *tenant.Record {
	return &tenant.Record{
		Identifier:       identifier,
		Domain:           identifier + ".example.com",
		Name:             identifier,
		DatabaseName:     "tenant_" + identifier,
		ConnectionString: "postgres://localhost/tenant_" + identifier,
		Features:         json.RawMessage(`{"blog":true}`),
	}
}

func newTestRegistry(t *testing.T, store registry.Store) *registry.Registry {
	t.Helper()

	meta := tenant.NewInMemoryCache()
	features := tenant.NewInMemoryFeatureCache()
	t.Cleanup(func() {
		_ = meta.Close()
		_ = features.Close()
	})

	return registry.New(store,
		registry.WithMetadataCache(meta),
		registry.WithFeatureCache(features),
		registry.WithCacheTTL(time.Minute),
	)
}

func TestRegistry_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("unknown domain is not found", func(t *testing.T) {
		t.Parallel()

		reg := newTestRegistry(t, newFakeStore())
		_, err := reg.Resolve(context.Background(), "ghost.example.com")
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
	})

	t.Run("empty identifier is not found", func(t *testing.T) {
		t.Parallel()

		reg := newTestRegistry(t, newFakeStore())
		_, err := reg.Resolve(context.Background(), "   ")
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
	})

	t.Run("active tenant resolves by domain and identifier", func(t *testing.T) {
		t.Parallel()

		reg := newTestRegistry(t, newFakeStore())
		ctx := context.Background()

		created, err := reg.Upsert(ctx, testRecord("acme"))
		require.NoError(t, err)

		byDomain, err := reg.Resolve(ctx, "ACME.example.com ")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byDomain.ID)

		byIdent, err := reg.Resolve(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byIdent.ID)
	})

	t.Run("deactivated tenant resolves as not found", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		reg := newTestRegistry(t, store)
		ctx := context.Background()

		_, err := reg.Upsert(ctx, testRecord("acme"))
		require.NoError(t, err)

		_, err = reg.Deactivate(ctx, "acme")
		require.NoError(t, err)

		_, err = reg.Resolve(ctx, "acme.example.com")
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)

		// The row still exists for administrative lookups.
		rec, err := reg.GetByIdentifier(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, tenant.StatusDeactivated, rec.Status)
	})
}

func TestRegistry_CacheReads(t *testing.T) {
	t.Parallel()

	t.Run("read miss populates cache", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		reg := newTestRegistry(t, store)
		ctx := context.Background()

		created, err := reg.Upsert(ctx, testRecord("acme"))
		require.NoError(t, err)
		readsAfterUpsert := store.readCount()

		// Repeated resolutions must be served from cache.
		for range 5 {
			rec, err := reg.GetByDomain(ctx, created.Domain)
			require.NoError(t, err)
			assert.Equal(t, created.ID, rec.ID)
		}
		assert.Equal(t, readsAfterUpsert, store.readCount())
	})

	t.Run("read miss warms feature cache too", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		features := tenant.NewInMemoryFeatureCache()
		t.Cleanup(func() { _ = features.Close() })

		reg := registry.New(store, registry.WithFeatureCache(features))
		ctx := context.Background()

		created, err := reg.Upsert(ctx, testRecord("acme"))
		require.NoError(t, err)

		got, ok := features.Get(ctx, created.ID)
		require.True(t, ok)
		assert.JSONEq(t, `{"blog":true}`, string(got))
	})
}

func TestRegistry_Upsert(t *testing.T) {
	t.Parallel()

	t.Run("creates with generated id and active status", func(t *testing.T) {
		t.Parallel()

		reg := newTestRegistry(t, newFakeStore())
		created, err := reg.Upsert(context.Background(), testRecord("acme"))
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.Equal(t, tenant.StatusActive, created.Status)
		assert.False(t, created.CreatedAt.IsZero())
	})

	t.Run("idempotent on identical content", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		reg := newTestRegistry(t, store)
		ctx := context.Background()

		first, err := reg.Upsert(ctx, testRecord("acme"))
		require.NoError(t, err)
		second, err := reg.Upsert(ctx, testRecord("acme"))
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, store.inserts)

		rec, err := reg.Resolve(ctx, "acme.example.com")
		require.NoError(t, err)
		assert.Equal(t, first.ID, rec.ID)
		assert.Equal(t, first.Name, rec.Name)
	})

	t.Run("mixed-case routing keys are stored canonical and routable", func(t *testing.T) {
		t.Parallel()

		reg := newTestRegistry(t, newFakeStore())
		ctx := context.Background()

		rec := testRecord("acme")
		rec.Identifier = "ACME"
		rec.Domain = "ACME.Example.COM"
		created, err := reg.Upsert(ctx, rec)
		require.NoError(t, err)

		assert.Equal(t, "acme", created.Identifier)
		assert.Equal(t, "acme.example.com", created.Domain)

		resolved, err := reg.Resolve(ctx, "acme.example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, resolved.ID)

		// Lifecycle operations accept the raw casing too.
		_, err = reg.Deactivate(ctx, "ACME")
		require.NoError(t, err)
		_, err = reg.Resolve(ctx, "acme.example.com")
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
	})

	t.Run("update moves domain and invalidates the old key", func(t *testing.T) {
		t.Parallel()

		reg := newTestRegistry(t, newFakeStore())
		ctx := context.Background()

		created, err := reg.Upsert(ctx, testRecord("acme"))
		require.NoError(t, err)

		// Warm the cache under the old domain.
		_, err = reg.Resolve(ctx, created.Domain)
		require.NoError(t, err)

		moved := testRecord("acme")
		moved.Domain = "acme.new-domain.com"
		updated, err := reg.Upsert(ctx, moved)
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)

		_, err = reg.Resolve(ctx, "acme.example.com")
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)

		rec, err := reg.Resolve(ctx, "acme.new-domain.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, rec.ID)
	})

	t.Run("no stale reads after update under concurrent readers", func(t *testing.T) {
		t.Parallel()

		reg := newTestRegistry(t, newFakeStore())
		ctx := context.Background()

		_, err := reg.Upsert(ctx, testRecord("acme"))
		require.NoError(t, err)

		stop := make(chan struct{})
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-stop:
						return
					default:
						_, _ = reg.Resolve(ctx, "acme.example.com")
					}
				}
			}()
		}

		renamed := testRecord("acme")
		renamed.Name = "ACME Renamed"
		_, err = reg.Upsert(ctx, renamed)
		require.NoError(t, err)

		// After the write completes, no reader may see the pre-upsert value.
		for range 20 {
			rec, err := reg.Resolve(ctx, "acme.example.com")
			require.NoError(t, err)
			assert.Equal(t, "ACME Renamed", rec.Name)
		}

		close(stop)
		wg.Wait()
	})
}

func TestRegistry_Lifecycle(t *testing.T) {
	t.Parallel()

	t.Run("activate restores routing", func(t *testing.T) {
		t.Parallel()

		reg := newTestRegistry(t, newFakeStore())
		ctx := context.Background()

		_, err := reg.Upsert(ctx, testRecord("acme"))
		require.NoError(t, err)
		_, err = reg.Deactivate(ctx, "acme")
		require.NoError(t, err)
		_, err = reg.Activate(ctx, "acme")
		require.NoError(t, err)

		rec, err := reg.Resolve(ctx, "acme.example.com")
		require.NoError(t, err)
		assert.True(t, rec.Active())
	})

	t.Run("activate unknown tenant fails", func(t *testing.T) {
		t.Parallel()

		reg := newTestRegistry(t, newFakeStore())
		_, err := reg.Activate(context.Background(), "ghost")
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
	})

	t.Run("deactivate-and-delete purges caches for good", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		features := tenant.NewInMemoryFeatureCache()
		t.Cleanup(func() { _ = features.Close() })
		reg := registry.New(store, registry.WithFeatureCache(features))
		ctx := context.Background()

		created, err := reg.Upsert(ctx, testRecord("acme"))
		require.NoError(t, err)
		_, err = reg.Resolve(ctx, created.Domain)
		require.NoError(t, err)

		require.NoError(t, reg.DeactivateAndDelete(ctx, "acme"))

		_, err = reg.Resolve(ctx, created.Domain)
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
		_, err = reg.GetByIdentifier(ctx, "acme")
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
		_, ok := features.Get(ctx, created.ID)
		assert.False(t, ok)

		// Administrative access by id survives logical deletion.
		rec, err := reg.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, tenant.StatusDeleted, rec.Status)
	})
}

func TestRegistry_ListActive(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t, newFakeStore())
	ctx := context.Background()

	_, err := reg.Upsert(ctx, testRecord("alpha"))
	require.NoError(t, err)
	_, err = reg.Upsert(ctx, testRecord("beta"))
	require.NoError(t, err)
	_, err = reg.Deactivate(ctx, "beta")
	require.NoError(t, err)

	active, err := reg.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "alpha", active[0].Identifier)
}
