package tenant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitehub-io/tenantcore/pkg/tenant"
)

func TestScopeContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		scope := tenant.NewScope(nil)
		ctx := tenant.WithScope(context.Background(), scope)

		got, ok := tenant.ScopeFromContext(ctx)
		require.True(t, ok)
		assert.Same(t, scope, got)
	})

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()

		_, ok := tenant.ScopeFromContext(context.Background())
		assert.False(t, ok)

		_, ok = tenant.SessionFromContext(context.Background())
		assert.False(t, ok)

		_, ok = tenant.IDFromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("scope without session yields no session", func(t *testing.T) {
		t.Parallel()

		ctx := tenant.WithScope(context.Background(), tenant.NewScope(nil))
		_, ok := tenant.SessionFromContext(ctx)
		assert.False(t, ok)
	})

	t.Run("session accessors", func(t *testing.T) {
		t.Parallel()

		rec := newTestRecord("acme")
		scope := tenant.NewScope(nil)
		require.NoError(t, scope.Attach(tenant.NewSession(rec)))
		ctx := tenant.WithScope(context.Background(), scope)

		sess, ok := tenant.SessionFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, rec.ID, sess.TenantID())

		id, ok := tenant.IDFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, rec.ID, id)
	})

	t.Run("must panics without tenant", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			tenant.MustSessionFromContext(context.Background())
		})
	})

	t.Run("logger extractor", func(t *testing.T) {
		t.Parallel()

		extract := tenant.LoggerExtractor()

		_, ok := extract(context.Background())
		assert.False(t, ok)

		rec := newTestRecord("acme")
		scope := tenant.NewScope(nil)
		require.NoError(t, scope.Attach(tenant.NewSession(rec)))
		attr, ok := extract(tenant.WithScope(context.Background(), scope))
		require.True(t, ok)
		assert.Equal(t, "tenant_id", attr.Key)
		assert.Equal(t, rec.ID.String(), attr.Value.String())
	})
}
