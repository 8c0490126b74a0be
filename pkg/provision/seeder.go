package provision

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sitehub-io/tenantcore/pkg/tenant"
)

// dbtx is the slice of pgxpool.Pool the seeding queries need. Narrowed for
// testability.
type dbtx interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Settings document namespaces and keys used by provisioning.
const (
	SystemNamespace = "system"
	SiteNamespace   = "site"

	BootstrapKey  = "bootstrap"
	FeaturesKey   = "features"
	NavigationKey = "navigation"
	FooterKey     = "footer"
)

// PgSeeder writes the baseline content set into a freshly migrated tenant
// database: the bootstrap marker, default website pages, the default menu
// tree, navigation/footer configuration and the default slider. The
// bootstrap marker guards the whole run, so re-seeding an already-seeded
// tenant is a no-op.
type PgSeeder struct {
	factory tenant.HandleFactory
}

// NewPgSeeder creates a seeder that opens tenant handles through the factory.
func NewPgSeeder(factory tenant.HandleFactory) *PgSeeder {
	return &PgSeeder{factory: factory}
}

// Run opens the tenant database and seeds it unless already seeded.
func (s *PgSeeder) Run(ctx context.Context, connString string) error {
	pool, err := s.factory.Create(ctx, connString)
	if err != nil {
		return errors.Join(ErrSeedingFailed, err)
	}
	defer pool.Close()

	return s.seed(ctx, pool)
}

func (s *PgSeeder) seed(ctx context.Context, db dbtx) error {
	var seeded bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenant_settings WHERE namespace = $1 AND key = $2)`,
		SystemNamespace, BootstrapKey,
	).Scan(&seeded)
	if err != nil {
		return errors.Join(ErrSeedingFailed, err)
	}
	if seeded {
		return nil
	}

	for _, page := range defaultPages() {
		if _, err := db.Exec(ctx,
			`INSERT INTO pages (id, slug, title, body, published)
			 VALUES ($1, $2, $3, $4, true)
			 ON CONFLICT (slug) DO NOTHING`,
			uuid.New(), page.slug, page.title, page.body,
		); err != nil {
			return errors.Join(ErrSeedingFailed, err)
		}
	}

	if _, err := db.Exec(ctx,
		`INSERT INTO menus (id, name, items) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO NOTHING`,
		uuid.New(), "main", defaultMenuItems,
	); err != nil {
		return errors.Join(ErrSeedingFailed, err)
	}

	if _, err := db.Exec(ctx,
		`INSERT INTO sliders (id, name, slides) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO NOTHING`,
		uuid.New(), "home", defaultSlides,
	); err != nil {
		return errors.Join(ErrSeedingFailed, err)
	}

	siteSettings := map[string]string{
		NavigationKey: defaultNavigation,
		FooterKey:     defaultFooter,
	}
	for key, value := range siteSettings {
		if _, err := db.Exec(ctx,
			`INSERT INTO tenant_settings (namespace, key, value) VALUES ($1, $2, $3)
			 ON CONFLICT (namespace, key) DO NOTHING`,
			SiteNamespace, key, value,
		); err != nil {
			return errors.Join(ErrSeedingFailed, err)
		}
	}

	// The marker goes in last: a crash mid-seed leaves the run resumable.
	if _, err := db.Exec(ctx,
		`INSERT INTO tenant_settings (namespace, key, value) VALUES ($1, $2, $3)
		 ON CONFLICT (namespace, key) DO NOTHING`,
		SystemNamespace, BootstrapKey,
		`{"seeded_at":"`+time.Now().UTC().Format(time.RFC3339)+`"}`,
	); err != nil {
		return errors.Join(ErrSeedingFailed, err)
	}
	return nil
}

type seedPage struct {
	slug  string
	title string
	body  string
}

func defaultPages() []seedPage {
	return []seedPage{
		{slug: "home", title: "Home", body: `{"blocks":[{"type":"hero","heading":"Welcome"}]}`},
		{slug: "about", title: "About Us", body: `{"blocks":[{"type":"text","content":""}]}`},
	}
}

const (
	defaultMenuItems  = `[{"label":"Home","path":"/"},{"label":"About","path":"/about"}]`
	defaultSlides     = `[{"title":"Welcome","image":"","order":1}]`
	defaultNavigation = `{"show_logo":true,"items":["home","about"]}`
	defaultFooter     = `{"copyright":true,"columns":[]}`
)
