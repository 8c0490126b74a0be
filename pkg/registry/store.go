package registry

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitehub-io/tenantcore/pkg/pg"
	"github.com/sitehub-io/tenantcore/pkg/tenant"
)

// Store is the master-store persistence boundary for tenant records.
// Lookups exclude logically deleted rows; GetByID does not, so deleted
// tenants stay reachable for administrative and forensic access.
type Store interface {
	GetByDomain(ctx context.Context, domain string) (*tenant.Record, error)
	GetByIdentifier(ctx context.Context, identifier string) (*tenant.Record, error)
	GetByID(ctx context.Context, id string) (*tenant.Record, error)
	ListActive(ctx context.Context) ([]*tenant.Record, error)
	Insert(ctx context.Context, rec *tenant.Record) error
	Update(ctx context.Context, rec *tenant.Record) error
}

const recordColumns = `id, identifier, domain, name, database_name,
	connection_string, status, features, isolation, created_at, updated_at`

// pgStore persists tenant records in the master Postgres database.
type pgStore struct {
	db *pgxpool.Pool
}

// NewStore creates a Postgres-backed tenant store over the master pool.
func NewStore(db *pgxpool.Pool) Store {
	return &pgStore{db: db}
}

func scanRecord(row pgx.Row) (*tenant.Record, error) {
	var rec tenant.Record
	err := row.Scan(
		&rec.ID, &rec.Identifier, &rec.Domain, &rec.Name, &rec.DatabaseName,
		&rec.ConnectionString, &rec.Status, &rec.Features, &rec.Isolation,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *pgStore) GetByDomain(ctx context.Context, domain string) (*tenant.Record, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM tenants WHERE domain = $1 AND status <> $2`,
		domain, tenant.StatusDeleted)
	return scanRecord(row)
}

func (s *pgStore) GetByIdentifier(ctx context.Context, identifier string) (*tenant.Record, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM tenants WHERE identifier = $1 AND status <> $2`,
		identifier, tenant.StatusDeleted)
	return scanRecord(row)
}

func (s *pgStore) GetByID(ctx context.Context, id string) (*tenant.Record, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM tenants WHERE id = $1`, id)
	return scanRecord(row)
}

func (s *pgStore) ListActive(ctx context.Context) ([]*tenant.Record, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+recordColumns+` FROM tenants WHERE status = $1 ORDER BY identifier`,
		tenant.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*tenant.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *pgStore) Insert(ctx context.Context, rec *tenant.Record) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO tenants (`+recordColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.Identifier, rec.Domain, rec.Name, rec.DatabaseName,
		rec.ConnectionString, rec.Status, rec.Features, rec.Isolation,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return errors.Join(tenant.ErrTenantConflict, err)
		}
		return err
	}
	return nil
}

func (s *pgStore) Update(ctx context.Context, rec *tenant.Record) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE tenants SET
			identifier = $2, domain = $3, name = $4, database_name = $5,
			connection_string = $6, status = $7, features = $8, isolation = $9,
			updated_at = $10
		 WHERE id = $1`,
		rec.ID, rec.Identifier, rec.Domain, rec.Name, rec.DatabaseName,
		rec.ConnectionString, rec.Status, rec.Features, rec.Isolation,
		rec.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return errors.Join(tenant.ErrTenantConflict, err)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}
