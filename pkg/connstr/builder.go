package connstr

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Provider identifies the database server kind a tenant database lives on.
type Provider string

const (
	// ProviderPostgres builds pgx-compatible DSNs with pool bounds encoded
	// as pool_min_conns/pool_max_conns query parameters.
	ProviderPostgres Provider = "postgres"
	// ProviderMongoDB builds mongodb:// URIs with minPoolSize/maxPoolSize
	// query parameters.
	ProviderMongoDB Provider = "mongodb"
)

// DatabasePlaceholder is the token in a connection template that is replaced
// with the tenant database name.
const DatabasePlaceholder = "{database}"

var (
	// ErrEmptyTemplate is returned when the connection template is empty.
	ErrEmptyTemplate = errors.New("connection template is empty")

	// ErrInvalidTemplate is returned when the template is not a parseable
	// URI-form connection string.
	ErrInvalidTemplate = errors.New("invalid connection template")

	// ErrUnknownProvider is returned for an unrecognized provider kind.
	ErrUnknownProvider = errors.New("unknown database provider")

	// ErrMissingPlaceholder is returned when the template does not contain
	// the {database} token.
	ErrMissingPlaceholder = errors.New("connection template is missing {database} placeholder")

	// ErrEmptyDatabaseName is returned when the database name is empty.
	ErrEmptyDatabaseName = errors.New("database name is empty")
)

// PoolBounds carries the driver connection pool limits baked into the built
// connection string. Zero values fall back to the driver-side defaults after
// clamping: Min is clamped to >= 0 and Max to >= 1, with Max never below Min.
type PoolBounds struct {
	Min int
	Max int
}

func (b PoolBounds) clamped() PoolBounds {
	if b.Min < 0 {
		b.Min = 0
	}
	if b.Max < 1 {
		b.Max = 1
	}
	if b.Max < b.Min {
		b.Max = b.Min
	}
	return b
}

// Build produces a provider-correct connection string for the given tenant
// database from a template. The template carries host, credentials and any
// fixed options; Build substitutes the database name and appends the clamped
// pool bounds. It is deterministic and performs no I/O.
func Build(databaseName string, provider Provider, template string, bounds PoolBounds) (string, error) {
	if strings.TrimSpace(template) == "" {
		return "", ErrEmptyTemplate
	}
	if strings.TrimSpace(databaseName) == "" {
		return "", ErrEmptyDatabaseName
	}
	if !strings.Contains(template, DatabasePlaceholder) {
		return "", ErrMissingPlaceholder
	}

	dsn := strings.ReplaceAll(template, DatabasePlaceholder, url.PathEscape(databaseName))
	bounds = bounds.clamped()

	switch provider {
	case ProviderPostgres:
		return appendParams(dsn, map[string]string{
			"pool_min_conns": fmt.Sprintf("%d", bounds.Min),
			"pool_max_conns": fmt.Sprintf("%d", bounds.Max),
		})
	case ProviderMongoDB:
		return appendParams(dsn, map[string]string{
			"minPoolSize": fmt.Sprintf("%d", bounds.Min),
			"maxPoolSize": fmt.Sprintf("%d", bounds.Max),
		})
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}

// appendParams adds query parameters to a URI-form connection string without
// disturbing parameters already present in the template. Template-provided
// values win over generated ones.
func appendParams(dsn string, params map[string]string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", errors.Join(ErrInvalidTemplate, err)
	}

	q := u.Query()
	for key, value := range params {
		if q.Get(key) == "" {
			q.Set(key, value)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
