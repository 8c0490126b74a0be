package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collections making up the baseline tenant schema on the document provider.
const (
	SettingsCollection = "tenant_settings"
	PagesCollection    = "pages"
	MenusCollection    = "menus"
	SlidersCollection  = "sliders"
)

// SchemaEnsurer is the document-provider counterpart of the SQL migrator.
// MongoDB has no migration history mechanism, so the one-shot ensure path is
// the only path: collections and their unique indexes are created if absent,
// making repeated runs no-ops.
type SchemaEnsurer struct {
	client *mongo.Client
}

// NewSchemaEnsurer creates a SchemaEnsurer over an admin client.
func NewSchemaEnsurer(client *mongo.Client) *SchemaEnsurer {
	return &SchemaEnsurer{client: client}
}

// DatabaseFromConnString extracts the database name from a mongodb:// URI,
// the same way the driver selects the default database.
func DatabaseFromConnString(connString string) (string, error) {
	u, err := url.Parse(connString)
	if err != nil {
		return "", errors.Join(ErrMissingDatabaseName, err)
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" {
		return "", fmt.Errorf("%w: %q", ErrMissingDatabaseName, connString)
	}
	return name, nil
}

// Run ensures the baseline collections and indexes exist in the tenant
// database the connection string points at. The connection-string signature
// matches the SQL migrator so either can run the migration slot of the
// onboarding pipeline.
func (e *SchemaEnsurer) Run(ctx context.Context, connString string) error {
	name, err := DatabaseFromConnString(connString)
	if err != nil {
		return errors.Join(ErrFailedToEnsureSchema, err)
	}
	db := e.client.Database(name)

	indexes := map[string]mongo.IndexModel{
		SettingsCollection: {
			Keys:    bson.D{{Key: "namespace", Value: 1}, {Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		PagesCollection: {
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		MenusCollection: {
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		SlidersCollection: {
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	for coll, model := range indexes {
		// CreateOne is idempotent for identical index definitions.
		if _, err := db.Collection(coll).Indexes().CreateOne(ctx, model); err != nil {
			return errors.Join(ErrFailedToEnsureSchema, err)
		}
	}
	return nil
}
