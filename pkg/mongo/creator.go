package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DatabaseCreator manages tenant databases on the document provider. MongoDB
// materializes databases lazily on first write, so creation only stamps the
// bootstrap namespace; both operations are idempotent no-op successes when
// repeated.
type DatabaseCreator struct {
	client *mongo.Client
}

// NewDatabaseCreator creates a DatabaseCreator over an admin client.
func NewDatabaseCreator(client *mongo.Client) *DatabaseCreator {
	return &DatabaseCreator{client: client}
}

// CreateIfNotExists materializes the tenant database. MongoDB has no
// explicit CREATE DATABASE; touching the settings collection with an upsert
// of the namespace marker makes the database visible and is safe to repeat.
func (c *DatabaseCreator) CreateIfNotExists(ctx context.Context, name string) error {
	coll := c.client.Database(name).Collection(SettingsCollection)
	_, err := coll.UpdateOne(ctx,
		bson.D{{Key: "namespace", Value: "system"}, {Key: "key", Value: "namespace"}},
		bson.D{{Key: "$setOnInsert", Value: bson.D{{Key: "value", Value: bson.D{}}}}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return errors.Join(ErrFailedToCreateDatabase, err)
	}
	return nil
}

// DeleteIfExists drops the tenant database. Dropping an absent database is a
// no-op success in MongoDB, which is exactly what the compensation path needs.
func (c *DatabaseCreator) DeleteIfExists(ctx context.Context, name string) error {
	if err := c.client.Database(name).Drop(ctx); err != nil {
		return errors.Join(ErrFailedToDropDatabase, err)
	}
	return nil
}
