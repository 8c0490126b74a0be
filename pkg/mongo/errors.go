package mongo

import "errors"

var (
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")
	ErrHealthcheckFailed      = errors.New("mongo healthcheck failed")
	ErrFailedToCreateDatabase = errors.New("failed to create tenant database")
	ErrFailedToDropDatabase   = errors.New("failed to drop tenant database")
	ErrFailedToEnsureSchema   = errors.New("failed to ensure tenant collections")
	ErrMissingDatabaseName    = errors.New("connection string has no database name")
)
