package pg

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ContextFactory memoizes parsed pool configurations per connection string
// and manufactures database handles from them. Parsing and validating a DSN
// is not free; once a tenant's configuration is built it is immutable and
// shared by every handle created for that connection string.
//
// This is a cache of configuration, not a connection pool: pooling is the
// driver's job, bounded by the pool parameters baked into the DSN.
type ContextFactory struct {
	mu      sync.RWMutex
	configs map[string]*pgxpool.Config
}

// NewContextFactory creates an empty factory. One factory instance is shared
// by all concurrent requests.
func NewContextFactory() *ContextFactory {
	return &ContextFactory{configs: make(map[string]*pgxpool.Config)}
}

// Config returns the memoized pool configuration for the connection string,
// parsing it on first use. Two goroutines may both parse the same string;
// only one result is ever registered, the loser's parse is discarded.
func (f *ContextFactory) Config(connString string) (*pgxpool.Config, error) {
	f.mu.RLock()
	cfg, ok := f.configs[connString]
	f.mu.RUnlock()
	if ok {
		return cfg, nil
	}

	parsed, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.configs[connString]; ok {
		return existing, nil
	}
	f.configs[connString] = parsed
	return parsed, nil
}

// Create returns a fresh database handle bound to the memoized configuration
// for the connection string.
func (f *ContextFactory) Create(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	cfg, err := f.Config(connString)
	if err != nil {
		return nil, err
	}
	// Each pool gets its own copy so the registered config stays immutable.
	return pgxpool.NewWithConfig(ctx, cfg.Copy())
}

// Len reports the number of memoized configurations. Intended for metrics
// and tests.
func (f *ContextFactory) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.configs)
}
