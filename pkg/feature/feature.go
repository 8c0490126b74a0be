package feature

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sitehub-io/tenantcore/pkg/tenant"
)

// Flags is a tenant's decoded feature configuration. Values are either plain
// booleans ("blog": true) or objects carrying an "enabled" field alongside
// feature-specific settings ("shop": {"enabled": true, "plan": "pro"}).
type Flags map[string]json.RawMessage

// ParseFlags decodes a tenant's raw feature-settings document. A nil or empty
// document decodes to an empty set, every feature disabled.
func ParseFlags(raw json.RawMessage) (Flags, error) {
	if len(raw) == 0 {
		return Flags{}, nil
	}
	var flags Flags
	if err := json.Unmarshal(raw, &flags); err != nil {
		return nil, errors.Join(ErrInvalidFlags, err)
	}
	return flags, nil
}

// Enabled reports whether the named feature is switched on. Unknown features
// and malformed values are off.
func (f Flags) Enabled(name string) bool {
	raw, ok := f[name]
	if !ok {
		return false
	}

	var plain bool
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}

	var obj struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Enabled
	}
	return false
}

// Settings decodes the named feature's configuration object into dst.
// Plain-boolean features have no settings and return ErrFlagNotConfigurable.
func (f Flags) Settings(name string, dst any) error {
	raw, ok := f[name]
	if !ok {
		return ErrFlagNotFound
	}

	var plain bool
	if json.Unmarshal(raw, &plain) == nil {
		return ErrFlagNotConfigurable
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.Join(ErrInvalidFlags, err)
	}
	return nil
}

// Source loads a tenant's persisted feature document on cache miss. Satisfied
// by the registry.
type Source interface {
	GetByID(ctx context.Context, id uuid.UUID) (*tenant.Record, error)
}

// Evaluator answers feature checks for any tenant, serving from the shared
// feature cache and falling back to the source on miss. Evaluation is
// read-only; provisioning owns writes to the feature document.
type Evaluator struct {
	cache  tenant.FeatureCache
	source Source
	ttl    time.Duration
}

// NewEvaluator creates an evaluator over the shared feature cache. Pass the
// same cache instance the registry populates so provisioning-time warm-ups
// are visible here.
func NewEvaluator(cache tenant.FeatureCache, source Source, ttl time.Duration) *Evaluator {
	return &Evaluator{cache: cache, source: source, ttl: ttl}
}

// Flags returns the tenant's decoded feature set.
func (e *Evaluator) Flags(ctx context.Context, tenantID uuid.UUID) (Flags, error) {
	if raw, ok := e.cache.Get(ctx, tenantID); ok {
		return ParseFlags(raw)
	}

	rec, err := e.source.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(rec.Features) > 0 {
		e.cache.Set(ctx, tenantID, rec.Features, e.ttl)
	}
	return ParseFlags(rec.Features)
}

// IsEnabled reports whether the feature is on for the tenant.
func (e *Evaluator) IsEnabled(ctx context.Context, tenantID uuid.UUID, name string) (bool, error) {
	flags, err := e.Flags(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return flags.Enabled(name), nil
}
