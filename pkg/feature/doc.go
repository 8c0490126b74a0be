// Package feature evaluates per-tenant feature flags.
//
// Every tenant carries a feature-settings JSON document written during
// provisioning and cached in the shared feature cache. This package decodes
// that document and answers on/off checks and settings lookups without a
// master-store round trip on the hot path.
//
// Flag values come in two shapes:
//
//	{"blog": true}                                  // plain toggle
//	{"shop": {"enabled": true, "plan": "pro"}}      // toggle with settings
//
// Usage:
//
//	eval := feature.NewEvaluator(reg.FeatureCache(), reg, registry.DefaultCacheTTL)
//	on, err := eval.IsEnabled(ctx, tenantID, "shop")
//
// The evaluator is read-only. Feature documents are written by the
// provisioning pipeline and the registry; both populate the same cache
// instance the evaluator reads from.
package feature
