// Package registry implements the tenant registry: the cache-backed source
// of truth for tenant records in the master store.
//
// Reads follow the cache-aside pattern. A miss queries the master store and
// populates the metadata cache under every key the record routes by (domain,
// identifier, id) plus the feature cache under the tenant id. One population
// function serves both the read-miss and the write paths, so the "feature
// cache is warmed whenever the metadata cache is" invariant cannot be
// skipped in one call site.
//
// Writes invalidate all cache entries for the old record before repopulating
// with the new value. That ordering is load-bearing: a reader racing the
// write must never observe the new value followed by the stale one.
// DeactivateAndDelete invalidates without repopulating; a deleted tenant is
// never served from cache again, although its row survives for forensic
// access.
//
// Registry errors on the hot routing path are not retried. A master-store
// outage fails the request immediately rather than stacking latency;
// retrying is the provisioning coordinator's business, not the resolver's.
package registry
