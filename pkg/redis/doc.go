// Package redis provides Redis connection management with retry logic and
// environment-driven configuration. The platform uses it to back the shared
// tenant caches in multi-node deployments.
package redis
