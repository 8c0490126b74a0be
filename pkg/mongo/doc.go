// Package mongo provides MongoDB connection management and the
// document-provider side of tenant provisioning.
//
// This package emphasizes operational reliability through environment-based
// configuration, retry logic for transient connection failures, and
// connection pool defaults that work without manual tuning.
//
// Beyond the client, it carries the document-provider implementations of the
// provisioning steps: DatabaseCreator (idempotent create/drop of a tenant
// database) and SchemaEnsurer (collections plus unique indexes, the
// "no migration history" schema path).
package mongo
