// Package logger builds structured slog loggers with json/text formats and
// context-driven attribute injection. Pair it with tenant.LoggerExtractor to
// stamp every in-request log record with the tenant id.
package logger
