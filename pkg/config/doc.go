// Package config loads environment-based configuration structs exactly once
// per type, with optional .env file support for local development.
//
// Configuration structs declare their variables through `env` field tags
// (github.com/caarlos0/env); Load parses and caches them so every component
// asking for the same config type observes the same values.
package config
