// Package config provides configuration for the bookshelf CLI and the catalog service.
//
// Values come from the environment, optionally seeded from .env files. The package also
// contains factory functions for PostgreSQL connections using different drivers
// (pgxpool.Pool, sql.DB, sqlx.DB) and for the OpenTelemetry providers.
//
// This package is part of the shell (infrastructure) layer.
package config
