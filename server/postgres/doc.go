// Package postgres provides the PostgreSQL implementation of the catalog service's book store.
//
// Books, users, and the per-book action log live in three tables (see schema.sql).
// Every lifecycle change updates the book row and appends one action in a single statement
// that is guarded by the id of the latest action the caller has seen, so concurrent
// writers get core.ErrConcurrencyConflict instead of silently overwriting each other.
//
// The store works on pgxpool.Pool, sql.DB, or sqlx.DB via the internal adapters package.
package postgres
