// Package adapters provide database adapter implementations for the PostgreSQL catalog store.
//
// pgxpool.Pool, sql.DB, and sqlx.DB are all supported through the common DBAdapter interface,
// so the store builds its SQL once and runs it on whichever connection type it was created with.
package adapters
