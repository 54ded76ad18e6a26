// Package postgreswrapper runs store tests against a real PostgreSQL database
// with any of the supported adapters (pgxpool, sql.DB, sqlx).
//
// The adapter is chosen with ADAPTER_TYPE; tests are skipped when the test database
// is not reachable.
package postgreswrapper
