// Package httpapi exposes the catalog service over HTTP.
//
// Routes mirror what the catalog client speaks: /api/books for CRUD and listing,
// /api/actions/{endpoint} for lifecycle actions, /api/auth/login for tokens, and /metrics for Prometheus.
// Everything below /api except login requires an HS256 bearer token issued by this service.
//
// Lifecycle actions follow the Query-Decide-Append pattern: the book history is loaded,
// a pure decide function from server/core rules on it, and the store appends the outcome
// guarded by the history's latest action id. Concurrency conflicts are retried with backoff.
package httpapi
