// Package client implements the Catalog Client: it issues paginated, filtered list queries and
// single-record CRUD and lifecycle action calls against the remote catalog service.
//
// The Client owns no state. It encodes requests, sends them through a Transport,
// and decodes responses into catalog types. Status values are validated at this boundary:
// unknown statuses never reach the Lifecycle Policy.
//
// Every failure is mapped onto the catalog error taxonomy and surfaced immediately.
// There are no retries at this layer: lifecycle actions are not safely idempotent,
// e.g. calling reserve twice must not silently succeed twice.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called an 'adapter' on the driven side.
package client
