// Package catalog contains the domain model of the book-lending catalog client:
// Records and their lending Status, the FilterSet and ListQuery used for paginated retrieval,
// the lifecycle Actions users can trigger, and the Lifecycle Policy that maps an Action
// applied to a Status onto the resulting Status.
//
// The package is free of I/O. The Lifecycle Policy is advisory only: the remote catalog service
// is the authority on whether an action is legal, because a locally listed status may be stale.
//
// The package also declares the dependency-free collaborator interfaces (Identity, Notifier)
// and the observability interfaces (Logger, ContextualLogger, MetricsCollector, TracingCollector)
// that the client, listing, and actions packages accept via functional options.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'domain' layer.
package catalog
