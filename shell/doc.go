// Package shell provides the shared imperative-shell helpers of the book lending system.
//
// It defines the metric, log, and span vocabulary used by the observability decorator of the
// Catalog Client and by the action handlers of the catalog service, classifies errors for
// metric labels, and implements the optimistic concurrency retry used around Query, Decide, Append.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'infrastructure' layer.
package shell
