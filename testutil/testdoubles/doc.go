// Package testdoubles provides spies and stubs for the collaborator and observability interfaces
// of the catalog package: loggers, metrics and tracing collectors, notifiers, and identities.
//
// All spies are safe for concurrent use; the listing controller tests call them from several goroutines.
package testdoubles
