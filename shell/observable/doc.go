// Package observable decorates the Catalog Client with metrics, tracing, and logging.
//
// The wrapper adds no behavior of its own: every call is delegated to the wrapped client and
// its outcome is translated into the shell observability vocabulary.
package observable
