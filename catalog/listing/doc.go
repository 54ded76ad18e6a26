// Package listing implements the Listing Controller: an infinite-scroll view over the catalog
// with server-side search, status filters, and sorting.
//
// The controller owns the loaded records and the page cursor. It issues at most one list call
// at a time, appends results in arrival order, and starts over from page 0 whenever the query
// changes. Responses that arrive for a query that is no longer current, or after Close, are dropped.
//
// All methods are safe for concurrent use. LoadMore and the query setters block until their list
// call finished; callers driving a UI typically run them on their own goroutine and render from
// Snapshot or a Subscribe callback.
package listing
