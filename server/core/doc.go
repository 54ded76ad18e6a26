// Package core holds the business rules of the catalog service as pure functions.
//
// Every lifecycle action follows the same flow in the imperative shell: query the book history,
// decide with the functions of this package, append the decided action log entry together with
// the new book status. The decide functions have no side effects and never touch the store.
package core
