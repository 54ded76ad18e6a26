package catalog

// Identity exposes who is signed in. The core uses it only to attribute create, remove,
// and lifecycle action calls; it never inspects or validates the token itself.
type Identity interface {
	CurrentUsername() string
	// CurrentToken returns the bearer token and true, or false when no unexpired token is available.
	CurrentToken() (string, bool)
}

// Notifier reports an outcome to the user. It is fire-and-forget.
type Notifier interface {
	Notify(message string, isError bool)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(message string, isError bool)

// Notify calls f(message, isError).
func (f NotifierFunc) Notify(message string, isError bool) {
	f(message, isError)
}
