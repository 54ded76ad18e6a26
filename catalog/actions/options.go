package actions

import "github.com/AntonStoeckl/booklending/catalog"

// Option defines a functional option for configuring the Orchestrator.
type Option func(*Orchestrator) error

// WithReloadAfterRemove makes a successful removal reload the listing from page 0
// after the removed record was dropped locally. Off by default.
func WithReloadAfterRemove(reload bool) Option {
	return func(o *Orchestrator) error {
		o.reloadAfterRemove = reload
		return nil
	}
}

// WithReloadAfterCreate controls whether a successful create reloads the listing. On by default.
func WithReloadAfterCreate(reload bool) Option {
	return func(o *Orchestrator) error {
		o.reloadAfterCreate = reload
		return nil
	}
}

// WithMessages replaces the notified texts. Actions missing from messages.Actions keep their defaults.
func WithMessages(messages Messages) Option {
	return func(o *Orchestrator) error {
		o.messages = messages
		return nil
	}
}

// WithLogger sets the logger for the Orchestrator.
func WithLogger(logger catalog.Logger) Option {
	return func(o *Orchestrator) error {
		o.logger = logger
		return nil
	}
}

// WithContextualLogger sets the context-aware logger for the Orchestrator.
func WithContextualLogger(logger catalog.ContextualLogger) Option {
	return func(o *Orchestrator) error {
		o.contextualLogger = logger
		return nil
	}
}
