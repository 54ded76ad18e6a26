package client

import "github.com/AntonStoeckl/booklending/catalog"

// Option defines a functional option for configuring the Client.
type Option func(*Client) error

// WithPageSize sets the page size used when a ListQuery does not specify one.
func WithPageSize(size int) Option {
	return func(c *Client) error {
		if size <= 0 {
			return ErrInvalidPageSize
		}

		c.pageSize = size

		return nil
	}
}

// WithLogger sets the logger for the Client.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: every request with method, path and status code
// Warn level: records dropped because of an unknown status
// Error level: failed calls with their mapped error.
func WithLogger(logger catalog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithContextualLogger sets the context-aware logger for the Client.
// When set, it is preferred over the logger configured with WithLogger.
func WithContextualLogger(logger catalog.ContextualLogger) Option {
	return func(c *Client) error {
		c.contextualLogger = logger
		return nil
	}
}
