package listing

import (
	"errors"
	"fmt"

	"github.com/AntonStoeckl/booklending/catalog"
)

// DefaultLoadFailedMessage is notified when a page cannot be loaded.
const DefaultLoadFailedMessage = "Failed to load books. Please try again later."

// ErrInvalidPageSize is returned when WithPageSize is given a non-positive size.
var ErrInvalidPageSize = errors.New("page size must be positive")

// Option defines a functional option for configuring the Controller.
type Option func(*Controller) error

// WithPageSize sets the number of records requested per page.
func WithPageSize(size int) Option {
	return func(c *Controller) error {
		if size <= 0 {
			return ErrInvalidPageSize
		}

		c.query.PageSize = size

		return nil
	}
}

// WithSort sets the initial sort field and order.
func WithSort(field catalog.SortField, order catalog.SortOrder) Option {
	return func(c *Controller) error {
		if !field.IsValid() || !order.IsValid() {
			return errors.Join(catalog.ErrValidation, fmt.Errorf("unsupported sort %q %q", field, order))
		}

		c.query.SortBy = field
		c.query.Order = order

		return nil
	}
}

// WithSearch sets the initial search text.
func WithSearch(search string) Option {
	return func(c *Controller) error {
		c.query.Search = search
		return nil
	}
}

// WithFilter sets the initial status filter.
func WithFilter(statuses catalog.FilterSet) Option {
	return func(c *Controller) error {
		c.query.Statuses = statuses.Clone()
		return nil
	}
}

// WithScrollThreshold sets the viewed ratio at which OnScroll loads the next page.
func WithScrollThreshold(threshold float64) Option {
	return func(c *Controller) error {
		trigger, err := NewScrollTrigger(threshold)
		if err != nil {
			return err
		}

		c.scroll = trigger

		return nil
	}
}

// WithLoadFailedMessage replaces the message notified when a page cannot be loaded.
func WithLoadFailedMessage(message string) Option {
	return func(c *Controller) error {
		c.loadFailedMessage = message
		return nil
	}
}

// WithLogger sets the logger for the Controller.
// Debug level: issued, completed, and discarded loads. Warn level: failed loads.
func WithLogger(logger catalog.Logger) Option {
	return func(c *Controller) error {
		c.logger = logger
		return nil
	}
}

// WithContextualLogger sets the context-aware logger for the Controller.
// When set, it is preferred over the logger configured with WithLogger.
func WithContextualLogger(logger catalog.ContextualLogger) Option {
	return func(c *Controller) error {
		c.contextualLogger = logger
		return nil
	}
}
