package listing

import (
	"errors"
	"sync"
)

// DefaultScrollThreshold is the viewed ratio at which the next page is requested.
const DefaultScrollThreshold = 0.75

// ErrInvalidThreshold is returned for a scroll threshold outside (0, 1].
var ErrInvalidThreshold = errors.New("scroll threshold must be in (0, 1]")

// ScrollPosition describes the visible window of a scrollable list.
type ScrollPosition struct {
	Top          float64
	ClientHeight float64
	ScrollHeight float64
}

// Ratio returns how much of the content has been viewed, from 0 to 1.
// Content that fits into the viewport counts as fully viewed.
func (p ScrollPosition) Ratio() float64 {
	if p.ScrollHeight <= 0 || p.ClientHeight >= p.ScrollHeight {
		return 1
	}

	ratio := (p.Top + p.ClientHeight) / p.ScrollHeight

	switch {
	case ratio < 0:
		return 0
	case ratio > 1:
		return 1
	default:
		return ratio
	}
}

// ScrollTrigger turns scroll positions into load requests. It fires once per upward crossing
// of the threshold and re-arms when the ratio drops below it again or on Reset.
type ScrollTrigger struct {
	mu        sync.Mutex
	threshold float64
	armed     bool
}

// NewScrollTrigger creates an armed ScrollTrigger.
func NewScrollTrigger(threshold float64) (*ScrollTrigger, error) {
	if threshold <= 0 || threshold > 1 {
		return nil, ErrInvalidThreshold
	}

	return &ScrollTrigger{threshold: threshold, armed: true}, nil
}

// Observe reports whether pos should trigger a load.
func (t *ScrollTrigger) Observe(pos ScrollPosition) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if pos.Ratio() < t.threshold {
		t.armed = true
		return false
	}

	if !t.armed {
		return false
	}

	t.armed = false

	return true
}

// Reset re-arms the trigger.
func (t *ScrollTrigger) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.armed = true
}

// Threshold returns the configured threshold.
func (t *ScrollTrigger) Threshold() float64 {
	return t.threshold
}
