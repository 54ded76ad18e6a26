package catalog

import (
	"errors"
	"strings"
)

// Status is the enumerated lending state of a Record.
type Status uint8

const (
	// StatusUnknown is the zero value and never valid on the wire.
	StatusUnknown Status = iota
	// StatusAvailable means the book is on the shelf and can be reserved.
	StatusAvailable
	// StatusReserved means a borrower holds a reservation.
	StatusReserved
	// StatusLentOut means an admin handed the book out to the reserving borrower.
	StatusLentOut
	// StatusBorrowed means the borrower confirmed receiving the book.
	StatusBorrowed
	// StatusReturned means the borrower handed the book back and an admin still has to confirm it.
	StatusReturned
)

var statusNames = map[Status]string{
	StatusAvailable: "AVAILABLE",
	StatusReserved:  "RESERVED",
	StatusLentOut:   "LENT_OUT",
	StatusBorrowed:  "BORROWED",
	StatusReturned:  "RETURNED",
}

// AllStatuses returns all valid statuses in display order.
func AllStatuses() []Status {
	return []Status{StatusAvailable, StatusReserved, StatusLentOut, StatusBorrowed, StatusReturned}
}

// ParseStatus parses the wire representation of a Status.
// The match is case-insensitive; unknown values fail with ErrUnknownStatus.
func ParseStatus(raw string) (Status, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))

	for status, name := range statusNames {
		if name == normalized {
			return status, nil
		}
	}

	return StatusUnknown, errors.Join(ErrUnknownStatus, errors.New(raw))
}

// String returns the wire representation, e.g. "LENT_OUT".
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}

	return "UNKNOWN"
}

// IsValid reports whether s is one of the enumerated statuses.
func (s Status) IsValid() bool {
	_, ok := statusNames[s]
	return ok
}

// IsAtRest reports whether the book is not tied to a borrower (AVAILABLE or RETURNED).
func (s Status) IsAtRest() bool {
	return s == StatusAvailable || s == StatusReturned
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, ErrUnknownStatus
	}

	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}
