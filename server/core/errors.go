package core

import "errors"

var (
	// ErrBookNotFound is returned when the book does not exist.
	ErrBookNotFound = errors.New("book not found")

	// ErrReservationNotFound is returned when the action needs an open reservation that does not exist.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrBookNotLentOut is returned when a book is not lent out to the acting user.
	ErrBookNotLentOut = errors.New("book is not lent out")

	// ErrBookNotAvailable is returned when a book cannot be reserved because it is not available.
	ErrBookNotAvailable = errors.New("book is not available for reservation")

	// ErrBookNotBorrowed is returned when a borrower returns a book they do not hold.
	ErrBookNotBorrowed = errors.New("book is not borrowed by user")

	// ErrBookNotReturned is returned when an admin confirms a return that did not happen.
	ErrBookNotReturned = errors.New("book is not returned by user")

	// ErrRoleNotPermitted is returned when the acting user's role may not perform the action.
	ErrRoleNotPermitted = errors.New("role is not permitted to perform this action")

	// ErrISBNAlreadyExists is returned when a book with the same ISBN is already in the catalog.
	ErrISBNAlreadyExists = errors.New("book with this isbn already exists")

	// ErrUserNotFound is returned when the acting user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists is returned when a username is already taken.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrConcurrencyConflict is returned by stores when the book history changed between query and append.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// IsNotFound reports whether err means the book, or the state an action requires, does not exist.
func IsNotFound(err error) bool {
	for _, target := range []error{
		ErrBookNotFound,
		ErrReservationNotFound,
		ErrBookNotLentOut,
		ErrBookNotAvailable,
		ErrBookNotBorrowed,
		ErrBookNotReturned,
		ErrUserNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
