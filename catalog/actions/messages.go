package actions

import "github.com/AntonStoeckl/booklending/catalog"

// ActionMessages are the notifications of one lifecycle action.
type ActionMessages struct {
	Success  string
	NotFound string
}

// Messages holds every user-facing text the orchestrator notifies.
type Messages struct {
	Actions          map[catalog.Action]ActionMessages
	Transport        string
	Unauthorized     string
	Forbidden        string
	RemoteValidation string
	Conflict         string
	BookNotFound     string
	InvalidForm      string
	Created          string
	CreateFailed     string
	Updated          string
	UpdateFailed     string
}

// DefaultMessages returns the standard English messages.
func DefaultMessages() Messages {
	return Messages{
		Actions: map[catalog.Action]ActionMessages{
			catalog.ActionReserve: {
				Success:  "Book reserved successfully!",
				NotFound: "This book is no longer available for reservation.",
			},
			catalog.ActionCancel: {
				Success:  "Reservation cancelled successfully!",
				NotFound: "Reservation not found.",
			},
			catalog.ActionLendOut: {
				Success:  "Book lent out successfully!",
				NotFound: "No reservation found for this book.",
			},
			catalog.ActionReceive: {
				Success:  "Book marked as received!",
				NotFound: "This book is not lent out.",
			},
			catalog.ActionReturn: {
				Success:  "Book marked as returned!",
				NotFound: "This book is not borrowed.",
			},
			catalog.ActionRemove: {
				Success:  "Book removed successfully!",
				NotFound: "Book not found.",
			},
		},
		Transport:        "Something went wrong. Please try again later.",
		Unauthorized:     "Your session has expired. Please log in again.",
		Forbidden:        "You are not allowed to do this.",
		RemoteValidation: "The catalog rejected the request.",
		Conflict:         "A book with this ISBN already exists.",
		BookNotFound:     "Book not found.",
		InvalidForm:      "Please fill out all fields correctly.",
		Created:          "Book added successfully!",
		CreateFailed:     "Failed to add book. Please try again.",
		Updated:          "Book updated successfully!",
		UpdateFailed:     "Failed to update book. Please try again.",
	}
}

// forFailure picks the message for a failed call. notFound is the operation specific not-found text,
// fallback the text used for transport failures.
func (m Messages) forFailure(kind catalog.ErrorKind, notFound, fallback string) string {
	switch kind {
	case catalog.KindNotFound:
		if notFound != "" {
			return notFound
		}
	case catalog.KindUnauthorized:
		return m.Unauthorized
	case catalog.KindForbidden:
		return m.Forbidden
	case catalog.KindValidation:
		return m.RemoteValidation
	case catalog.KindConflict:
		return m.Conflict
	}

	return fallback
}

func (m Messages) forAction(action catalog.Action) ActionMessages {
	if msgs, ok := m.Actions[action]; ok {
		return msgs
	}

	return DefaultMessages().Actions[action]
}
