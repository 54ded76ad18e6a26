package core

import (
	"time"

	"github.com/AntonStoeckl/booklending/catalog"
)

const (
	reservationPeriod = 24 * time.Hour
	lendingPeriod     = 4 * 7 * 24 * time.Hour
)

// ActionType is the kind of an action log entry, as stored in the actions table.
type ActionType string

// Action log entry types.
const (
	ActionTypeReserve           ActionType = "RESERVE_BOOK"
	ActionTypeCancelReservation ActionType = "CANCEL_BOOK_RESERVATION"
	ActionTypeLentOut           ActionType = "LENT_OUT_BOOK"
	ActionTypeReceive           ActionType = "RECEIVE_BOOK"
	ActionTypeReturn            ActionType = "RETURN_BOOK"
	ActionTypeAddBook           ActionType = "ADD_BOOK"
	ActionTypeDeleteBook        ActionType = "DELETE_BOOK"
)

// User is an account of the catalog service.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         catalog.Role
}

// ActionEntry is one row of the action log.
type ActionEntry struct {
	ID         int64
	BookID     int64
	UserID     int64
	Username   string
	Type       ActionType
	ActionDate time.Time
	DueDate    *time.Time
}

// BookHistory is a book together with its action log in append order.
// MaxActionID is the id of the latest entry, 0 if there is none; appends are guarded by it.
type BookHistory struct {
	Book        catalog.Record
	Entries     []ActionEntry
	MaxActionID int64
}

// ActionCommand asks for a lifecycle action on a book on behalf of Actor.
type ActionCommand struct {
	Action     catalog.Action
	Actor      User
	BookID     int64
	OccurredAt time.Time
}

// BuildActionCommand creates an ActionCommand.
func BuildActionCommand(action catalog.Action, actor User, bookID int64, occurredAt time.Time) ActionCommand {
	return ActionCommand{
		Action:     action,
		Actor:      actor,
		BookID:     bookID,
		OccurredAt: occurredAt,
	}
}
