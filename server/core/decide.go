package core

import (
	"errors"
	"time"

	"github.com/AntonStoeckl/booklending/catalog"
)

// state represents the current lending state projected from the action log.
type state struct {
	bookExists      bool
	status          catalog.Status
	openReservation *ActionEntry // latest reservation not canceled or lent out yet
	openLoan        *ActionEntry // latest lent out entry not received yet
	openBorrowing   *ActionEntry // latest receive entry not returned yet
}

// DecideAction implements the business rules of the lending lifecycle.
// This is a pure function with no side effects: it takes the book history and a command
// and returns the action log entry to append together with the book's new status.
//
// Business Rules:
//
//	GIVEN: An AVAILABLE book and a borrower
//	WHEN: reserve is requested
//	THEN: RESERVE_BOOK is appended (due in 24 hours), the book becomes RESERVED
//	IDEMPOTENCY: If the book is already reserved by this borrower, nothing is appended
//
//	GIVEN: A RESERVED book with an open reservation of the acting borrower
//	WHEN: cancel is requested
//	THEN: CANCEL_BOOK_RESERVATION is appended, the book becomes AVAILABLE
//
//	GIVEN: A RESERVED book and an admin
//	WHEN: lend_out is requested
//	THEN: LENT_OUT_BOOK is appended for the reserving borrower (due in 4 weeks), the book becomes LENT_OUT
//
//	GIVEN: A LENT_OUT book lent to the acting borrower
//	WHEN: receive is requested
//	THEN: RECEIVE_BOOK is appended with the loan's due date, the book becomes BORROWED
//
//	GIVEN: A BORROWED book received by the acting borrower
//	WHEN: return is requested by the borrower
//	THEN: RETURN_BOOK is appended, the book becomes RETURNED
//
//	GIVEN: A RETURNED book and an admin
//	WHEN: return is requested by the admin
//	THEN: RETURN_BOOK is appended, the book becomes AVAILABLE
//
//	ERROR: ErrBookNotFound if the book does not exist
//	ERROR: ErrRoleNotPermitted if the actor's role may not perform the action
//	ERROR: a not-found class error if the book is not in the state the action requires
func DecideAction(history BookHistory, command ActionCommand) DecisionResult {
	s := project(history)

	if !s.bookExists {
		return ErrorDecision(ErrBookNotFound)
	}

	switch command.Action {
	case catalog.ActionReserve:
		return decideReserve(s, command)
	case catalog.ActionCancel:
		return decideCancel(s, command)
	case catalog.ActionLendOut:
		return decideLendOut(s, command)
	case catalog.ActionReceive:
		return decideReceive(s, command)
	case catalog.ActionReturn:
		return decideReturn(s, command)
	default:
		return ErrorDecision(errors.Join(catalog.ErrUnknownAction, errors.New(command.Action.String())))
	}
}

func decideReserve(s state, command ActionCommand) DecisionResult {
	if command.Actor.Role != catalog.RoleBorrower {
		return ErrorDecision(ErrRoleNotPermitted)
	}

	if s.status == catalog.StatusReserved && s.openReservation != nil &&
		s.openReservation.Username == command.Actor.Username {
		return IdempotentDecision()
	}

	if s.status != catalog.StatusAvailable {
		return ErrorDecision(ErrBookNotAvailable)
	}

	due := command.OccurredAt.Add(reservationPeriod)

	return SuccessDecision(
		buildEntry(command, command.Actor, ActionTypeReserve, &due),
		catalog.StatusReserved,
	)
}

func decideCancel(s state, command ActionCommand) DecisionResult {
	if s.status != catalog.StatusReserved || s.openReservation == nil ||
		s.openReservation.Username != command.Actor.Username {
		return ErrorDecision(ErrReservationNotFound)
	}

	return SuccessDecision(
		buildEntry(command, command.Actor, ActionTypeCancelReservation, nil),
		catalog.StatusAvailable,
	)
}

func decideLendOut(s state, command ActionCommand) DecisionResult {
	if command.Actor.Role != catalog.RoleAdmin {
		return ErrorDecision(ErrRoleNotPermitted)
	}

	if s.status != catalog.StatusReserved || s.openReservation == nil {
		return ErrorDecision(ErrReservationNotFound)
	}

	borrower := User{ID: s.openReservation.UserID, Username: s.openReservation.Username}
	due := command.OccurredAt.Add(lendingPeriod)

	return SuccessDecision(
		buildEntry(command, borrower, ActionTypeLentOut, &due),
		catalog.StatusLentOut,
	)
}

func decideReceive(s state, command ActionCommand) DecisionResult {
	if s.status != catalog.StatusLentOut || s.openLoan == nil ||
		s.openLoan.Username != command.Actor.Username {
		return ErrorDecision(ErrBookNotLentOut)
	}

	return SuccessDecision(
		buildEntry(command, command.Actor, ActionTypeReceive, copyTime(s.openLoan.DueDate)),
		catalog.StatusBorrowed,
	)
}

func decideReturn(s state, command ActionCommand) DecisionResult {
	switch command.Actor.Role {
	case catalog.RoleBorrower:
		if s.status != catalog.StatusBorrowed ||
			(s.openBorrowing != nil && s.openBorrowing.Username != command.Actor.Username) {
			return ErrorDecision(ErrBookNotBorrowed)
		}

		return SuccessDecision(
			buildEntry(command, command.Actor, ActionTypeReturn, nil),
			catalog.StatusReturned,
		)

	case catalog.RoleAdmin:
		if s.status != catalog.StatusReturned {
			return ErrorDecision(ErrBookNotReturned)
		}

		return SuccessDecision(
			buildEntry(command, command.Actor, ActionTypeReturn, nil),
			catalog.StatusAvailable,
		)

	default:
		return ErrorDecision(ErrRoleNotPermitted)
	}
}

// project builds the current state by replaying the action log.
// The book's stored status is authoritative; the log only tells who holds the book.
func project(history BookHistory) state {
	s := state{
		bookExists: history.Book.ID != 0,
		status:     history.Book.Status,
	}

	for i := range history.Entries {
		entry := &history.Entries[i]

		switch entry.Type {
		case ActionTypeReserve:
			s.openReservation = entry
		case ActionTypeCancelReservation:
			s.openReservation = nil
		case ActionTypeLentOut:
			s.openReservation = nil
			s.openLoan = entry
		case ActionTypeReceive:
			s.openLoan = nil
			s.openBorrowing = entry
		case ActionTypeReturn:
			s.openBorrowing = nil
		case ActionTypeDeleteBook:
			s.bookExists = false
		}
	}

	return s
}

func buildEntry(command ActionCommand, user User, actionType ActionType, due *time.Time) ActionEntry {
	return ActionEntry{
		BookID:     command.BookID,
		UserID:     user.ID,
		Username:   user.Username,
		Type:       actionType,
		ActionDate: command.OccurredAt,
		DueDate:    due,
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	c := *t

	return &c
}
