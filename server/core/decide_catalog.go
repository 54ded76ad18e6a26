package core

import (
	"time"

	"github.com/AntonStoeckl/booklending/catalog"
)

// DecideCreate decides whether a draft may be added to the catalog.
//
// Business Rules:
//
//	GIVEN: A valid draft and an admin
//	WHEN: the draft is submitted
//	THEN: ADD_BOOK is appended, the book is stored with the draft's status (AVAILABLE if unset)
//	ERROR: ErrRoleNotPermitted if the actor is not an admin
//	ERROR: catalog.ErrValidation if the draft is invalid
//	ERROR: ErrISBNAlreadyExists if a book with the same ISBN exists
func DecideCreate(draft catalog.Draft, isbnTaken bool, actor User, occurredAt time.Time) (catalog.Draft, DecisionResult) {
	if actor.Role != catalog.RoleAdmin {
		return draft, ErrorDecision(ErrRoleNotPermitted)
	}

	normalized := draft.Normalized()

	if err := catalog.ValidateDraft(normalized); err != nil {
		return normalized, ErrorDecision(err)
	}

	if isbnTaken {
		return normalized, ErrorDecision(ErrISBNAlreadyExists)
	}

	return normalized, SuccessDecision(
		ActionEntry{
			UserID:     actor.ID,
			Username:   actor.Username,
			Type:       ActionTypeAddBook,
			ActionDate: occurredAt,
		},
		normalized.Status,
	)
}

// DecideRemove decides whether a book may be deleted from the catalog.
//
// Business Rules:
//
//	GIVEN: An existing book and an admin
//	WHEN: remove is requested
//	THEN: DELETE_BOOK is appended and the book is deleted
//	ERROR: ErrBookNotFound if the book does not exist
//	ERROR: ErrRoleNotPermitted if the actor is not an admin
func DecideRemove(history BookHistory, command ActionCommand) DecisionResult {
	if !project(history).bookExists {
		return ErrorDecision(ErrBookNotFound)
	}

	if command.Actor.Role != catalog.RoleAdmin {
		return ErrorDecision(ErrRoleNotPermitted)
	}

	return SuccessDecision(
		buildEntry(command, command.Actor, ActionTypeDeleteBook, nil),
		history.Book.Status,
	)
}
