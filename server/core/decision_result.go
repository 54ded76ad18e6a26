package core

import "github.com/AntonStoeckl/booklending/catalog"

// DecisionResult represents the outcome of a business decision in a Decide function.
//
// IMPORTANT: DecisionResult should only be constructed using the provided factory methods:
// IdempotentDecision(), SuccessDecision(entry, status), or ErrorDecision(err).
type DecisionResult struct {
	Outcome   string       // "idempotent", "success", or "error"
	Entry     *ActionEntry // nil unless the outcome is success
	NewStatus catalog.Status
	Err       error
}

const (
	idempotentOutcome = "idempotent"
	successOutcome    = "success"
	errorOutcome      = "error"
)

// IdempotentDecision creates a DecisionResult indicating no state change is needed.
func IdempotentDecision() DecisionResult {
	return DecisionResult{Outcome: idempotentOutcome}
}

// SuccessDecision creates a DecisionResult with an entry to append and the book's new status.
func SuccessDecision(entry ActionEntry, newStatus catalog.Status) DecisionResult {
	return DecisionResult{
		Outcome:   successOutcome,
		Entry:     &entry,
		NewStatus: newStatus,
	}
}

// ErrorDecision creates a DecisionResult indicating a business rule violation.
func ErrorDecision(err error) DecisionResult {
	return DecisionResult{
		Outcome: errorOutcome,
		Err:     err,
	}
}

// HasEntryToAppend returns true if there is an entry to append to the action log.
func (r DecisionResult) HasEntryToAppend() bool {
	return r.Outcome == successOutcome && r.Entry != nil
}

// IsIdempotent returns true if no state change is needed.
func (r DecisionResult) IsIdempotent() bool {
	return r.Outcome == idempotentOutcome
}

// HasError returns the error if there is one, otherwise nil.
func (r DecisionResult) HasError() error {
	if r.Outcome == errorOutcome {
		return r.Err
	}

	return nil
}
