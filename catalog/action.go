package catalog

import (
	"errors"
	"strings"
)

// Action is a lifecycle operation a user can trigger on a Record.
type Action string

// Lifecycle actions.
const (
	ActionReserve Action = "reserve"
	ActionCancel  Action = "cancel"
	ActionLendOut Action = "lend_out"
	ActionReceive Action = "receive"
	ActionReturn  Action = "return"
	ActionRemove  Action = "remove"
)

var actionEndpoints = map[Action]string{
	ActionReserve: "reserve_book",
	ActionCancel:  "cancel_reservation",
	ActionLendOut: "lent_out",
	ActionReceive: "mark_received",
	ActionReturn:  "mark_returned",
}

// AllActions returns every lifecycle action.
func AllActions() []Action {
	return []Action{ActionReserve, ActionCancel, ActionLendOut, ActionReceive, ActionReturn, ActionRemove}
}

// ParseAction parses an action name. Hyphens are accepted in place of underscores ("lend-out").
func ParseAction(raw string) (Action, error) {
	normalized := Action(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))

	for _, a := range AllActions() {
		if a == normalized {
			return a, nil
		}
	}

	return "", errors.Join(ErrUnknownAction, errors.New(raw))
}

// ActionFromEndpoint maps an actions endpoint name (e.g. "mark_received") back to its Action.
func ActionFromEndpoint(endpoint string) (Action, bool) {
	for a, e := range actionEndpoints {
		if e == endpoint {
			return a, true
		}
	}

	return "", false
}

// Endpoint returns the actions endpoint name the catalog service exposes for this action.
// Remove has no actions endpoint; it deletes the record and reports false.
func (a Action) Endpoint() (string, bool) {
	endpoint, ok := actionEndpoints[a]
	return endpoint, ok
}

// IsRemoval reports whether the action deletes the record instead of transitioning it.
func (a Action) IsRemoval() bool {
	return a == ActionRemove
}

func (a Action) String() string {
	return string(a)
}
