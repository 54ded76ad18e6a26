package catalog

// Transition represents the outcome of applying an Action to a Record in a given Status,
// assuming the remote call succeeds.
//
// IMPORTANT: Transition should only be constructed via Decide(); the zero value carries no meaning.
type Transition struct {
	Action  Action
	From    Status
	To      Status // StatusUnknown when Removes is true
	Removes bool
	Offered bool // advisory: whether the UI offers this action from From
}

// Decide implements the Lifecycle Policy: given the current status of a record and an action,
// it returns the status that results from a successful remote call.
// This is a pure function; it never says "no" to an action, it only marks it as not Offered.
//
// Lifecycle Rules:
//
//	GIVEN: a record in status From
//	WHEN: reserve succeeds       THEN: RESERVED
//	WHEN: cancel succeeds        THEN: AVAILABLE
//	WHEN: lend_out succeeds      THEN: LENT_OUT
//	WHEN: receive succeeds       THEN: BORROWED
//	WHEN: return succeeds        THEN: AVAILABLE if From is RETURNED (admin confirms), otherwise RETURNED
//	WHEN: remove succeeds        THEN: the record is deleted
//	ADVISORY: Offered is true only for the actions listed by OfferedActions for any role
func Decide(current Status, action Action) Transition {
	t := Transition{
		Action:  action,
		From:    current,
		Offered: isOfferedToAnyRole(current, action),
	}

	switch action {
	case ActionReserve:
		t.To = StatusReserved
	case ActionCancel:
		t.To = StatusAvailable
	case ActionLendOut:
		t.To = StatusLentOut
	case ActionReceive:
		t.To = StatusBorrowed
	case ActionReturn:
		if current == StatusReturned {
			t.To = StatusAvailable
		} else {
			t.To = StatusReturned
		}
	case ActionRemove:
		t.Removes = true
	default:
		t.To = current
		t.Offered = false
	}

	return t
}

// Apply returns the record as it looks after the transition, and false if the transition removes it.
func (t Transition) Apply(r Record) (Record, bool) {
	if t.Removes {
		return Record{}, false
	}

	r.Status = t.To

	return r, true
}

// offerings lists, per status and role, which actions the UI offers.
var offerings = map[Status]map[Role][]Action{
	StatusAvailable: {
		RoleBorrower: {ActionReserve},
		RoleAdmin:    {ActionRemove},
	},
	StatusReserved: {
		RoleBorrower: {ActionCancel},
		RoleAdmin:    {ActionLendOut},
	},
	StatusLentOut: {
		RoleBorrower: {ActionReceive},
	},
	StatusBorrowed: {
		RoleBorrower: {ActionReturn},
	},
	StatusReturned: {
		RoleAdmin: {ActionReturn, ActionRemove},
	},
}

// OfferedActions returns the actions the UI offers a user with the given role for a record in status current.
// The list is advisory only: the catalog service decides whether the action is actually legal.
func OfferedActions(current Status, role Role) []Action {
	offered := offerings[current][role]
	result := make([]Action, len(offered))
	copy(result, offered)

	return result
}

func isOfferedToAnyRole(current Status, action Action) bool {
	for _, actions := range offerings[current] {
		for _, a := range actions {
			if a == action {
				return true
			}
		}
	}

	return false
}
