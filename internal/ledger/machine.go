package ledger

import (
	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
)

// Action is a named status machine entry point.
type Action string

const (
	ActionSettle     Action = "settle"
	ActionCancel     Action = "cancel"
	ActionDelete     Action = "delete"
	ActionReactivate Action = "reactivate"
	ActionUndo       Action = "undo"
)

// Guarded reports whether the action needs the confirmation secret.
func (a Action) Guarded() bool {
	return a == ActionDelete || a == ActionReactivate || a == ActionUndo
}

// Next returns the status e moves to under action, or an InvalidTransition
// error. Undo always lands on pending: entries keep no earlier history.
func Next(e *Entry, action Action) (Status, error) {
	switch action {
	case ActionSettle:
		if e.Status == StatusPending {
			return SettledStatus(e.Type), nil
		}
	case ActionCancel:
		if e.Status == StatusPending {
			return StatusCanceled, nil
		}
	case ActionDelete:
		return StatusDeleted, nil
	case ActionReactivate:
		if e.Status == StatusDeleted {
			return StatusPending, nil
		}
	case ActionUndo:
		if e.Status != StatusPending {
			return StatusPending, nil
		}
	}

	return "", apperr.InvalidTransition("ledger entry", e.ID, string(e.Status), string(action))
}
