// Package apperr defines the error kinds surfaced by the ledger and workflow services.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for callers that need to react to it.
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindValidation        Kind = "VALIDATION_ERROR"
)

// Error carries enough context to render a message for the entity involved.
type Error struct {
	Kind    Kind   `json:"code"`
	Message string `json:"message"`
	Entity  string `json:"entity,omitempty"`
	ID      string `json:"id,omitempty"`
	Field   string `json:"field,omitempty"`
	From    string `json:"from,omitempty"`
	Action  string `json:"action,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is an *Error of the same kind, so the package
// sentinels work with errors.Is regardless of the context fields.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Kind == e.Kind
}

var (
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "resource not found"}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition, Message: "transition not allowed"}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized, Message: "confirmation secret mismatch"}
	ErrValidation        = &Error{Kind: KindValidation, Message: "invalid input"}
)

func NotFound(entity string, id fmt.Stringer) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
		Entity:  entity,
		ID:      id.String(),
	}
}

func InvalidTransition(entity string, id fmt.Stringer, from, action string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("cannot %s %s %s in status %s", action, entity, id, from),
		Entity:  entity,
		ID:      id.String(),
		From:    from,
		Action:  action,
	}
}

// Unauthorized deliberately carries no entity detail.
func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Message: ErrUnauthorized.Message}
}

func Validation(field, format string, args ...any) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf("%s: %s", field, fmt.Sprintf(format, args...)),
		Field:   field,
	}
}

// KindOf returns the Kind of err, or the empty Kind when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}

	return e.Kind
}
