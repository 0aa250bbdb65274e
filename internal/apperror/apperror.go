package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInsufficientData     Kind = "insufficient_data"
	KindOptimizerUnavailable Kind = "optimizer_unavailable"
	KindInvalidTransition    Kind = "invalid_transition"
	KindNotFound             Kind = "not_found"
	KindUnauthorized         Kind = "unauthorized"
	KindForbidden            Kind = "forbidden"
	KindValidation           Kind = "validation"
	KindInternal             Kind = "internal"
)

// Error is the structured failure returned across usecase boundaries.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// InvalidTransition reports a rejected status change with both states attached.
func InvalidTransition(current, attempted string) *Error {
	return New(KindInvalidTransition, fmt.Sprintf("cannot move match from %s to %s", current, attempted)).
		WithDetails(map[string]any{"current": current, "attempted": attempted})
}

// KindOf returns KindInternal for errors that carry no kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
