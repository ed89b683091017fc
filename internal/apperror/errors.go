package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindConflict          Kind = "conflict"
	KindNotFound          Kind = "not_found"
	KindValidation        Kind = "validation"
	KindBackendFault      Kind = "backend_fault"
	KindCollaboratorFault Kind = "collaborator_fault"
)

// Error carries a Kind so transports can map failures without string matching.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func Conflict(format string, args ...interface{}) *Error {
	return newError(KindConflict, nil, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newError(KindNotFound, nil, format, args...)
}

func Validation(format string, args ...interface{}) *Error {
	return newError(KindValidation, nil, format, args...)
}

func BackendFault(err error, format string, args ...interface{}) *Error {
	return newError(KindBackendFault, err, format, args...)
}

func CollaboratorFault(err error, format string, args ...interface{}) *Error {
	return newError(KindCollaboratorFault, err, format, args...)
}

// KindOf returns the kind of the first *Error in the chain, or "" when there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
