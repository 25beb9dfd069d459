package service

import (
	"errors"
	"fmt"

	"fleetflow/internal/repository"
)

// Failure kinds. Every error returned by the services wraps exactly one of
// these, so callers match with errors.Is(err, service.ErrConflict).
var (
	// ErrNotFound is returned when a referenced trip, vehicle, driver or log does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a resource is unavailable or a concurrent claim was lost.
	ErrConflict = errors.New("conflict")

	// ErrInvalidTransition is returned when a trip operation is not allowed from its current status.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInvalidState is returned when an entity's state forbids the operation (e.g. deleting a dispatched trip).
	ErrInvalidState = errors.New("invalid state")
)

// Error is a failure of a given kind with a message that names the
// offending value or current state.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}

func invalid(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

func conflict(format string, args ...any) error {
	return newError(ErrConflict, format, args...)
}

func invalidState(format string, args ...any) error {
	return newError(ErrInvalidState, format, args...)
}

// translate converts repository errors into service failures. Unknown
// errors pass through unchanged and surface as internal errors.
func translate(err error, entity, id string) error {
	var svcErr *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &svcErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return notFound("%s %s not found", entity, id)
	case errors.Is(err, repository.ErrStaleWrite):
		return conflict("%s %s was modified concurrently", entity, id)
	case errors.Is(err, repository.ErrDuplicate):
		return conflict("%s already exists", entity)
	case errors.Is(err, repository.ErrInUse):
		return invalidState("%s %s is still referenced by trips", entity, id)
	}
	return err
}
