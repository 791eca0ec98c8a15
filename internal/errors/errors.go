package errors

import (
	"errors"
	"fmt"
)

// Error kinds returned by the core. Callers match them with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrConflict         = errors.New("conflict")
)

func NotFound(format string, args ...any) error {
	return wrap(ErrNotFound, format, args...)
}

func Forbidden(format string, args ...any) error {
	return wrap(ErrForbidden, format, args...)
}

func InvalidOperation(format string, args ...any) error {
	return wrap(ErrInvalidOperation, format, args...)
}

func Conflict(format string, args ...any) error {
	return wrap(ErrConflict, format, args...)
}

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
