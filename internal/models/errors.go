package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("event not found")
	ErrForbidden        = errors.New("not authorized")
	ErrAlreadyMember    = errors.New("already registered for this event")
	ErrCapacityExceeded = errors.New("event is full")
	ErrValidation       = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrConflict         = errors.New("event was modified concurrently, try again")
	ErrUploadFailed     = errors.New("upload failed")

	// ErrVersionConflict is returned by a repository when a compare-and-swap
	// write finds a different version than the one it was given.
	ErrVersionConflict = errors.New("version conflict")
)

func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
