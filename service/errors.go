package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks programmer errors such as an unknown claimable kind
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a record that was expected to exist is absent
	ErrNotFound = errors.New("not found")

	// ErrAlreadyMuted is returned when a member already has an active mute in the guild
	ErrAlreadyMuted = errors.New("member is already muted")

	// ErrNoChannelsChanged is returned when a mute could not revoke send permission anywhere
	ErrNoChannelsChanged = errors.New("no channel permissions changed")
)

// StorageError reports a failed persistence call. Callers must assume nothing
// from the failed operation was written.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// storageErr wraps err as a StorageError unless it already is one
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err was caused by the persistence layer
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// invalidArgument tags a validation failure with ErrInvalidArgument
func invalidArgument(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
}
