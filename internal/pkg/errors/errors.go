package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrVersionConflict signals that a metadata overwrite lost the
	// version-token check against the stored record.
	ErrVersionConflict = errors.New("version conflict")
)
