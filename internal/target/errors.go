package target

import "errors"

// Domain errors for the target package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, target.ErrTargetNotFound) {
//	    // handle not found case
//	}
var (
	// ErrTargetNotFound is returned when a target ID does not exist in the store.
	ErrTargetNotFound = errors.New("target: not found")

	// ErrInvalidTarget is returned when a target has an empty ID or kind.
	ErrInvalidTarget = errors.New("target: invalid")
)
