package capability

import "errors"

// Domain errors for the capability package.
var (
	// ErrDuplicateFeature is returned when declaring a feature ID twice.
	ErrDuplicateFeature = errors.New("capability: duplicate feature")

	// ErrInvalidDescriptor is returned when a descriptor has an empty ID,
	// no templates, or a template with an empty kind or name pattern.
	ErrInvalidDescriptor = errors.New("capability: invalid descriptor")

	// ErrRegistryFrozen is returned when declaring a feature after Freeze.
	ErrRegistryFrozen = errors.New("capability: registry frozen")
)
