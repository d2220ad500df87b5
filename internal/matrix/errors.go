package matrix

import "errors"

// Domain errors for the matrix package.
var (
	// ErrNoSnapshot is returned by Persister.Load when no snapshot has
	// ever been saved. Callers treat it as an empty matrix, not a failure.
	ErrNoSnapshot = errors.New("matrix: no snapshot")

	// ErrMalformedSnapshot is returned by Restore when the blob is not
	// valid JSON at the top level. Per-entry corruption is skipped with
	// warnings instead.
	ErrMalformedSnapshot = errors.New("matrix: malformed snapshot")

	// ErrPersistFailed wraps persistence errors during a confirmed
	// mutation. The in-memory mutation has been rolled back when this
	// error is returned.
	ErrPersistFailed = errors.New("matrix: persist failed")
)
