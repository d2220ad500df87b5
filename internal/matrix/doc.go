// Package matrix holds the decision matrix: the persisted table of
// operator intent mapping target × feature to enabled.
//
// The matrix is an explicit two-level keyed map with default-false
// semantics. Absent cells read as false; there is no null state. Cells
// are kept even for targets that are not currently discovered or not
// currently eligible, so intent survives temporary unavailability and
// auto-activates when eligibility returns.
//
// Store wraps the matrix with the single mutex that covers both the
// mutation and its persistence call, and rolls back on persistence
// failure. The persistence ordering matters: a confirmed change is on
// disk before any resource is created or removed, which is what lets a
// crash mid-apply self-heal on the next startup pass.
package matrix
