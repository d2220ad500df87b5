// Package engine orchestrates the reconciliation cycle: discover
// targets, build the resource catalog, diff it into a plan, and apply
// the plan downstream.
//
// Two invariants live here. First, ordering: a confirmed operator
// decision is persisted before apply executes, so a crash mid-apply
// leaves intent on disk and the next startup pass re-issues the
// remaining steps. Second, supersession: a new cycle cancels the
// in-flight apply rather than queueing behind it; stale plan steps are
// discarded, and the fresh cycle starts from the latest matrix.
//
// Reconcile always returns a report. Discovery gaps, unknown existence
// and execution failures are all report content, not errors.
package engine
