// Package catalog computes the ephemeral resource catalog for one
// reconciliation pass.
//
// The builder walks the frozen capability registry, filters the
// discovered target population through each feature's eligibility rule,
// expands every matching template into a deterministic resource
// descriptor, and resolves the two facts the planner needs: does the
// resource exist downstream (tri-state, via an existence probe), and
// should it exist (decision matrix intent AND eligibility).
//
// The two facts collapse into a single tagged State per resource.
// Unknown existence is fail-closed: the resource joins neither the
// create nor the remove set this cycle and is retried on the next one.
package catalog
