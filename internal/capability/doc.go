// Package capability defines the static feature declarations the
// reconciliation engine expands over discovered targets.
//
// A feature (capability) declares the resource templates it owns and an
// eligibility rule over target kinds. Declarations happen once at
// process start via Registry.Declare and the registry is then frozen;
// the catalog builder iterates the frozen registry on every
// reconciliation pass.
//
// Name expansion is deterministic: the same template and target always
// produce the same resource name, which keeps the resource ID space
// stable across cycles and makes diffing idempotent.
package capability
