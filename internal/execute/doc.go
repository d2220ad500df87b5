// Package execute applies reconciliation plans to the downstream
// platform.
//
// Execution is best-effort with isolated failures: resources are
// grouped by kind, groups run concurrently, and a failing step is
// recorded per-resource in the report rather than raised. The decision
// matrix was persisted before Apply ran, so failed steps are simply
// retried on the next reconciliation cycle.
//
// Platforms whose kinds support bulk operations implement BatchPlatform
// and receive one call per kind-group.
package execute
