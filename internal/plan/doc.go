// Package plan partitions a resource catalog into the four
// reconciliation buckets plus the unknown holdout.
//
// Build is a pure function: no I/O, no clock, no randomness. The
// create and remove sets can never intersect because each resource
// carries exactly one tagged state.
package plan
