// Package target defines the discovered device population the
// reconciliation engine operates over.
//
// A Target is a ventilation device found by discovery. Targets are
// read-only from the engine's perspective: discovery creates and removes
// them, reconciliation only filters them through capability eligibility
// rules.
//
// The package also provides a SQLite-backed last-seen store. Every
// successful discovery run records its results here so that a later run
// can fall back to the stored population when live sources are
// unavailable (broker down, no retained presence yet).
package target
