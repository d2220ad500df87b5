// Package discovery supplies the live target population to the
// reconciliation engine.
//
// Several historical access strategies exist for finding ventilation
// units; they are modelled as an ordered chain-of-responsibility tried
// until a non-empty, trusted result is obtained:
//
//  1. MQTTPresence: retained presence announcements from the gateway.
//  2. Stored: the last-seen population recorded by earlier runs.
//  3. Static: units declared in the configuration file.
//
// The chain never errors. Strategy failures are logged where they
// happen and the next strategy is tried; an entirely empty result is a
// valid answer and the catalog builds with whatever is known.
package discovery
