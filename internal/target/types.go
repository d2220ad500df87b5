package target

import "time"

// Kind classifies a discovered ventilation device. Feature eligibility
// rules are expressed over kinds, never over individual device IDs.
type Kind string

// Target kinds recognised by the builtin capability declarations.
// Discovery may report other kinds; they are stored as-is and simply
// match no eligibility rule.
const (
	KindFan            Kind = "fan"
	KindCO2Remote      Kind = "co2_remote"
	KindHumidityRemote Kind = "humidity_remote"
)

// Target represents an externally discovered addressable device that may
// host managed resources. Targets are owned by the discovery layer; the
// reconciliation engine never mutates them.
type Target struct {
	// ID is the stable device identifier, e.g. "fan-attic".
	ID string `json:"id"`

	// Kind is the device classification used for eligibility filtering.
	Kind Kind `json:"kind"`

	// Online reports whether the device was reachable when last discovered.
	Online bool `json:"online"`

	// LastSeen is when the device was last observed by any discovery source.
	LastSeen time.Time `json:"last_seen"`
}
