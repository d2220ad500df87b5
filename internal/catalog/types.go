package catalog

import (
	"encoding/json"
	"sort"

	"github.com/ventlogic/ventlogic-core/internal/capability"
)

// Existence is the tri-state answer from an existence probe. Unknown is
// a first-class value, not an error: it means the downstream system
// could not be queried reliably this cycle.
type Existence int

const (
	ExistenceUnknown Existence = iota
	ExistenceAbsent
	ExistencePresent
)

// String returns the lowercase name of the existence value.
func (e Existence) String() string {
	switch e {
	case ExistencePresent:
		return "present"
	case ExistenceAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the existence by name, so plan and report
// consumers read "present"/"absent"/"unknown" instead of a bare int.
func (e Existence) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

// State is the reconciliation classification of one resource, computed
// once per resource from existence and desire. Modelling it as a single
// tagged value makes ambiguous combinations unrepresentable downstream.
type State string

const (
	// StateCreate: should exist, does not.
	StateCreate State = "create"
	// StateRemove: exists, should not.
	StateRemove State = "remove"
	// StateKeep: exists and should.
	StateKeep State = "keep"
	// StateInert: neither exists nor should.
	StateInert State = "inert"
	// StateUnknown: existence could not be determined. Excluded from
	// both create and remove this cycle, retried next cycle.
	StateUnknown State = "unknown"
)

// Resource is one managed object instantiated from a feature template
// for a specific target, annotated with its reconciliation state.
type Resource struct {
	// ID is the deterministic identifier, a pure function of kind,
	// expanded name and target, e.g. "sensor.abs_humidity.fan-attic".
	ID string `json:"id"`

	// Kind is the resource class from the owning template.
	Kind capability.ResourceKind `json:"kind"`

	// Name is the template's name pattern expanded for the target.
	Name string `json:"name"`

	// FeatureID is the owning feature.
	FeatureID string `json:"feature_id"`

	// TargetID is the owning target.
	TargetID string `json:"target_id"`

	// Existence is the probe's answer for this cycle.
	Existence Existence `json:"existence"`

	// ShouldExist is matrix intent AND eligibility.
	ShouldExist bool `json:"should_exist"`

	// State is the classification computed from Existence and ShouldExist.
	State State `json:"state"`
}

// ResourceID builds the deterministic resource identifier. The expanded
// name already embeds the target ID, so identical registry, target and
// matrix inputs always produce the identical ID space.
func ResourceID(kind capability.ResourceKind, expandedName string) string {
	return string(kind) + "." + expandedName
}

// Classify computes the tagged reconciliation state.
func Classify(existence Existence, shouldExist bool) State {
	switch existence {
	case ExistenceUnknown:
		return StateUnknown
	case ExistencePresent:
		if shouldExist {
			return StateKeep
		}
		return StateRemove
	default:
		if shouldExist {
			return StateCreate
		}
		return StateInert
	}
}

// Catalog is the ephemeral, fully expanded set of resource descriptors
// for one reconciliation pass. It is rebuilt fresh every cycle and never
// persisted; only the matrix is.
type Catalog struct {
	resources map[string]Resource
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{resources: make(map[string]Resource)}
}

// Add inserts a resource descriptor, replacing any previous descriptor
// with the same ID.
func (c *Catalog) Add(r Resource) {
	c.resources[r.ID] = r
}

// Get retrieves a resource descriptor by ID.
func (c *Catalog) Get(id string) (Resource, bool) {
	r, ok := c.resources[id]
	return r, ok
}

// Len returns the number of resources in the catalog.
func (c *Catalog) Len() int {
	return len(c.resources)
}

// Resources returns all descriptors sorted by ID, so downstream plans
// are deterministic for identical inputs.
func (c *Catalog) Resources() []Resource {
	ids := make([]string, 0, len(c.resources))
	for id := range c.resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Resource, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.resources[id])
	}
	return out
}
