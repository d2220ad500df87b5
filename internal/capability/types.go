package capability

import (
	"strings"

	"github.com/ventlogic/ventlogic-core/internal/target"
)

// ResourceKind classifies a managed resource instantiated from a template.
// Kinds map one-to-one onto downstream discovery document classes.
type ResourceKind string

const (
	KindSensor       ResourceKind = "sensor"
	KindBinarySensor ResourceKind = "binary_sensor"
	KindSwitch       ResourceKind = "switch"
)

// TargetPlaceholder is the token in a template name pattern that is
// replaced with the target ID at expansion time.
const TargetPlaceholder = "{target}"

// ResourceTemplate describes one resource a feature instantiates per
// eligible target.
type ResourceTemplate struct {
	// Kind is the resource class, e.g. sensor or switch.
	Kind ResourceKind `json:"kind"`

	// NamePattern is the resource name with an optional {target}
	// placeholder. Patterns without the placeholder get the target ID
	// appended, so expansion is always unique per target.
	NamePattern string `json:"name_pattern"`
}

// ExpandName produces the deterministic resource name for a target.
// The same (pattern, target) pair always yields the same name; this is
// what makes reconciliation diffs idempotent.
func (rt ResourceTemplate) ExpandName(targetID string) string {
	if strings.Contains(rt.NamePattern, TargetPlaceholder) {
		return strings.ReplaceAll(rt.NamePattern, TargetPlaceholder, targetID)
	}
	return rt.NamePattern + "." + targetID
}

// Eligibility restricts a feature to targets of certain kinds.
type Eligibility struct {
	// AnyKind makes the feature eligible for every target regardless of kind.
	AnyKind bool `json:"any_kind"`

	// Kinds lists the allowed target kinds when AnyKind is false.
	Kinds []target.Kind `json:"kinds,omitempty"`
}

// Allows reports whether a target of the given kind may host the feature.
func (e Eligibility) Allows(kind target.Kind) bool {
	if e.AnyKind {
		return true
	}
	for _, k := range e.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Descriptor is the static, load-time description of one feature: its
// identity, the resource templates it owns, and the targets it may
// apply to. Descriptors are registered once at startup and immutable
// thereafter.
type Descriptor struct {
	// ID uniquely names the feature, e.g. "absolute_humidity".
	ID string `json:"id"`

	// Templates lists the resources the feature instantiates per eligible
	// target, in declaration order.
	Templates []ResourceTemplate `json:"templates"`

	// Eligibility decides which targets may host the feature.
	Eligibility Eligibility `json:"eligibility"`
}

// Eligible reports whether the feature applies to the given target.
func (d Descriptor) Eligible(t target.Target) bool {
	return d.Eligibility.Allows(t.Kind)
}
