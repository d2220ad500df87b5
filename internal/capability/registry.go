package capability

import (
	"fmt"
	"sync"
)

// Registry aggregates feature declarations into a read-only table.
//
// Features are declared once at process start and the registry is then
// frozen; everything downstream (catalog builds, the API) reads from it
// concurrently without further synchronisation concerns. There is no
// ambient global table: the registry is constructed in main and passed
// by reference.
//
// All public methods are thread-safe.
type Registry struct {
	mu       sync.RWMutex
	features map[string]Descriptor
	order    []string // declaration order, drives deterministic iteration
	frozen   bool
}

// NewRegistry creates an empty feature registry.
func NewRegistry() *Registry {
	return &Registry{
		features: make(map[string]Descriptor),
	}
}

// Declare registers a feature. Called once per feature at process start.
// Returns ErrDuplicateFeature for a repeated ID, ErrRegistryFrozen after
// Freeze, and ErrInvalidDescriptor for malformed declarations.
func (r *Registry) Declare(d Descriptor) error {
	if err := validateDescriptor(d); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("%w: cannot declare %q", ErrRegistryFrozen, d.ID)
	}
	if _, exists := r.features[d.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateFeature, d.ID)
	}

	// Clone the template slice so later caller mutation cannot leak in.
	templates := make([]ResourceTemplate, len(d.Templates))
	copy(templates, d.Templates)
	d.Templates = templates

	r.features[d.ID] = d
	r.order = append(r.order, d.ID)
	return nil
}

// Freeze makes the registry read-only. Further Declare calls fail.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Frozen reports whether the registry has been frozen.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Features returns all declared features in declaration order.
func (r *Registry) Features() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.features[id])
	}
	return out
}

// Get retrieves a feature descriptor by ID.
func (r *Registry) Get(id string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.features[id]
	return d, ok
}

// Has reports whether a feature ID is declared.
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

func validateDescriptor(d Descriptor) error {
	if d.ID == "" {
		return fmt.Errorf("%w: empty ID", ErrInvalidDescriptor)
	}
	if len(d.Templates) == 0 {
		return fmt.Errorf("%w: %q has no templates", ErrInvalidDescriptor, d.ID)
	}
	for i, tpl := range d.Templates {
		if tpl.Kind == "" {
			return fmt.Errorf("%w: %q template %d has empty kind", ErrInvalidDescriptor, d.ID, i)
		}
		if tpl.NamePattern == "" {
			return fmt.Errorf("%w: %q template %d has empty name pattern", ErrInvalidDescriptor, d.ID, i)
		}
	}
	if !d.Eligibility.AnyKind && len(d.Eligibility.Kinds) == 0 {
		return fmt.Errorf("%w: %q is eligible for no target kind", ErrInvalidDescriptor, d.ID)
	}
	return nil
}
