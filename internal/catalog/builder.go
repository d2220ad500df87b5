package catalog

import (
	"context"
	"time"

	"github.com/ventlogic/ventlogic-core/internal/capability"
	"github.com/ventlogic/ventlogic-core/internal/target"
)

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Probe answers whether a resource currently exists downstream.
//
// Implementations return ExistenceUnknown when the answer cannot be
// trusted (disconnected, cache cold, timeout). They never return an
// error; Unknown is the error channel, and the builder's fail-closed
// handling keeps Unknown resources out of both create and remove sets.
type Probe interface {
	Exists(ctx context.Context, r Resource) Existence
}

// Decisions is the read side of the decision matrix the builder needs.
// Satisfied by matrix.Store. A future per-metric source-selection
// matrix can sit behind this same interface.
type Decisions interface {
	IsEnabled(targetID, featureID string) bool
}

// Builder computes the resource catalog for one reconciliation pass.
type Builder struct {
	registry     *capability.Registry
	decisions    Decisions
	probe        Probe
	probeTimeout time.Duration
	logger       Logger
}

// NewBuilder creates a catalog builder.
func NewBuilder(registry *capability.Registry, decisions Decisions, probe Probe) *Builder {
	return &Builder{
		registry:  registry,
		decisions: decisions,
		probe:     probe,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the builder.
func (b *Builder) SetLogger(logger Logger) {
	b.logger = logger
}

// SetProbeTimeout bounds each existence probe call. Zero means the
// caller's context is the only bound.
func (b *Builder) SetProbeTimeout(d time.Duration) {
	b.probeTimeout = d
}

// Build expands every (feature, eligible target, template) triple into a
// resource descriptor with existence and desire resolved.
//
// Per-feature faults are isolated: a panic while scanning one feature is
// recovered and logged, and the remaining features still build. One
// broken feature must never block reconciliation of the others.
func (b *Builder) Build(ctx context.Context, targets []target.Target) *Catalog {
	cat := NewCatalog()

	for _, feature := range b.registry.Features() {
		b.buildFeature(ctx, cat, feature, targets)
	}

	b.logger.Debug("catalog built",
		"features", len(b.registry.Features()),
		"targets", len(targets),
		"resources", cat.Len())
	return cat
}

func (b *Builder) buildFeature(ctx context.Context, cat *Catalog, feature capability.Descriptor, targets []target.Target) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("feature scan panicked, skipping feature",
				"feature", feature.ID, "panic", r)
		}
	}()

	for _, tgt := range targets {
		if !feature.Eligible(tgt) {
			continue
		}

		for _, tpl := range feature.Templates {
			name := tpl.ExpandName(tgt.ID)
			res := Resource{
				ID:        ResourceID(tpl.Kind, name),
				Kind:      tpl.Kind,
				Name:      name,
				FeatureID: feature.ID,
				TargetID:  tgt.ID,
			}

			res.Existence = b.probeExistence(ctx, res)
			res.ShouldExist = b.decisions.IsEnabled(tgt.ID, feature.ID)
			res.State = Classify(res.Existence, res.ShouldExist)

			if res.Existence == ExistenceUnknown {
				b.logger.Warn("resource existence unknown, excluded from plan this cycle",
					"resource", res.ID, "feature", feature.ID)
			}

			cat.Add(res)
		}
	}
}

// probeExistence queries the probe with the configured timeout. A probe
// that outlives its bound is treated as Unknown rather than blocking
// the whole pass.
func (b *Builder) probeExistence(ctx context.Context, res Resource) Existence {
	if b.probeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.probeTimeout)
		defer cancel()
	}
	if ctx.Err() != nil {
		return ExistenceUnknown
	}
	return b.probe.Exists(ctx, res)
}
