package engine

import (
	"context"
	"sync"
	"time"

	"github.com/ventlogic/ventlogic-core/internal/catalog"
	"github.com/ventlogic/ventlogic-core/internal/execute"
	"github.com/ventlogic/ventlogic-core/internal/matrix"
	"github.com/ventlogic/ventlogic-core/internal/plan"
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

// Discovery supplies the live target population.
// Satisfied by *discovery.Chain.
type Discovery interface {
	ListTargets(ctx context.Context) []target.Target
}

// Telemetry receives reconciliation metrics. Satisfied by
// *influxdb.Client; nil disables telemetry.
type Telemetry interface {
	WriteCycleMetric(trigger string, create, remove, keep, inert, unknown int)
	WriteExecutionMetric(executionID string, created, removed, failed, skipped int, durationMS int64)
}

// Trigger names what started a reconciliation cycle, for logs and
// telemetry.
const (
	TriggerStartup = "startup"
	TriggerConfirm = "confirm"
	TriggerManual  = "manual"
)

// Reconciler runs the build → diff → apply cycle.
//
// Cycles are serialised: one runs at a time. A newly requested cycle
// supersedes an in-flight apply by cancelling its context; the executor
// finishes its current step, skips the stale remainder, and the fresh
// cycle then starts from the latest matrix. Stale plans are discarded,
// never partially replayed.
type Reconciler struct {
	discovery Discovery
	builder   *catalog.Builder
	executor  *execute.Executor
	store     *matrix.Store
	telemetry Telemetry
	logger    Logger

	applyTimeout time.Duration

	runMu  sync.Mutex // serialises cycles
	flight struct {
		sync.Mutex
		cancel context.CancelFunc
	}
}

// New creates a reconciler.
func New(discovery Discovery, builder *catalog.Builder, executor *execute.Executor, store *matrix.Store) *Reconciler {
	return &Reconciler{
		discovery: discovery,
		builder:   builder,
		executor:  executor,
		store:     store,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the reconciler.
func (r *Reconciler) SetLogger(logger Logger) {
	r.logger = logger
}

// SetTelemetry wires the metrics sink. Nil disables telemetry.
func (r *Reconciler) SetTelemetry(t Telemetry) {
	r.telemetry = t
}

// SetApplyTimeout bounds the execution phase of a cycle.
// Zero leaves the caller's context as the only bound.
func (r *Reconciler) SetApplyTimeout(d time.Duration) {
	r.applyTimeout = d
}

// Preview builds a fresh catalog and plan without applying anything.
// This is what the configuration wizard shows at its confirmation step.
func (r *Reconciler) Preview(ctx context.Context) (*plan.Plan, plan.Summary) {
	targets := r.discovery.ListTargets(ctx)
	cat := r.builder.Build(ctx, targets)
	p := plan.Build(cat)
	return p, p.Summary()
}

// SetFeature records one operator decision and persists it, without
// applying. Returns matrix.ErrPersistFailed (wrapped) if the snapshot
// cannot be saved, in which case nothing changed.
func (r *Reconciler) SetFeature(ctx context.Context, targetID, featureID string, enabled bool) error {
	if enabled {
		return r.store.Enable(ctx, targetID, featureID)
	}
	return r.store.Disable(ctx, targetID, featureID)
}

// Confirm records one operator decision and then reconciles. The matrix
// is persisted before any resource is touched; if persistence fails the
// error is returned and no apply happens. The report covers the whole
// resulting cycle, not just this decision's resources.
func (r *Reconciler) Confirm(ctx context.Context, targetID, featureID string, enabled bool) (*execute.Report, error) {
	if err := r.SetFeature(ctx, targetID, featureID, enabled); err != nil {
		return nil, err
	}
	return r.Reconcile(ctx, TriggerConfirm), nil
}

// Startup runs the validation pass that self-heals drift accumulated
// while the process was stopped. Failures are logged in the report and
// never abort startup.
func (r *Reconciler) Startup(ctx context.Context) *execute.Report {
	report := r.Reconcile(ctx, TriggerStartup)
	if report.Failed > 0 {
		r.logger.Warn("startup validation pass had failures, will retry next cycle",
			"failed", report.Failed)
	}
	return report
}

// Reconcile runs one full build → diff → apply cycle and always returns
// a report; partial failures are report entries, never errors.
func (r *Reconciler) Reconcile(ctx context.Context, trigger string) *execute.Report {
	// Supersede any in-flight apply before waiting for the cycle lock:
	// its executor finishes the current step and discards the rest.
	r.supersede()

	r.runMu.Lock()
	defer r.runMu.Unlock()

	var (
		applyCtx context.Context
		cancel   context.CancelFunc
	)
	if r.applyTimeout > 0 {
		applyCtx, cancel = context.WithTimeout(ctx, r.applyTimeout)
	} else {
		applyCtx, cancel = context.WithCancel(ctx)
	}
	r.setInFlight(cancel)
	defer r.clearInFlight(cancel)

	targets := r.discovery.ListTargets(ctx)
	cat := r.builder.Build(ctx, targets)
	p := plan.Build(cat)

	r.logger.Info("reconciliation cycle planned",
		"trigger", trigger,
		"targets", len(targets),
		"to_create", len(p.Create),
		"to_remove", len(p.Remove),
		"unknown", len(p.Unknown))

	if r.telemetry != nil {
		r.telemetry.WriteCycleMetric(trigger,
			len(p.Create), len(p.Remove), len(p.Keep), len(p.Inert), len(p.Unknown))
	}

	report := r.executor.Apply(applyCtx, p)

	if r.telemetry != nil {
		r.telemetry.WriteExecutionMetric(report.ID,
			report.Created, report.Removed, report.Failed, report.Skipped, report.DurationMS)
	}
	return report
}

// supersede cancels the in-flight apply, if any.
func (r *Reconciler) supersede() {
	r.flight.Lock()
	defer r.flight.Unlock()
	if r.flight.cancel != nil {
		r.logger.Info("superseding in-flight reconciliation")
		r.flight.cancel()
		r.flight.cancel = nil
	}
}

func (r *Reconciler) setInFlight(cancel context.CancelFunc) {
	r.flight.Lock()
	defer r.flight.Unlock()
	r.flight.cancel = cancel
}

// clearInFlight runs before the cycle lock is released, so no other
// cycle can be registering its own cancel func concurrently.
func (r *Reconciler) clearInFlight(cancel context.CancelFunc) {
	cancel()
	r.flight.Lock()
	defer r.flight.Unlock()
	r.flight.cancel = nil
}
