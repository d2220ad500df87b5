package execute

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ventlogic/ventlogic-core/internal/capability"
	"github.com/ventlogic/ventlogic-core/internal/catalog"
	"github.com/ventlogic/ventlogic-core/internal/plan"
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

// Executor applies a plan against the downstream platform.
//
// Resources are grouped by kind and the groups run concurrently, each
// isolated: a failure (or panic) in one group is recorded per-resource
// in the report and never aborts the other groups. Within a group the
// context is checked between steps, so a superseding configuration can
// cancel an in-flight apply after the current step finishes; the
// remaining stale steps are counted skipped, never queued.
type Executor struct {
	platform Platform
	probe    catalog.Probe
	logger   Logger
}

// NewExecutor creates an executor. The probe is used for the pre-create
// existence re-check and may be nil to disable it.
func NewExecutor(platform Platform, probe catalog.Probe) *Executor {
	return &Executor{
		platform: platform,
		probe:    probe,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the executor.
func (e *Executor) SetLogger(logger Logger) {
	e.logger = logger
}

// kindGroup is one unit of isolated execution.
type kindGroup struct {
	kind      capability.ResourceKind
	action    Action
	resources []catalog.Resource
}

// Apply executes the plan's creates and removes. It always returns a
// report enumerating successes and failures; partial failure is never
// an error.
func (e *Executor) Apply(ctx context.Context, p *plan.Plan) *Report {
	started := time.Now().UTC()
	report := &Report{
		ID:        GenerateID(),
		StartedAt: started,
	}

	groups := groupByKind(p)

	e.logger.Info("applying plan",
		"execution_id", report.ID,
		"to_create", len(p.Create),
		"to_remove", len(p.Remove),
		"groups", len(groups))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, g := range groups {
		wg.Add(1)
		go func(g kindGroup) {
			defer wg.Done()
			e.applyGroup(ctx, g, report, &mu)
		}(g)
	}
	wg.Wait()

	completed := time.Now().UTC()
	report.CompletedAt = completed
	report.DurationMS = completed.Sub(started).Milliseconds()

	switch {
	case ctx.Err() != nil:
		report.Status = StatusCancelled
	case report.Failed > 0:
		report.Status = StatusPartial
	default:
		report.Status = StatusCompleted
	}

	e.logger.Info("plan applied",
		"execution_id", report.ID,
		"status", report.Status,
		"created", report.Created,
		"removed", report.Removed,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"duration_ms", report.DurationMS)

	return report
}

// applyGroup executes one kind-group, recovering panics so a broken
// platform path for one kind cannot take down the others.
func (e *Executor) applyGroup(ctx context.Context, g kindGroup, report *Report, mu *sync.Mutex) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("kind-group execution panicked",
				"kind", g.kind, "action", g.action, "panic", r)
			mu.Lock()
			for _, res := range g.resources {
				report.Failed++
				report.Failures = append(report.Failures, ResourceFailure{
					ResourceID: res.ID,
					Kind:       res.Kind,
					Action:     g.action,
					ErrorMsg:   fmt.Sprintf("panic: %v", r),
				})
			}
			mu.Unlock()
		}
	}()

	resources := g.resources
	if g.action == ActionCreate {
		resources = e.filterExisting(ctx, resources, report, mu)
	}
	if len(resources) == 0 {
		return
	}

	if batch, ok := e.platform.(BatchPlatform); ok {
		e.applyBatch(ctx, batch, g.action, resources, report, mu)
		return
	}

	for i, res := range resources {
		select {
		case <-ctx.Done():
			mu.Lock()
			report.Skipped += len(resources) - i
			mu.Unlock()
			return
		default:
		}

		err := e.applyOne(ctx, g.action, res)
		e.record(report, mu, g.action, res, err)
	}
}

// filterExisting re-checks existence directly before creates. Probe
// data baked into the catalog can be stale; creating an already present
// resource would duplicate it downstream.
func (e *Executor) filterExisting(ctx context.Context, resources []catalog.Resource, report *Report, mu *sync.Mutex) []catalog.Resource {
	if e.probe == nil {
		return resources
	}

	remaining := make([]catalog.Resource, 0, len(resources))
	for _, res := range resources {
		if e.probeExists(ctx, res) == catalog.ExistencePresent {
			e.logger.Debug("resource already exists, skipping create", "resource", res.ID)
			mu.Lock()
			report.Skipped++
			mu.Unlock()
			continue
		}
		remaining = append(remaining, res)
	}
	return remaining
}

// probeExists recovers a panicking probe so the re-check degrades to
// "not present" and the create proceeds, instead of the group recover
// re-counting resources already recorded.
func (e *Executor) probeExists(ctx context.Context, res catalog.Resource) (existence catalog.Existence) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("existence re-check panicked",
				"resource", res.ID, "panic", r)
			existence = catalog.ExistenceUnknown
		}
	}()
	return e.probe.Exists(ctx, res)
}

func (e *Executor) applyBatch(ctx context.Context, batch BatchPlatform, action Action, resources []catalog.Resource, report *Report, mu *sync.Mutex) {
	select {
	case <-ctx.Done():
		mu.Lock()
		report.Skipped += len(resources)
		mu.Unlock()
		return
	default:
	}

	var errs map[string]error
	if action == ActionCreate {
		errs = batch.CreateResources(ctx, resources)
	} else {
		errs = batch.RemoveResources(ctx, resources)
	}

	for _, res := range resources {
		e.record(report, mu, action, res, errs[res.ID])
	}
}

// applyOne issues a single platform call, converting a panic into an
// error so siblings already recorded in the group stay counted once.
func (e *Executor) applyOne(ctx context.Context, action Action, res catalog.Resource) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if action == ActionCreate {
		return e.platform.CreateResource(ctx, res)
	}
	return e.platform.RemoveResource(ctx, res)
}

func (e *Executor) record(report *Report, mu *sync.Mutex, action Action, res catalog.Resource, err error) {
	mu.Lock()
	defer mu.Unlock()

	if err != nil {
		e.logger.Warn("resource step failed",
			"resource", res.ID, "action", action, "error", err)
		report.Failed++
		report.Failures = append(report.Failures, ResourceFailure{
			ResourceID: res.ID,
			Kind:       res.Kind,
			Action:     action,
			ErrorMsg:   err.Error(),
		})
		return
	}

	if action == ActionCreate {
		report.Created++
	} else {
		report.Removed++
	}
}

// groupByKind splits the plan into per-kind create and remove groups,
// sorted for deterministic goroutine launch order.
func groupByKind(p *plan.Plan) []kindGroup {
	byKind := func(resources []catalog.Resource, action Action) []kindGroup {
		m := make(map[capability.ResourceKind][]catalog.Resource)
		for _, res := range resources {
			m[res.Kind] = append(m[res.Kind], res)
		}

		kinds := make([]capability.ResourceKind, 0, len(m))
		for k := range m {
			kinds = append(kinds, k)
		}
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

		groups := make([]kindGroup, 0, len(kinds))
		for _, k := range kinds {
			groups = append(groups, kindGroup{kind: k, action: action, resources: m[k]})
		}
		return groups
	}

	groups := byKind(p.Remove, ActionRemove)
	return append(groups, byKind(p.Create, ActionCreate)...)
}
