package execute

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ventlogic/ventlogic-core/internal/capability"
	"github.com/ventlogic/ventlogic-core/internal/catalog"
	"github.com/ventlogic/ventlogic-core/internal/plan"
)

// mockPlatform records calls and fails the listed resource IDs.
type mockPlatform struct {
	mu       sync.Mutex
	created  []string
	removed  []string
	failIDs  map[string]bool
	panicIDs map[string]bool
}

func (m *mockPlatform) CreateResource(_ context.Context, r catalog.Resource) error {
	return m.apply(&m.created, r)
}

func (m *mockPlatform) RemoveResource(_ context.Context, r catalog.Resource) error {
	return m.apply(&m.removed, r)
}

func (m *mockPlatform) apply(log *[]string, r catalog.Resource) error {
	if m.panicIDs[r.ID] {
		panic("platform exploded on " + r.ID)
	}
	if m.failIDs[r.ID] {
		return errors.New("downstream rejected " + r.ID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	*log = append(*log, r.ID)
	return nil
}

func (m *mockPlatform) createdIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.created...)
}

func (m *mockPlatform) removedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removed...)
}

// mockBatchPlatform additionally counts batch calls.
type mockBatchPlatform struct {
	mockPlatform
	batchCalls int
}

func (m *mockBatchPlatform) CreateResources(_ context.Context, resources []catalog.Resource) map[string]error {
	return m.applyBatch(&m.created, resources)
}

func (m *mockBatchPlatform) RemoveResources(_ context.Context, resources []catalog.Resource) map[string]error {
	return m.applyBatch(&m.removed, resources)
}

func (m *mockBatchPlatform) applyBatch(log *[]string, resources []catalog.Resource) map[string]error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++

	errs := make(map[string]error)
	for _, r := range resources {
		if m.failIDs[r.ID] {
			errs[r.ID] = errors.New("downstream rejected " + r.ID)
			continue
		}
		*log = append(*log, r.ID)
	}
	return errs
}

// staticProbe answers the same existence for every resource.
type staticProbe struct {
	answers map[string]catalog.Existence
}

func (p *staticProbe) Exists(_ context.Context, r catalog.Resource) catalog.Existence {
	if e, ok := p.answers[r.ID]; ok {
		return e
	}
	return catalog.ExistenceAbsent
}

func createResource(id string, kind capability.ResourceKind) catalog.Resource {
	return catalog.Resource{ID: id, Kind: kind, State: catalog.StateCreate, ShouldExist: true}
}

func removeResource(id string, kind capability.ResourceKind) catalog.Resource {
	return catalog.Resource{ID: id, Kind: kind, State: catalog.StateRemove, Existence: catalog.ExistencePresent}
}

// One of five same-kind creates fails: the other four succeed and the
// removes of another kind still proceed.
func TestExecutor_Apply_FailureIsolatedPerResource(t *testing.T) {
	p := &plan.Plan{}
	for i := 0; i < 5; i++ {
		p.Create = append(p.Create, createResource(fmt.Sprintf("sensor.s%d.T1", i), capability.KindSensor))
	}
	p.Remove = append(p.Remove, removeResource("switch.boost.T1", capability.KindSwitch))

	platform := &mockPlatform{failIDs: map[string]bool{"sensor.s2.T1": true}}
	ex := NewExecutor(platform, nil)

	report := ex.Apply(context.Background(), p)

	if report.Created != 4 {
		t.Errorf("Created = %d, want 4", report.Created)
	}
	if report.Failed != 1 {
		t.Errorf("Failed = %d, want 1", report.Failed)
	}
	if report.Removed != 1 {
		t.Errorf("Removed = %d, want 1; other kinds must proceed", report.Removed)
	}
	if report.Status != StatusPartial {
		t.Errorf("Status = %v, want %v", report.Status, StatusPartial)
	}
	if len(report.Failures) != 1 || report.Failures[0].ResourceID != "sensor.s2.T1" {
		t.Errorf("Failures = %v, want exactly sensor.s2.T1", report.Failures)
	}
	if report.Failures[0].Action != ActionCreate {
		t.Errorf("failure action = %v, want create", report.Failures[0].Action)
	}
}

func TestExecutor_Apply_AllSucceed(t *testing.T) {
	p := &plan.Plan{
		Create: []catalog.Resource{createResource("sensor.a.T1", capability.KindSensor)},
		Remove: []catalog.Resource{removeResource("sensor.b.T1", capability.KindSensor)},
	}
	platform := &mockPlatform{}
	ex := NewExecutor(platform, nil)

	report := ex.Apply(context.Background(), p)

	if report.Status != StatusCompleted {
		t.Errorf("Status = %v, want %v", report.Status, StatusCompleted)
	}
	if report.ID == "" {
		t.Error("report ID is empty")
	}
	if len(platform.createdIDs()) != 1 || len(platform.removedIDs()) != 1 {
		t.Errorf("platform saw %d creates, %d removes, want 1 and 1",
			len(platform.createdIDs()), len(platform.removedIDs()))
	}
}

func TestExecutor_Apply_EmptyPlan(t *testing.T) {
	ex := NewExecutor(&mockPlatform{}, nil)

	report := ex.Apply(context.Background(), &plan.Plan{})
	if report.Status != StatusCompleted {
		t.Errorf("Status = %v, want %v", report.Status, StatusCompleted)
	}
	if report.Created != 0 || report.Removed != 0 || report.Failed != 0 {
		t.Error("empty plan produced nonzero counts")
	}
}

// The pre-create re-check skips resources that turn out to exist,
// guarding against stale probe data baked into the catalog.
func TestExecutor_Apply_PreCreateRecheck(t *testing.T) {
	p := &plan.Plan{
		Create: []catalog.Resource{
			createResource("sensor.a.T1", capability.KindSensor),
			createResource("sensor.b.T1", capability.KindSensor),
		},
	}
	platform := &mockPlatform{}
	probe := &staticProbe{answers: map[string]catalog.Existence{
		"sensor.a.T1": catalog.ExistencePresent,
	}}
	ex := NewExecutor(platform, probe)

	report := ex.Apply(context.Background(), p)

	if report.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", report.Skipped)
	}
	if report.Created != 1 {
		t.Errorf("Created = %d, want 1", report.Created)
	}
	created := platform.createdIDs()
	if len(created) != 1 || created[0] != "sensor.b.T1" {
		t.Errorf("platform created %v, want only sensor.b.T1", created)
	}
}

// explodingProbe panics on every existence check.
type explodingProbe struct{}

func (explodingProbe) Exists(context.Context, catalog.Resource) catalog.Existence {
	panic("probe exploded")
}

// A probe that panics during the pre-create re-check degrades to "not
// present": every create proceeds and each resource is counted exactly
// once in the report.
func TestExecutor_Apply_PreCreateRecheckPanic(t *testing.T) {
	p := &plan.Plan{
		Create: []catalog.Resource{
			createResource("sensor.a.T1", capability.KindSensor),
			createResource("sensor.b.T1", capability.KindSensor),
		},
	}
	platform := &mockPlatform{}
	ex := NewExecutor(platform, explodingProbe{})

	report := ex.Apply(context.Background(), p)

	if report.Status != StatusCompleted {
		t.Errorf("Status = %v, want %v", report.Status, StatusCompleted)
	}
	if report.Created != 2 {
		t.Errorf("Created = %d, want 2", report.Created)
	}
	if total := report.Created + report.Removed + report.Failed + report.Skipped; total != 2 {
		t.Errorf("report counts %d resource outcomes, want 2", total)
	}
}

func TestExecutor_Apply_CancelledContext(t *testing.T) {
	p := &plan.Plan{}
	for i := 0; i < 5; i++ {
		p.Create = append(p.Create, createResource(fmt.Sprintf("sensor.s%d.T1", i), capability.KindSensor))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ex := NewExecutor(&mockPlatform{}, nil)
	report := ex.Apply(ctx, p)

	if report.Status != StatusCancelled {
		t.Errorf("Status = %v, want %v", report.Status, StatusCancelled)
	}
	if report.Skipped != 5 {
		t.Errorf("Skipped = %d, want 5; stale steps must not run", report.Skipped)
	}
	if report.Created != 0 {
		t.Errorf("Created = %d, want 0 after cancellation", report.Created)
	}
}

func TestExecutor_Apply_BatchPlatform(t *testing.T) {
	p := &plan.Plan{
		Create: []catalog.Resource{
			createResource("sensor.a.T1", capability.KindSensor),
			createResource("sensor.b.T1", capability.KindSensor),
			createResource("sensor.c.T1", capability.KindSensor),
		},
		Remove: []catalog.Resource{removeResource("switch.d.T1", capability.KindSwitch)},
	}
	platform := &mockBatchPlatform{
		mockPlatform: mockPlatform{failIDs: map[string]bool{"sensor.b.T1": true}},
	}
	ex := NewExecutor(platform, nil)

	report := ex.Apply(context.Background(), p)

	// One batched call per kind-group: sensor creates + switch removes.
	if platform.batchCalls != 2 {
		t.Errorf("batch calls = %d, want 2", platform.batchCalls)
	}
	if report.Created != 2 || report.Removed != 1 || report.Failed != 1 {
		t.Errorf("created/removed/failed = %d/%d/%d, want 2/1/1",
			report.Created, report.Removed, report.Failed)
	}
}

// A platform panic for one kind fails that group's resources but the
// other kind-groups still complete.
func TestExecutor_Apply_GroupPanicIsolated(t *testing.T) {
	p := &plan.Plan{
		Create: []catalog.Resource{
			createResource("sensor.a.T1", capability.KindSensor),
			createResource("switch.b.T1", capability.KindSwitch),
		},
	}
	platform := &mockPlatform{panicIDs: map[string]bool{"sensor.a.T1": true}}
	ex := NewExecutor(platform, nil)

	report := ex.Apply(context.Background(), p)

	if report.Created != 1 {
		t.Errorf("Created = %d, want 1; healthy group must proceed", report.Created)
	}
	if report.Failed != 1 {
		t.Errorf("Failed = %d, want 1", report.Failed)
	}
	if report.Status != StatusPartial {
		t.Errorf("Status = %v, want %v", report.Status, StatusPartial)
	}
}
