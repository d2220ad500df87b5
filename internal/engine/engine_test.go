package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ventlogic/ventlogic-core/internal/capability"
	"github.com/ventlogic/ventlogic-core/internal/catalog"
	"github.com/ventlogic/ventlogic-core/internal/execute"
	"github.com/ventlogic/ventlogic-core/internal/matrix"
	"github.com/ventlogic/ventlogic-core/internal/target"
)

// memPersister keeps the snapshot in memory.
type memPersister struct {
	mu      sync.Mutex
	blob    []byte
	saveErr error
}

func (p *memPersister) Save(_ context.Context, blob []byte) error {
	if p.saveErr != nil {
		return p.saveErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blob = append([]byte(nil), blob...)
	return nil
}

func (p *memPersister) Load(_ context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.blob == nil {
		return nil, matrix.ErrNoSnapshot
	}
	return p.blob, nil
}

// memPlatform is an in-memory downstream: probe and platform in one.
type memPlatform struct {
	mu       sync.Mutex
	existing map[string]bool
	creates  int
	removes  int
}

func newMemPlatform(existingIDs ...string) *memPlatform {
	m := &memPlatform{existing: make(map[string]bool)}
	for _, id := range existingIDs {
		m.existing[id] = true
	}
	return m
}

func (m *memPlatform) Exists(_ context.Context, r catalog.Resource) catalog.Existence {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existing[r.ID] {
		return catalog.ExistencePresent
	}
	return catalog.ExistenceAbsent
}

func (m *memPlatform) CreateResource(_ context.Context, r catalog.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.existing[r.ID] = true
	m.creates++
	return nil
}

func (m *memPlatform) RemoveResource(_ context.Context, r catalog.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.existing, r.ID)
	m.removes++
	return nil
}

// stubDiscovery returns a fixed population.
type stubDiscovery struct {
	targets []target.Target
}

func (d *stubDiscovery) ListTargets(_ context.Context) []target.Target {
	return d.targets
}

type testRig struct {
	reconciler *Reconciler
	store      *matrix.Store
	platform   *memPlatform
	persister  *memPersister
}

func newTestRig(t *testing.T, platform *memPlatform, targets ...target.Target) *testRig {
	t.Helper()

	reg := capability.NewRegistry()
	if err := capability.DeclareBuiltin(reg); err != nil {
		t.Fatalf("DeclareBuiltin() error = %v", err)
	}
	reg.Freeze()

	persister := &memPersister{}
	store := matrix.NewStore(persister)
	builder := catalog.NewBuilder(reg, store, platform)
	executor := execute.NewExecutor(platform, platform)
	disc := &stubDiscovery{targets: targets}

	return &testRig{
		reconciler: New(disc, builder, executor, store),
		store:      store,
		platform:   platform,
		persister:  persister,
	}
}

func fan(id string) target.Target {
	return target.Target{ID: id, Kind: target.KindFan, Online: true}
}

// Running the cycle twice with no external changes yields an empty
// second plan.
func TestReconciler_Idempotence(t *testing.T) {
	rig := newTestRig(t, newMemPlatform(), fan("fan-attic"))
	ctx := context.Background()

	if err := rig.store.Enable(ctx, "fan-attic", capability.FeatureFanBoost); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	first := rig.reconciler.Reconcile(ctx, TriggerManual)
	if first.Created != 2 {
		t.Fatalf("first cycle Created = %d, want 2 (switch + sensor)", first.Created)
	}

	second := rig.reconciler.Reconcile(ctx, TriggerManual)
	if second.Created != 0 || second.Removed != 0 || second.Failed != 0 {
		t.Errorf("second cycle = %d created, %d removed, %d failed, want all 0",
			second.Created, second.Removed, second.Failed)
	}

	p, _ := rig.reconciler.Preview(ctx)
	if !p.Empty() {
		t.Errorf("plan after convergence not empty: create=%v remove=%v", p.Create, p.Remove)
	}
}

// The startup pass removes resources whose intent was withdrawn while
// the process was stopped.
func TestReconciler_Startup_SelfHeals(t *testing.T) {
	// Downstream still has the sensor, but the matrix never enabled it.
	rig := newTestRig(t, newMemPlatform("sensor.abs_humidity.fan-attic"), fan("fan-attic"))

	report := rig.reconciler.Startup(context.Background())

	if report.Removed != 1 {
		t.Errorf("startup Removed = %d, want 1", report.Removed)
	}
	if rig.platform.existing["sensor.abs_humidity.fan-attic"] {
		t.Error("stale resource survived the startup pass")
	}
}

// Preview must not touch the platform.
func TestReconciler_Preview_NoSideEffects(t *testing.T) {
	rig := newTestRig(t, newMemPlatform(), fan("fan-attic"))
	ctx := context.Background()

	if err := rig.store.Enable(ctx, "fan-attic", capability.FeatureFilterAlert); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	p, summary := rig.reconciler.Preview(ctx)

	if len(p.Create) != 1 {
		t.Errorf("Preview plan Create = %v, want 1 entry", p.Create)
	}
	if summary.Total == 0 {
		t.Error("Preview summary empty")
	}
	if rig.platform.creates != 0 || rig.platform.removes != 0 {
		t.Error("Preview caused platform calls")
	}
}

// A failed persist blocks the apply entirely: intent on disk and
// resources downstream never diverge.
func TestReconciler_Confirm_PersistFailureBlocksApply(t *testing.T) {
	rig := newTestRig(t, newMemPlatform(), fan("fan-attic"))
	rig.persister.saveErr = errors.New("disk full")

	_, err := rig.reconciler.Confirm(context.Background(), "fan-attic", capability.FeatureFanBoost, true)
	if !errors.Is(err, matrix.ErrPersistFailed) {
		t.Fatalf("Confirm() error = %v, want ErrPersistFailed", err)
	}
	if rig.platform.creates != 0 {
		t.Error("apply ran despite persistence failure")
	}
	if rig.store.IsEnabled("fan-attic", capability.FeatureFanBoost) {
		t.Error("matrix mutation not rolled back")
	}
}

func TestReconciler_Confirm_AppliesDecision(t *testing.T) {
	rig := newTestRig(t, newMemPlatform(), fan("fan-attic"), target.Target{
		ID: "co2-kitchen", Kind: target.KindCO2Remote, Online: true,
	})
	ctx := context.Background()

	report, err := rig.reconciler.Confirm(ctx, "co2-kitchen", capability.FeatureCO2Level, true)
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if report.Created != 1 {
		t.Errorf("Created = %d, want 1", report.Created)
	}
	if !rig.platform.existing["sensor.co2_level.co2-kitchen"] {
		t.Error("confirmed resource not created downstream")
	}

	// Disabling converges back.
	report, err = rig.reconciler.Confirm(ctx, "co2-kitchen", capability.FeatureCO2Level, false)
	if err != nil {
		t.Fatalf("Confirm() disable error = %v", err)
	}
	if report.Removed != 1 {
		t.Errorf("Removed = %d, want 1", report.Removed)
	}
}

// Dormant intent activates when the target is discovered again.
func TestReconciler_DormantIntentActivates(t *testing.T) {
	platform := newMemPlatform()
	rig := newTestRig(t, platform) // no targets discovered yet
	ctx := context.Background()

	if err := rig.store.Enable(ctx, "fan-attic", capability.FeatureFilterAlert); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	report := rig.reconciler.Reconcile(ctx, TriggerManual)
	if report.Created != 0 {
		t.Fatalf("Created = %d with no targets, want 0", report.Created)
	}

	// Target appears; the stored intent now expands.
	rig2 := newTestRig(t, platform, fan("fan-attic"))
	rig2.persister.blob = rig.persister.blob
	if err := rig2.store.Restore(ctx); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	report = rig2.reconciler.Reconcile(ctx, TriggerManual)
	if report.Created != 1 {
		t.Errorf("Created = %d after target re-discovery, want 1", report.Created)
	}
}

// blockingPlatform stalls its first create until the apply context is
// cancelled, then completes it. This holds a cycle mid-apply so a
// second cycle can arrive while the first is in flight.
type blockingPlatform struct {
	*memPlatform
	started chan struct{} // closed when the first create begins
	once    sync.Once
}

func (p *blockingPlatform) CreateResource(ctx context.Context, r catalog.Resource) error {
	p.once.Do(func() {
		close(p.started)
		<-ctx.Done()
	})
	return p.memPlatform.CreateResource(ctx, r)
}

// A cycle arriving while another is applying cancels it: the in-flight
// apply finishes its current step, skips the stale remainder, and the
// new cycle then converges from the latest matrix.
func TestReconciler_Reconcile_SupersedesInFlightApply(t *testing.T) {
	platform := &blockingPlatform{
		memPlatform: newMemPlatform(),
		started:     make(chan struct{}),
	}

	reg := capability.NewRegistry()
	if err := capability.DeclareBuiltin(reg); err != nil {
		t.Fatalf("DeclareBuiltin() error = %v", err)
	}
	reg.Freeze()

	store := matrix.NewStore(&memPersister{})
	builder := catalog.NewBuilder(reg, store, platform)
	executor := execute.NewExecutor(platform, platform)
	disc := &stubDiscovery{targets: []target.Target{
		fan("fan-attic"), fan("fan-bath"), fan("fan-loft"),
	}}
	rec := New(disc, builder, executor, store)

	ctx := context.Background()
	for _, id := range []string{"fan-attic", "fan-bath", "fan-loft"} {
		if err := store.Enable(ctx, id, capability.FeatureAbsoluteHumidity); err != nil {
			t.Fatalf("Enable(%s) error = %v", id, err)
		}
	}

	firstDone := make(chan *execute.Report, 1)
	go func() {
		firstDone <- rec.Reconcile(ctx, TriggerManual)
	}()

	// The first cycle is now stalled inside its first create.
	<-platform.started

	second := rec.Reconcile(ctx, TriggerConfirm)
	first := <-firstDone

	if first.Status != execute.StatusCancelled {
		t.Errorf("superseded cycle Status = %v, want %v", first.Status, execute.StatusCancelled)
	}
	if first.Created != 1 {
		t.Errorf("superseded cycle Created = %d, want 1 (the in-flight step finishes)", first.Created)
	}
	if first.Skipped != 2 {
		t.Errorf("superseded cycle Skipped = %d, want 2 (stale steps never run)", first.Skipped)
	}

	if second.Status != execute.StatusCompleted {
		t.Errorf("superseding cycle Status = %v, want %v", second.Status, execute.StatusCompleted)
	}
	if second.Created != 2 {
		t.Errorf("superseding cycle Created = %d, want 2 (the remainder)", second.Created)
	}

	// Converged: one sensor per fan, nothing left to plan.
	p, _ := rec.Preview(ctx)
	if !p.Empty() {
		t.Errorf("plan after supersession not empty: create=%v remove=%v", p.Create, p.Remove)
	}
}
