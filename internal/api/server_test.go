package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ventlogic/ventlogic-core/internal/capability"
	"github.com/ventlogic/ventlogic-core/internal/catalog"
	"github.com/ventlogic/ventlogic-core/internal/engine"
	"github.com/ventlogic/ventlogic-core/internal/execute"
	"github.com/ventlogic/ventlogic-core/internal/infrastructure/config"
	"github.com/ventlogic/ventlogic-core/internal/infrastructure/logging"
	"github.com/ventlogic/ventlogic-core/internal/matrix"
	"github.com/ventlogic/ventlogic-core/internal/target"
)

// memPersister keeps the latest matrix snapshot in memory.
type memPersister struct {
	mu   sync.Mutex
	blob []byte
}

func (p *memPersister) Save(_ context.Context, blob []byte) error {
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
	return append([]byte(nil), p.blob...), nil
}

// memPlatform is an in-memory downstream: a set of resource IDs that
// serves as both the apply target and the existence probe.
type memPlatform struct {
	mu       sync.Mutex
	existing map[string]bool
}

func newMemPlatform() *memPlatform {
	return &memPlatform{existing: make(map[string]bool)}
}

func (p *memPlatform) Exists(_ context.Context, r catalog.Resource) catalog.Existence {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.existing[r.ID] {
		return catalog.ExistencePresent
	}
	return catalog.ExistenceAbsent
}

func (p *memPlatform) CreateResource(_ context.Context, r catalog.Resource) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.existing[r.ID] = true
	return nil
}

func (p *memPlatform) RemoveResource(_ context.Context, r catalog.Resource) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.existing, r.ID)
	return nil
}

// stubDiscovery returns a fixed target population.
type stubDiscovery struct {
	targets []target.Target
}

func (d *stubDiscovery) ListTargets(context.Context) []target.Target {
	return d.targets
}

// testServer creates a Server backed by a fully in-memory engine rig
// with one fan and one CO2 remote discovered.
func testServer(t *testing.T) (*Server, *memPlatform) {
	t.Helper()

	registry := capability.NewRegistry()
	if err := capability.DeclareBuiltin(registry); err != nil {
		t.Fatalf("DeclareBuiltin: %v", err)
	}
	registry.Freeze()

	store := matrix.NewStore(&memPersister{})
	platform := newMemPlatform()
	disc := &stubDiscovery{targets: []target.Target{
		{ID: "fan-attic", Kind: target.KindFan, Online: true, LastSeen: time.Now()},
		{ID: "co2-kitchen", Kind: target.KindCO2Remote, Online: true, LastSeen: time.Now()},
	}}

	builder := catalog.NewBuilder(registry, store, platform)
	executor := execute.NewExecutor(platform, platform)
	reconciler := engine.New(disc, builder, executor, store)

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		Logger:       log,
		Reconciler:   reconciler,
		Store:        store,
		Registry:     registry,
		Discovery:    disc,
		SummaryLimit: 10,
		Version:      "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	return srv, platform
}

// ─── Health Endpoint Tests ─────────────────────────────────────────

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["version"] != "test" {
		t.Errorf("version = %v, want test", resp["version"])
	}
}

// ─── Middleware Tests ──────────────────────────────────────────────

func TestRequestID_Generated(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}
}

func TestRequestID_PreservesClient(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want %q", got, "client-123")
	}
}

func TestCORS_Preflight(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q, want %q", got, "http://localhost:3000")
	}
}

// ─── Target and Feature Listing Tests ──────────────────────────────

func TestListTargets(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/targets", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if int(resp["count"].(float64)) != 2 {
		t.Errorf("count = %v, want 2", resp["count"])
	}
}

func TestListFeatures(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/features", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Features []capability.Descriptor `json:"features"`
		Count    int                     `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count == 0 {
		t.Fatal("expected builtin features, got none")
	}
	found := false
	for _, f := range resp.Features {
		if f.ID == capability.FeatureAbsoluteHumidity {
			found = true
		}
	}
	if !found {
		t.Errorf("features missing %q", capability.FeatureAbsoluteHumidity)
	}
}

// ─── Matrix Tests ──────────────────────────────────────────────────

func TestSetMatrixCell_ThenGetMatrix(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	body := strings.NewReader(`{"enabled": true}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/matrix/fan-attic/"+capability.FeatureAbsoluteHumidity, body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("set cell status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/matrix", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp struct {
		Matrix map[string]map[string]bool `json:"matrix"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Matrix["fan-attic"][capability.FeatureAbsoluteHumidity] {
		t.Error("expected fan-attic/absolute_humidity to be enabled in matrix view")
	}
}

func TestSetMatrixCell_UnknownFeature(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	body := strings.NewReader(`{"enabled": true}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/matrix/fan-attic/no_such_feature", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestSetMatrixCell_InvalidBody(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	body := strings.NewReader(`{not json`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/matrix/fan-attic/"+capability.FeatureAbsoluteHumidity, body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// ─── Reconcile Tests ───────────────────────────────────────────────

func TestPreview_NoSideEffects(t *testing.T) {
	srv, platform := testServer(t)
	router := srv.buildRouter()

	body := strings.NewReader(`{"enabled": true}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/matrix/fan-attic/"+capability.FeatureAbsoluteHumidity, body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("set cell status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/reconcile/preview", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("preview status = %d; body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Summary struct {
			ToCreate []string `json:"to_create"`
		} `json:"summary"`
		Rendered string `json:"rendered"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Summary.ToCreate) != 1 || resp.Summary.ToCreate[0] != "sensor.abs_humidity.fan-attic" {
		t.Errorf("to_create = %v, want [sensor.abs_humidity.fan-attic]", resp.Summary.ToCreate)
	}
	if resp.Rendered == "" {
		t.Error("expected non-empty rendered summary")
	}

	platform.mu.Lock()
	defer platform.mu.Unlock()
	if len(platform.existing) != 0 {
		t.Errorf("preview touched the platform: %v", platform.existing)
	}
}

func TestApply_CreatesResources(t *testing.T) {
	srv, platform := testServer(t)
	router := srv.buildRouter()

	body := strings.NewReader(`{"enabled": true}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/matrix/fan-attic/"+capability.FeatureAbsoluteHumidity, body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("set cell status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/reconcile/apply", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("apply status = %d; body: %s", w.Code, w.Body.String())
	}

	var report execute.Report
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if report.Created != 1 {
		t.Errorf("created = %d, want 1", report.Created)
	}
	if report.Status != execute.StatusCompleted {
		t.Errorf("status = %q, want %q", report.Status, execute.StatusCompleted)
	}

	platform.mu.Lock()
	defer platform.mu.Unlock()
	if !platform.existing["sensor.abs_humidity.fan-attic"] {
		t.Error("expected sensor.abs_humidity.fan-attic on the platform after apply")
	}
}

func TestNotFound(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
