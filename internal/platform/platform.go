package platform

import (
	"context"
	"sync"
	"time"

	"github.com/ventlogic/ventlogic-core/internal/catalog"
	"github.com/ventlogic/ventlogic-core/internal/infrastructure/mqtt"
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

// Client is the slice of the MQTT client the platform needs.
// Satisfied by *mqtt.Client.
type Client interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	PublishRetained(topic string, payload []byte) error
	IsConnected() bool
}

// defaultWarmupWait is how long WarmUp waits for the broker to replay
// retained discovery documents after subscribing.
const defaultWarmupWait = 2 * time.Second

// MQTT materialises managed resources as retained discovery documents
// on the broker and answers existence probes from a retained-topic
// cache.
//
// A resource exists when its config topic carries a retained document;
// removal clears the retained payload. The cache is populated by a
// warm-up subscription that replays all retained documents, and kept
// current by the broker echoing this process's own publishes.
//
// Probe answers are only trusted while connected and after warm-up;
// otherwise Exists returns Unknown and the reconciliation engine's
// fail-closed rule keeps the affected resources out of the plan.
type MQTT struct {
	client     Client
	topics     mqtt.Topics
	warmupWait time.Duration
	logger     Logger

	mu       sync.RWMutex
	existing map[string]bool // keyed by config topic
	warmed   bool
}

// NewMQTT creates the platform adapter. Call WarmUp before the first
// catalog build.
func NewMQTT(client Client) *MQTT {
	return &MQTT{
		client:     client,
		warmupWait: defaultWarmupWait,
		logger:     noopLogger{},
		existing:   make(map[string]bool),
	}
}

// SetLogger sets the logger for the platform.
func (p *MQTT) SetLogger(logger Logger) {
	p.logger = logger
}

// SetWarmupWait overrides the retained-replay wait. Used by tests.
func (p *MQTT) SetWarmupWait(d time.Duration) {
	p.warmupWait = d
}

// WarmUp subscribes to the resource document namespace and waits for
// the broker to replay retained documents, then marks probe answers
// trustworthy. Returns the subscription error if one occurs; the
// platform then stays cold and every probe answers Unknown.
func (p *MQTT) WarmUp(ctx context.Context) error {
	if err := p.client.Subscribe(p.topics.ResourceConfigWildcard(), 1, p.handleDocument); err != nil {
		return err
	}

	select {
	case <-time.After(p.warmupWait):
	case <-ctx.Done():
		return ctx.Err()
	}

	p.mu.Lock()
	p.warmed = true
	count := len(p.existing)
	p.mu.Unlock()

	p.logger.Info("platform cache warmed", "resources", count)
	return nil
}

// handleDocument maintains the retained-topic cache. An empty payload
// is a retained clear: the resource is gone.
func (p *MQTT) handleDocument(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(payload) == 0 {
		delete(p.existing, topic)
	} else {
		p.existing[topic] = true
	}
	return nil
}

// Exists answers the existence probe from the retained cache.
func (p *MQTT) Exists(_ context.Context, r catalog.Resource) catalog.Existence {
	if !p.client.IsConnected() {
		return catalog.ExistenceUnknown
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.warmed {
		return catalog.ExistenceUnknown
	}
	if p.existing[p.topicFor(r)] {
		return catalog.ExistencePresent
	}
	return catalog.ExistenceAbsent
}

// CreateResource publishes the retained discovery document.
func (p *MQTT) CreateResource(_ context.Context, r catalog.Resource) error {
	doc, err := buildDocument(r)
	if err != nil {
		return err
	}

	topic := p.topicFor(r)
	if err := p.client.PublishRetained(topic, doc); err != nil {
		return err
	}

	// Record locally so a probe between the publish and the broker echo
	// does not report the resource absent.
	p.mu.Lock()
	p.existing[topic] = true
	p.mu.Unlock()

	p.logger.Debug("resource document published", "resource", r.ID)
	return nil
}

// RemoveResource clears the retained discovery document.
func (p *MQTT) RemoveResource(_ context.Context, r catalog.Resource) error {
	topic := p.topicFor(r)
	if err := p.client.PublishRetained(topic, nil); err != nil {
		return err
	}

	p.mu.Lock()
	delete(p.existing, topic)
	p.mu.Unlock()

	p.logger.Debug("resource document cleared", "resource", r.ID)
	return nil
}

func (p *MQTT) topicFor(r catalog.Resource) string {
	return p.topics.ResourceConfig(string(r.Kind), r.ID)
}
