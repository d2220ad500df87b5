package discovery

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ventlogic/ventlogic-core/internal/infrastructure/mqtt"
	"github.com/ventlogic/ventlogic-core/internal/target"
)

// Client is the slice of the MQTT client presence discovery needs.
// Satisfied by *mqtt.Client.
type Client interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
}

// presenceAnnouncement is the retained payload the ventilation gateway
// publishes per unit on ventlogic/presence/{id}.
type presenceAnnouncement struct {
	Kind   string `json:"kind"`
	Online bool   `json:"online"`
}

// MQTTPresence discovers targets from retained presence announcements.
// It is the primary, live strategy: the gateway publishes one retained
// document per unit, so a fresh subscription replays the full
// population immediately.
type MQTTPresence struct {
	client Client
	topics mqtt.Topics
	logger Logger

	mu      sync.RWMutex
	seen    map[string]target.Target
	started bool
}

// NewMQTTPresence creates the presence strategy. Call Start once the
// MQTT client is connected.
func NewMQTTPresence(client Client) *MQTTPresence {
	return &MQTTPresence{
		client: client,
		logger: noopLogger{},
		seen:   make(map[string]target.Target),
	}
}

// SetLogger sets the logger for the strategy.
func (s *MQTTPresence) SetLogger(logger Logger) {
	s.logger = logger
}

// Start subscribes to the presence namespace. The subscription is
// restored automatically on reconnect by the MQTT client.
func (s *MQTTPresence) Start() error {
	if err := s.client.Subscribe(s.topics.PresenceWildcard(), 1, s.handleAnnouncement); err != nil {
		return err
	}

	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	return nil
}

// Name identifies the strategy in logs.
func (s *MQTTPresence) Name() string {
	return "mqtt-presence"
}

// ListTargets returns the units currently announced. Empty before Start
// or while disconnected, so the chain falls through to the next source.
func (s *MQTTPresence) ListTargets(_ context.Context) []target.Target {
	if !s.client.IsConnected() {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil
	}

	targets := make([]target.Target, 0, len(s.seen))
	for _, t := range s.seen {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].ID < targets[j].ID })
	return targets
}

// handleAnnouncement updates the presence cache. An empty retained
// payload withdraws the unit.
func (s *MQTTPresence) handleAnnouncement(topic string, payload []byte) error {
	id := targetIDFromTopic(topic)
	if id == "" {
		s.logger.Warn("presence announcement on unexpected topic", "topic", topic)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(payload) == 0 {
		delete(s.seen, id)
		s.logger.Debug("target withdrawn", "target", id)
		return nil
	}

	var ann presenceAnnouncement
	if err := json.Unmarshal(payload, &ann); err != nil {
		s.logger.Warn("malformed presence announcement", "target", id, "error", err)
		return nil
	}
	if ann.Kind == "" {
		s.logger.Warn("presence announcement missing kind", "target", id)
		return nil
	}

	s.seen[id] = target.Target{
		ID:       id,
		Kind:     target.Kind(ann.Kind),
		Online:   ann.Online,
		LastSeen: time.Now().UTC(),
	}
	return nil
}

// targetIDFromTopic extracts the unit ID from ventlogic/presence/{id}.
func targetIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != mqtt.TopicPrefix || parts[1] != "presence" {
		return ""
	}
	return parts[2]
}
