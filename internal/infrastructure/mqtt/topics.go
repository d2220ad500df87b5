package mqtt

import "fmt"

// Topic prefixes for the VentLogic MQTT namespace.
//
// Presence topics carry retained per-unit announcements published by the
// ventilation gateway. Resource topics carry retained discovery documents
// describing the managed resources VentLogic has materialised downstream.
const (
	// TopicPrefix is the base for all VentLogic topics.
	TopicPrefix = "ventlogic"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "ventlogic/system"
)

// Topics provides builders for VentLogic MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	cfgTopic := topics.ResourceConfig("sensor", "sensor.abs_humidity.fan-attic")
//	// Returns: "ventlogic/resource/sensor/sensor.abs_humidity.fan-attic/config"
type Topics struct{}

// SystemStatus returns the topic for Core online/offline status.
//
// Example: ventlogic/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// Presence returns the topic carrying the retained announcement for one target.
//
// Example: ventlogic/presence/fan-attic
func (Topics) Presence(targetID string) string {
	return fmt.Sprintf("%s/presence/%s", TopicPrefix, targetID)
}

// PresenceWildcard returns the subscription pattern matching all target
// announcements.
//
// Example: ventlogic/presence/+
func (Topics) PresenceWildcard() string {
	return TopicPrefix + "/presence/+"
}

// ResourceConfig returns the topic holding the retained discovery document
// for one managed resource.
//
// Example: ventlogic/resource/sensor/sensor.abs_humidity.fan-attic/config
func (Topics) ResourceConfig(kind, resourceID string) string {
	return fmt.Sprintf("%s/resource/%s/%s/config", TopicPrefix, kind, resourceID)
}

// ResourceConfigWildcard returns the subscription pattern matching all
// resource discovery documents.
//
// Example: ventlogic/resource/+/+/config
func (Topics) ResourceConfigWildcard() string {
	return TopicPrefix + "/resource/+/+/config"
}
