// Package mqtt provides MQTT connectivity for VentLogic Core.
//
// This package wraps eclipse/paho.mqtt.golang with:
//   - Connection lifecycle management (connect, reconnect, graceful close)
//   - Last Will and Testament for offline detection
//   - Subscription tracking with automatic restoration on reconnect
//   - Panic recovery around message handlers
//   - Topic builders for the VentLogic namespace
//
// # Topic Hierarchy
//
//	ventlogic/system/status                          — Core online/offline (retained)
//	ventlogic/presence/{target_id}                   — target announcements (retained)
//	ventlogic/resource/{kind}/{resource_id}/config   — resource discovery documents (retained)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{}
//	client.Subscribe(topics.PresenceWildcard(), 1, func(topic string, payload []byte) error {
//	    // handle announcement
//	    return nil
//	})
//
// # Thread Safety
//
// All client methods are safe for concurrent use.
package mqtt
