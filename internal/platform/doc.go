// Package platform adapts the MQTT broker into the downstream system
// the reconciliation engine creates and removes resources against.
//
// Each managed resource is represented by a retained discovery document
// on ventlogic/resource/{kind}/{id}/config. Creating a resource
// publishes the document retained; removing it publishes a retained
// empty payload, which clears the topic. Existence probing reads a
// local cache of retained topics built during warm-up.
//
// The adapter satisfies both catalog.Probe and execute.Platform.
package platform
