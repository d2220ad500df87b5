// Package influxdb provides InfluxDB connectivity for VentLogic Core.
//
// It wraps the official influxdb-client-go v2 library with VentLogic-specific
// patterns for connection management, telemetry writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series storage for reconciliation telemetry:
//   - Cycle metrics (plan partition sizes per reconciliation run)
//   - Execution metrics (created, removed, failed counts and duration)
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "ventlogic",
//	    Bucket: "telemetry",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteCycleMetric("startup", 3, 1, 12, 4, 0)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// Telemetry is strictly optional: when the integration is disabled or the
// server is unreachable, reconciliation proceeds without it.
package influxdb
