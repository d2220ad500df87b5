package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteCycleMetric records the outcome of one reconciliation cycle.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - trigger: What started the cycle ("startup", "confirm", "preview")
//   - create, remove, keep, inert, unknown: Plan partition sizes
func (c *Client) WriteCycleMetric(trigger string, create, remove, keep, inert, unknown int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"reconcile_cycle",
		map[string]string{
			"trigger": trigger,
		},
		map[string]interface{}{
			"create":  create,
			"remove":  remove,
			"keep":    keep,
			"inert":   inert,
			"unknown": unknown,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// Flush forces all buffered writes to be sent immediately.
//
// Useful before shutdown or in tests to ensure data is persisted.
func (c *Client) Flush() {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.Flush()
}

// WriteExecutionMetric records the outcome of one plan application.
//
// Parameters:
//   - executionID: Identifier of the execution report
//   - created, removed, failed, skipped: Outcome counts
//   - durationMS: Wall-clock time of the application in milliseconds
func (c *Client) WriteExecutionMetric(executionID string, created, removed, failed, skipped int, durationMS int64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"reconcile_execution",
		map[string]string{
			"execution_id": executionID,
		},
		map[string]interface{}{
			"created":     created,
			"removed":     removed,
			"failed":      failed,
			"skipped":     skipped,
			"duration_ms": durationMS,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
