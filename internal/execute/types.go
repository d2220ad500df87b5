package execute

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ventlogic/ventlogic-core/internal/capability"
	"github.com/ventlogic/ventlogic-core/internal/catalog"
)

// Platform is the downstream system resources are applied against.
type Platform interface {
	// CreateResource announces a resource downstream.
	CreateResource(ctx context.Context, r catalog.Resource) error

	// RemoveResource withdraws a resource downstream.
	RemoveResource(ctx context.Context, r catalog.Resource) error
}

// BatchPlatform is an optional upgrade for platforms whose resource
// kinds support bulk operations. The executor type-asserts for it and
// issues one call per kind-group instead of one per resource. The
// returned map carries per-resource errors keyed by resource ID; absent
// keys mean success.
type BatchPlatform interface {
	Platform

	CreateResources(ctx context.Context, resources []catalog.Resource) map[string]error
	RemoveResources(ctx context.Context, resources []catalog.Resource) map[string]error
}

// Action names what the executor was doing when a resource failed.
type Action string

const (
	ActionCreate Action = "create"
	ActionRemove Action = "remove"
)

// Status summarises an execution report.
type Status string

const (
	// StatusCompleted: every step succeeded.
	StatusCompleted Status = "completed"
	// StatusPartial: some steps failed, others succeeded.
	StatusPartial Status = "partial"
	// StatusCancelled: the context was cancelled before all steps ran.
	StatusCancelled Status = "cancelled"
)

// ResourceFailure records one failed step. Failures are surfaced as a
// non-blocking warning list; the matrix already reflects the unmet
// intent, so the next cycle retries naturally.
type ResourceFailure struct {
	ResourceID string                  `json:"resource_id"`
	Kind       capability.ResourceKind `json:"kind"`
	Action     Action                  `json:"action"`
	ErrorMsg   string                  `json:"error"`
}

// Report is the outcome of applying one plan. Apply always returns a
// report, never an error: partial failure is a report property.
type Report struct {
	ID          string            `json:"id"`
	Status      Status            `json:"status"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
	DurationMS  int64             `json:"duration_ms"`
	Created     int               `json:"created"`
	Removed     int               `json:"removed"`
	Failed      int               `json:"failed"`
	Skipped     int               `json:"skipped"`
	Failures    []ResourceFailure `json:"failures,omitempty"`
}

// GenerateID creates a new UUID for an execution report.
func GenerateID() string {
	return uuid.New().String()
}
