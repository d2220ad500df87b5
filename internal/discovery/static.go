package discovery

import (
	"context"
	"time"

	"github.com/ventlogic/ventlogic-core/internal/target"
)

// Static discovers targets declared in the configuration file. It is
// the last fallback, for installations where units sit behind a gateway
// that never announces presence.
type Static struct {
	targets []target.Target
}

// NewStatic creates the static strategy from configured (id, kind)
// pairs. Entries with an empty ID or kind are dropped.
func NewStatic(entries []target.Target) *Static {
	kept := make([]target.Target, 0, len(entries))
	for _, t := range entries {
		if t.ID == "" || t.Kind == "" {
			continue
		}
		t.Online = true
		kept = append(kept, t)
	}
	return &Static{targets: kept}
}

// Name identifies the strategy in logs.
func (s *Static) Name() string {
	return "static"
}

// ListTargets returns the configured population with a fresh LastSeen.
func (s *Static) ListTargets(_ context.Context) []target.Target {
	now := time.Now().UTC()
	out := make([]target.Target, len(s.targets))
	copy(out, s.targets)
	for i := range out {
		out[i].LastSeen = now
	}
	return out
}
