package discovery

import (
	"context"
	"time"

	"github.com/ventlogic/ventlogic-core/internal/target"
)

// Stored discovers targets from the last-seen store. It is the first
// fallback: when no live source answers (broker down, retained presence
// not yet replayed), the population recorded by previous successful
// runs keeps reconciliation going.
type Stored struct {
	repo   target.Repository
	maxAge time.Duration
	logger Logger
}

// NewStored creates the stored-population strategy. maxAge bounds how
// stale a record may be before it is ignored; zero accepts any age.
func NewStored(repo target.Repository, maxAge time.Duration) *Stored {
	return &Stored{
		repo:   repo,
		maxAge: maxAge,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the strategy.
func (s *Stored) SetLogger(logger Logger) {
	s.logger = logger
}

// Name identifies the strategy in logs.
func (s *Stored) Name() string {
	return "stored"
}

// ListTargets returns the stored population, with stale records
// filtered out. Store failures are logged and yield an empty list.
func (s *Stored) ListTargets(ctx context.Context) []target.Target {
	stored, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Warn("failed to list stored targets", "error", err)
		return nil
	}

	if s.maxAge <= 0 {
		return stored
	}

	cutoff := time.Now().Add(-s.maxAge)
	fresh := make([]target.Target, 0, len(stored))
	for _, t := range stored {
		if t.LastSeen.Before(cutoff) {
			s.logger.Debug("ignoring stale stored target", "target", t.ID, "last_seen", t.LastSeen)
			continue
		}
		fresh = append(fresh, t)
	}
	return fresh
}
