package matrix

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Store is the long-lived holder of the decision matrix. It is the only
// mutable shared state in the engine, so every mutation and its
// persistence call run under one mutex: a concurrent reader can never
// observe a matrix that has been mutated but not yet persisted. That
// ordering is what makes a crash mid-apply recoverable, because the
// persisted matrix always reflects confirmed operator intent.
//
// On persistence failure the in-memory mutation is rolled back, so
// memory and disk never diverge.
type Store struct {
	mu        sync.RWMutex
	matrix    *Matrix
	persister Persister
	logger    Logger
}

// NewStore creates a store with an empty matrix.
// Call Restore before the first catalog build.
func NewStore(persister Persister) *Store {
	return &Store{
		matrix:    New(),
		persister: persister,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the store and its matrix.
func (s *Store) SetLogger(logger Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
	s.matrix.SetLogger(logger)
}

// Restore loads the most recent snapshot into the matrix. Called once at
// process start. A missing snapshot means a fresh install and is not an
// error; a corrupted snapshot is logged and startup continues with
// whatever rows survived.
func (s *Store) Restore(ctx context.Context) error {
	blob, err := s.persister.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			s.logger.Info("no matrix snapshot found, starting empty")
			return nil
		}
		return fmt.Errorf("loading matrix snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.matrix.Restore(blob); err != nil {
		s.logger.Warn("matrix snapshot malformed, starting empty", "error", err)
		return nil
	}

	s.logger.Info("matrix restored", "targets", len(s.matrix.Targets()))
	return nil
}

// Enable marks a feature as wanted on a target and persists the change.
// Returns ErrPersistFailed (wrapped) if the snapshot cannot be saved; in
// that case the in-memory matrix is unchanged.
func (s *Store) Enable(ctx context.Context, targetID, featureID string) error {
	return s.mutate(ctx, func(m *Matrix) {
		m.Enable(targetID, featureID)
	})
}

// Disable marks a feature as unwanted on a target and persists the change.
func (s *Store) Disable(ctx context.Context, targetID, featureID string) error {
	return s.mutate(ctx, func(m *Matrix) {
		m.Disable(targetID, featureID)
	})
}

// mutate applies fn and persists the result under the store mutex,
// rolling the matrix back if persistence fails.
func (s *Store) mutate(ctx context.Context, fn func(*Matrix)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.matrix
	next := prev.Clone()
	fn(next)

	blob, err := next.Serialize()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	if err := s.persister.Save(ctx, blob); err != nil {
		s.logger.Error("matrix persistence failed, rolling back mutation", "error", err)
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}

	s.matrix = next
	return nil
}

// IsEnabled reports whether a feature is enabled on a target.
// Absent cells are false.
func (s *Store) IsEnabled(targetID, featureID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matrix.IsEnabled(targetID, featureID)
}

// EnabledPairs returns every enabled cell, sorted by target then feature.
func (s *Store) EnabledPairs() []Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matrix.EnabledPairs()
}

// Targets returns every target ID with at least one cell, dormant
// targets included.
func (s *Store) Targets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matrix.Targets()
}

// Row returns a copy of one target's cells.
func (s *Store) Row(targetID string) map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matrix.Row(targetID)
}

// View returns an independent copy of the whole matrix, for the API.
func (s *Store) View() map[string]map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view := make(map[string]map[string]bool, len(s.matrix.cells))
	for targetID := range s.matrix.cells {
		view[targetID] = s.matrix.Row(targetID)
	}
	return view
}
