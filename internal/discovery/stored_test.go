package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ventlogic/ventlogic-core/internal/target"
)

// fixedRepo serves a fixed list or a fixed error.
type fixedRepo struct {
	targets []target.Target
	listErr error
}

func (r *fixedRepo) Upsert(_ context.Context, _ target.Target) error { return nil }

func (r *fixedRepo) List(_ context.Context) ([]target.Target, error) {
	return r.targets, r.listErr
}

func (r *fixedRepo) GetByID(_ context.Context, _ string) (*target.Target, error) {
	return nil, target.ErrTargetNotFound
}

func (r *fixedRepo) Delete(_ context.Context, _ string) error { return nil }

func TestStored_ListTargets(t *testing.T) {
	repo := &fixedRepo{targets: fanTargets("fan-attic", "fan-cellar")}
	s := NewStored(repo, 0)

	if got := s.ListTargets(context.Background()); len(got) != 2 {
		t.Errorf("ListTargets() = %v, want 2 targets", got)
	}
}

func TestStored_ListTargets_FiltersStale(t *testing.T) {
	now := time.Now().UTC()
	repo := &fixedRepo{targets: []target.Target{
		{ID: "fan-fresh", Kind: target.KindFan, LastSeen: now.Add(-time.Hour)},
		{ID: "fan-stale", Kind: target.KindFan, LastSeen: now.Add(-48 * time.Hour)},
	}}
	s := NewStored(repo, 24*time.Hour)

	got := s.ListTargets(context.Background())
	if len(got) != 1 || got[0].ID != "fan-fresh" {
		t.Errorf("ListTargets() = %v, want only fan-fresh", got)
	}
}

func TestStored_ListTargets_RepoError(t *testing.T) {
	s := NewStored(&fixedRepo{listErr: errors.New("db locked")}, 0)

	// Never errors: the chain just moves to the next strategy.
	if got := s.ListTargets(context.Background()); len(got) != 0 {
		t.Errorf("ListTargets() = %v, want empty on repo error", got)
	}
}
