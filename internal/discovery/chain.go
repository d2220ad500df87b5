package discovery

import (
	"context"
	"time"

	"github.com/ventlogic/ventlogic-core/internal/target"
)

// Chain tries discovery strategies in order until one returns a
// non-empty result. It is the single TargetDiscovery surface the
// engine sees; the fallback structure stays internal.
//
// Each strategy runs under a bounded timeout so a stuck source delays a
// reconciliation pass by at most that bound. If every strategy comes up
// empty the chain returns an empty list, never an error.
type Chain struct {
	sources []Source
	timeout time.Duration
	repo    target.Repository
	logger  Logger
}

// NewChain creates a discovery chain. Sources are tried in the given
// order; by convention live sources come before fallbacks.
func NewChain(sources ...Source) *Chain {
	return &Chain{
		sources: sources,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the chain.
func (c *Chain) SetLogger(logger Logger) {
	c.logger = logger
}

// SetTimeout bounds each strategy's ListTargets call.
// Zero disables the per-source bound.
func (c *Chain) SetTimeout(d time.Duration) {
	c.timeout = d
}

// SetRecorder makes the chain persist successful results into the
// last-seen store, feeding the stored fallback for later runs.
func (c *Chain) SetRecorder(repo target.Repository) {
	c.repo = repo
}

// ListTargets returns the best available target population.
func (c *Chain) ListTargets(ctx context.Context) []target.Target {
	for _, src := range c.sources {
		targets := c.listFrom(ctx, src)
		if len(targets) == 0 {
			c.logger.Debug("discovery source empty, trying next", "source", src.Name())
			continue
		}

		c.logger.Info("targets discovered",
			"source", src.Name(), "count", len(targets))
		c.record(ctx, targets)
		return targets
	}

	c.logger.Warn("no discovery source returned targets")
	return nil
}

func (c *Chain) listFrom(ctx context.Context, src Source) []target.Target {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return src.ListTargets(ctx)
}

// record upserts discovered targets into the last-seen store.
// Best-effort: a store failure never disturbs the discovery result.
func (c *Chain) record(ctx context.Context, targets []target.Target) {
	if c.repo == nil {
		return
	}
	for _, t := range targets {
		if err := c.repo.Upsert(ctx, t); err != nil {
			c.logger.Warn("failed to record target", "target", t.ID, "error", err)
		}
	}
}
