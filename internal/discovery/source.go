package discovery

import (
	"context"

	"github.com/ventlogic/ventlogic-core/internal/target"
)

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Source is one target discovery strategy.
//
// ListTargets is best-effort and never errors: a strategy that cannot
// answer returns an empty list and the chain moves on. Partial-failure
// details stay inside the strategy, logged at their origin.
type Source interface {
	// Name identifies the strategy in logs.
	Name() string

	// ListTargets returns the targets this strategy currently knows.
	ListTargets(ctx context.Context) []target.Target
}
