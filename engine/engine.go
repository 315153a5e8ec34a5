// Package engine executes and previews mutation plans against a workspace
// graph.
//
// Both entry points share one pipeline: ops are topologically sorted by
// their position dependencies, node creations run first (pass 1) so later
// ops can reference them by tempId, and every other op runs second (pass 2)
// against a working copy of the graph. Execute commits the resulting deltas
// as one HistoryBatch; Preview renders the same deltas as ghost fragments
// and touches nothing.
//
// An Engine holds only configuration. It does no locking: callers must not
// run two Execute calls against the same workspace concurrently. Preview is
// free of side effects and may run at any time.
package engine

import (
	"log/slog"

	"github.com/meikuraledutech/graphplan"
	"github.com/meikuraledutech/graphplan/logger"
)

const (
	DefaultSpacing     = 50.0
	DefaultGridSpacing = 250.0
)

// Engine runs mutation plans.
type Engine struct {
	log         *slog.Logger
	newID       graphplan.IDGenerator
	spacing     float64
	gridSpacing float64
	seed        uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator replaces the UUID generator for durable ids.
func WithIDGenerator(gen graphplan.IDGenerator) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// WithSpacing sets the gap used by BelowSelection/Cluster fallbacks and the
// column pitch used by BelowSelection and Grid without explicit spacing.
func WithSpacing(spacing, gridSpacing float64) Option {
	return func(e *Engine) {
		if spacing > 0 {
			e.spacing = spacing
		}
		if gridSpacing > 0 {
			e.gridSpacing = gridSpacing
		}
	}
}

// WithSeed seeds the Cluster scatter. The same seed and plan always scatter
// the same way.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.seed = seed }
}

// New creates an Engine. A nil logger discards output.
func New(log *slog.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logger.Discard()
	}
	e := &Engine{
		log:         log.With(logger.Scope("engine")),
		newID:       graphplan.NewUUID,
		spacing:     DefaultSpacing,
		gridSpacing: DefaultGridSpacing,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
