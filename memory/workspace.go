// Package memory is an in-process workspace store: the mutable graph that
// plan executions commit into.
package memory

import (
	"sync"

	"github.com/meikuraledutech/graphplan"
)

// Workspace holds one graph and its view state.
//
// Commit is all-or-nothing: the batch is applied to a copy and swapped in
// only if every delta applies. Snapshot readers never observe a partially
// applied batch.
type Workspace struct {
	mu   sync.RWMutex
	snap *graphplan.Snapshot
}

// New returns an empty workspace.
func New() *Workspace {
	return &Workspace{snap: graphplan.NewSnapshot()}
}

// FromSnapshot returns a workspace seeded with a copy of s.
func FromSnapshot(s *graphplan.Snapshot) *Workspace {
	if s == nil {
		return New()
	}
	c := s.Clone()
	if c.Nodes == nil {
		c.Nodes = make(map[string]*graphplan.Node)
	}
	if c.Edges == nil {
		c.Edges = make(map[string]*graphplan.Edge)
	}
	return &Workspace{snap: c}
}

// Snapshot returns a deep copy of the current state.
func (w *Workspace) Snapshot() *graphplan.Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snap.Clone()
}

// Commit applies batch in one state transition.
func (w *Workspace) Commit(batch graphplan.HistoryBatch) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := w.snap.Clone()
	if err := graphplan.ApplyBatch(next, batch); err != nil {
		return err
	}
	w.snap = next
	return nil
}

// SetView updates the viewport and its on-screen size.
func (w *Workspace) SetView(vp graphplan.Viewport, bounds graphplan.Bounds) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.snap.Viewport = vp
	w.snap.Bounds = bounds
}

// SetSelection replaces the selection. Precomputed selection hints are
// cleared since they described the old selection.
func (w *Workspace) SetSelection(ids []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.snap.Selection = append([]string(nil), ids...)
	w.snap.SelectionCenter = nil
	w.snap.SelectionBounds = nil
}

// Counts returns the number of nodes and edges.
func (w *Workspace) Counts() (nodes, edges int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.snap.Nodes), len(w.snap.Edges)
}
