// Package history packages plan executions into reversible batches and keeps
// a bounded undo/redo stack of them.
//
// The stack only stores and hands back batches. Applying a batch's inverse
// to a workspace is the caller's job.
package history

import (
	"slices"
	"sync"

	"github.com/meikuraledutech/graphplan"
)

// DefaultCapacity is the undo depth used when none is configured.
const DefaultCapacity = 100

// Record wraps the ordered deltas of one execution as a single batch.
func Record(deltas []graphplan.Delta) graphplan.HistoryBatch {
	return graphplan.HistoryBatch{
		Type:    graphplan.BatchType,
		Actions: slices.Clone(deltas),
	}
}

// Stack is a bounded undo/redo stack of batches. Entries below the cursor
// can be undone; entries at or above it can be redone.
//
// Safe for concurrent use.
type Stack struct {
	mu       sync.Mutex
	batches  []graphplan.HistoryBatch
	cursor   int
	capacity int
}

// NewStack creates a stack holding at most capacity batches. Non-positive
// capacity means DefaultCapacity.
func NewStack(capacity int) *Stack {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Stack{capacity: capacity}
}

// Push drops any redo entries, appends b and evicts the oldest entries
// beyond capacity.
func (s *Stack) Push(b graphplan.HistoryBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches = append(s.batches[:s.cursor], b)
	if over := len(s.batches) - s.capacity; over > 0 {
		s.batches = slices.Delete(s.batches, 0, over)
	}
	s.cursor = len(s.batches)
}

// Undo steps the cursor back and returns the batch to revert.
func (s *Stack) Undo() (graphplan.HistoryBatch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor == 0 {
		return graphplan.HistoryBatch{}, false
	}
	s.cursor--
	return s.batches[s.cursor], true
}

// Redo returns the batch to re-apply and steps the cursor forward.
func (s *Stack) Redo() (graphplan.HistoryBatch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor == len(s.batches) {
		return graphplan.HistoryBatch{}, false
	}
	b := s.batches[s.cursor]
	s.cursor++
	return b, true
}

// Revert moves the cursor back over an Undo or Redo whose batch the caller
// failed to apply.
func (s *Stack) Revert(undo bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if undo && s.cursor < len(s.batches) {
		s.cursor++
	} else if !undo && s.cursor > 0 {
		s.cursor--
	}
}

// Len is the number of stored batches, undone ones included.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

// CanUndo reports whether Undo would return a batch.
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor > 0
}

// CanRedo reports whether Redo would return a batch.
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor < len(s.batches)
}

// Batches returns the undoable batches, oldest first.
func (s *Stack) Batches() []graphplan.HistoryBatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.batches[:s.cursor])
}
