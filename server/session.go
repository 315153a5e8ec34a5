package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/meikuraledutech/graphplan"
	"github.com/meikuraledutech/graphplan/history"
	"github.com/meikuraledutech/graphplan/memory"
)

// session is one open workspace: its live graph and undo stack.
type session struct {
	// mu serialises executes, undos and redos. Previews and reads go
	// through the workspace's own lock and never wait on it.
	mu    sync.Mutex
	id    string
	ws    *memory.Workspace
	stack *history.Stack
	store graphplan.Store // nil when running without a database
}

// commitTarget returns the workspace a batch of the given kind should be
// committed into. With a store, batches are persisted before they become
// visible in memory.
func (s *session) commitTarget(ctx context.Context, kind graphplan.BatchKind) graphplan.Workspace {
	if s.store == nil {
		return s.ws
	}
	return &persistentWorkspace{ctx: ctx, id: s.id, kind: kind, mem: s.ws, store: s.store}
}

// persistentWorkspace writes each batch to the store and then to memory.
type persistentWorkspace struct {
	ctx   context.Context
	id    string
	kind  graphplan.BatchKind
	mem   *memory.Workspace
	store graphplan.Store
}

func (w *persistentWorkspace) Snapshot() *graphplan.Snapshot {
	return w.mem.Snapshot()
}

func (w *persistentWorkspace) Commit(batch graphplan.HistoryBatch) error {
	if err := w.store.SaveBatch(w.ctx, w.id, w.kind, batch); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	return w.mem.Commit(batch)
}

// sessions opens workspaces on first use and keeps them in memory.
type sessions struct {
	mu       sync.Mutex
	byID     map[string]*session
	store    graphplan.Store
	capacity int
	log      *slog.Logger
}

func newSessions(store graphplan.Store, capacity int, log *slog.Logger) *sessions {
	return &sessions{
		byID:     make(map[string]*session),
		store:    store,
		capacity: capacity,
		log:      log,
	}
}

func (ss *sessions) count() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.byID)
}

// get returns the session for id, loading it from the store (if any) the
// first time. An id the store has never seen starts as an empty graph.
// The undo stack is rebuilt by replaying the whole history log, so undone
// batches come back redoable rather than undoable.
func (ss *sessions) get(ctx context.Context, id string) (*session, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if s, ok := ss.byID[id]; ok {
		return s, nil
	}

	s := &session{
		id:    id,
		ws:    memory.New(),
		stack: history.NewStack(ss.capacity),
		store: ss.store,
	}
	if ss.store != nil {
		snap, err := ss.store.LoadSnapshot(ctx, id)
		switch {
		case errors.Is(err, graphplan.ErrWorkspaceNotFound):
		case err != nil:
			return nil, fmt.Errorf("load workspace %s: %w", id, err)
		default:
			s.ws = memory.FromSnapshot(snap)
			entries, err := ss.store.ListBatches(ctx, id, 0)
			if err != nil {
				return nil, fmt.Errorf("load history %s: %w", id, err)
			}
			replay(s.stack, entries)
		}
	}

	ss.byID[id] = s
	nodes, edges := s.ws.Counts()
	ss.log.Info("workspace opened",
		slog.String("workspace", id),
		slog.Int("nodes", nodes),
		slog.Int("edges", edges),
		slog.Int("history", s.stack.Len()))
	return s, nil
}

// replay applies the stack operations recorded in entries in order.
func replay(stack *history.Stack, entries []graphplan.StoredBatch) {
	for _, sb := range entries {
		switch sb.Kind {
		case graphplan.KindUndo:
			stack.Undo()
		case graphplan.KindRedo:
			stack.Redo()
		default:
			stack.Push(sb.Batch)
		}
	}
}
