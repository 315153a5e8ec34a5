package graphplan

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnknownNodeType   = errors.New("graphplan: unknown node type")
	ErrAnchorNotFound    = errors.New("graphplan: anchor not found")
	ErrNodeNotFound      = errors.New("graphplan: node not found")
	ErrEdgeNotFound      = errors.New("graphplan: edge not found")
	ErrEndpointNotFound  = errors.New("graphplan: edge endpoint not found")
	ErrNodeInUse         = errors.New("graphplan: node still has edges")
	ErrDuplicateID       = errors.New("graphplan: id already in use")
	ErrDependencyCycle   = errors.New("graphplan: dependency cycle")
	ErrIDExhausted       = errors.New("graphplan: id generator kept returning ids in use")
	ErrWorkspaceNotFound = errors.New("graphplan: workspace not found")
)

// ValidationError is the hard failure raised when a plan cannot be honored
// at all. Nothing is committed when it occurs.
type ValidationError struct {
	OpIndex int
	TempID  string
	Type    NodeType
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("graphplan: op %d (temp_id %q): %v", e.OpIndex, e.TempID, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Workspace is the mutable graph a plan commits into. Commit must apply the
// whole batch in one state transition or not at all.
type Workspace interface {
	Snapshot() *Snapshot
	Commit(batch HistoryBatch) error
}

// Recorder receives one HistoryBatch per successful execution.
type Recorder interface {
	Push(batch HistoryBatch)
}

// BatchKind says why a persisted batch was applied.
type BatchKind string

const (
	KindExecute BatchKind = "execute"
	KindUndo    BatchKind = "undo"
	KindRedo    BatchKind = "redo"
)

// StoredBatch is one entry of a workspace's history log. For KindUndo the
// batch is the inverse that was applied, not the batch being undone.
type StoredBatch struct {
	Kind  BatchKind    `json:"kind"`
	Batch HistoryBatch `json:"batch"`
}

// Store persists workspace graphs and their history durably.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Workspaces
	LoadSnapshot(ctx context.Context, workspaceID string) (*Snapshot, error)
	SaveBatch(ctx context.Context, workspaceID string, kind BatchKind, batch HistoryBatch) error
	ListBatches(ctx context.Context, workspaceID string, limit int) ([]StoredBatch, error)
}
