package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meikuraledutech/graphplan"
)

// LoadSnapshot reads a workspace's current graph. View state is not
// persisted; the snapshot comes back with the default viewport.
// Returns ErrWorkspaceNotFound if no batch was ever saved for workspaceID.
func (s *PGStore) LoadSnapshot(ctx context.Context, workspaceID string) (*graphplan.Snapshot, error) {
	var id string
	err := s.db.QueryRow(ctx,
		`SELECT id FROM graph_workspaces WHERE id = $1`, workspaceID,
	).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return nil, graphplan.ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("graphplan: find workspace: %w", err)
	}

	nodes, err := s.listNodes(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	edges, err := s.listEdges(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	snap := graphplan.NewSnapshot()
	for _, n := range nodes {
		snap.Nodes[n.ID] = n
	}
	for _, e := range edges {
		snap.Edges[e.ID] = e
	}
	return snap, nil
}

// SaveBatch applies every delta of batch to the stored graph and appends the
// batch to the workspace history under kind, all in a single transaction. The
// workspace is created on first save.
func (s *PGStore) SaveBatch(ctx context.Context, workspaceID string, kind graphplan.BatchKind, batch graphplan.HistoryBatch) error {
	raw, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("graphplan: encode batch: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("graphplan: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO graph_workspaces (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, workspaceID,
	); err != nil {
		return fmt.Errorf("graphplan: ensure workspace: %w", err)
	}

	for i, d := range batch.Actions {
		if err := applyDelta(ctx, tx, workspaceID, d); err != nil {
			return fmt.Errorf("graphplan: action %d (%s): %w", i, d.DeltaType(), err)
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO graph_history (workspace_id, kind, batch) VALUES ($1, $2, $3)`,
		workspaceID, string(kind), string(raw),
	); err != nil {
		return fmt.Errorf("graphplan: insert history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("graphplan: commit: %w", err)
	}
	return nil
}

// ListBatches returns up to limit of the most recent batches of a
// workspace, oldest first. A limit of zero or less returns all of them.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListBatches(ctx context.Context, workspaceID string, limit int) ([]graphplan.StoredBatch, error) {
	query := `SELECT kind, batch FROM (
		SELECT seq, kind, batch FROM graph_history WHERE workspace_id = $1 ORDER BY seq DESC LIMIT $2
	) recent ORDER BY seq`
	var lim any = limit
	if limit <= 0 {
		lim = nil // LIMIT NULL means no limit
	}

	rows, err := s.db.Query(ctx, query, workspaceID, lim)
	if err != nil {
		return nil, fmt.Errorf("graphplan: list history: %w", err)
	}
	defer rows.Close()

	batches := []graphplan.StoredBatch{}
	for rows.Next() {
		var (
			kind string
			raw  []byte
		)
		if err := rows.Scan(&kind, &raw); err != nil {
			return nil, fmt.Errorf("graphplan: scan history: %w", err)
		}
		sb := graphplan.StoredBatch{Kind: graphplan.BatchKind(kind)}
		if err := json.Unmarshal(raw, &sb.Batch); err != nil {
			return nil, err
		}
		batches = append(batches, sb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("graphplan: rows history: %w", err)
	}

	return batches, nil
}

// applyDelta translates one delta into SQL on q.
func applyDelta(ctx context.Context, q execer, wsID string, d graphplan.Delta) error {
	switch d := d.(type) {
	case graphplan.NodeAdded:
		return insertNode(ctx, q, wsID, d.Node)
	case graphplan.NodeDeleted:
		return deleteNode(ctx, q, wsID, d.Node.ID)
	case graphplan.NodeUpdated:
		return setNodeData(ctx, q, wsID, d.ID, d.After)
	case graphplan.NodeMoved:
		return setNodePosition(ctx, q, wsID, d.ID, d.To)
	case graphplan.EdgeAdded:
		return insertEdge(ctx, q, wsID, d.Edge)
	case graphplan.EdgeDeleted:
		return deleteEdge(ctx, q, wsID, d.Edge.ID)
	case graphplan.EdgeUpdated:
		return setEdgeData(ctx, q, wsID, d.ID, d.After)
	}
	return fmt.Errorf("graphplan: unsupported delta %T", d)
}
