package postgres

import (
	"context"
	"fmt"

	"github.com/meikuraledutech/graphplan"
)

// insertEdge stores an edge. Both endpoints must already exist in the
// workspace; the foreign keys reject anything else.
func insertEdge(ctx context.Context, q execer, wsID string, e graphplan.Edge) error {
	_, err := q.Exec(ctx,
		`INSERT INTO graph_edges (workspace_id, id, source_id, target_id, source_handle, target_handle, data)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		wsID, e.ID, e.Source, e.Target, e.SourceHandle, e.TargetHandle, e.Data,
	)
	if err != nil {
		return fmt.Errorf("graphplan: insert edge %s: %w", e.ID, err)
	}
	return nil
}

// deleteEdge removes an edge. Returns ErrEdgeNotFound if it doesn't exist.
func deleteEdge(ctx context.Context, q execer, wsID, edgeID string) error {
	ct, err := q.Exec(ctx, `DELETE FROM graph_edges WHERE workspace_id = $1 AND id = $2`, wsID, edgeID)
	if err != nil {
		return fmt.Errorf("graphplan: delete edge %s: %w", edgeID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", graphplan.ErrEdgeNotFound, edgeID)
	}
	return nil
}

// setEdgeData replaces an edge's payload.
func setEdgeData(ctx context.Context, q execer, wsID, edgeID string, data graphplan.EdgeData) error {
	ct, err := q.Exec(ctx,
		`UPDATE graph_edges SET data = $1 WHERE workspace_id = $2 AND id = $3`,
		data, wsID, edgeID,
	)
	if err != nil {
		return fmt.Errorf("graphplan: update edge %s: %w", edgeID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", graphplan.ErrEdgeNotFound, edgeID)
	}
	return nil
}

// listEdges returns all edges of a workspace, ordered by created_at.
func (s *PGStore) listEdges(ctx context.Context, wsID string) ([]*graphplan.Edge, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, source_id, target_id, source_handle, target_handle, data FROM graph_edges
		 WHERE workspace_id = $1 ORDER BY created_at, id`, wsID)
	if err != nil {
		return nil, fmt.Errorf("graphplan: list edges: %w", err)
	}
	defer rows.Close()

	edges := []*graphplan.Edge{}
	for rows.Next() {
		var e graphplan.Edge
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &e.SourceHandle, &e.TargetHandle, &e.Data); err != nil {
			return nil, fmt.Errorf("graphplan: scan edge: %w", err)
		}
		edges = append(edges, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("graphplan: rows edges: %w", err)
	}

	return edges, nil
}
