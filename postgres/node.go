package postgres

import (
	"context"
	"fmt"

	"github.com/meikuraledutech/graphplan"
)

// insertNode stores a node in a workspace.
func insertNode(ctx context.Context, q execer, wsID string, n graphplan.Node) error {
	data := n.Data
	if data == nil {
		data = map[string]any{}
	}
	_, err := q.Exec(ctx,
		`INSERT INTO graph_nodes (workspace_id, id, type, x, y, width, height, data)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		wsID, n.ID, string(n.Type), n.Position.X, n.Position.Y, n.Width, n.Height, data,
	)
	if err != nil {
		return fmt.Errorf("graphplan: insert node %s: %w", n.ID, err)
	}
	return nil
}

// deleteNode removes a node. Returns ErrNodeNotFound if it doesn't exist.
func deleteNode(ctx context.Context, q execer, wsID, nodeID string) error {
	ct, err := q.Exec(ctx, `DELETE FROM graph_nodes WHERE workspace_id = $1 AND id = $2`, wsID, nodeID)
	if err != nil {
		return fmt.Errorf("graphplan: delete node %s: %w", nodeID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", graphplan.ErrNodeNotFound, nodeID)
	}
	return nil
}

// setNodeData replaces a node's data.
func setNodeData(ctx context.Context, q execer, wsID, nodeID string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	ct, err := q.Exec(ctx,
		`UPDATE graph_nodes SET data = $1 WHERE workspace_id = $2 AND id = $3`,
		data, wsID, nodeID,
	)
	if err != nil {
		return fmt.Errorf("graphplan: update node %s: %w", nodeID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", graphplan.ErrNodeNotFound, nodeID)
	}
	return nil
}

// setNodePosition moves a node.
func setNodePosition(ctx context.Context, q execer, wsID, nodeID string, p graphplan.Position) error {
	ct, err := q.Exec(ctx,
		`UPDATE graph_nodes SET x = $1, y = $2 WHERE workspace_id = $3 AND id = $4`,
		p.X, p.Y, wsID, nodeID,
	)
	if err != nil {
		return fmt.Errorf("graphplan: move node %s: %w", nodeID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", graphplan.ErrNodeNotFound, nodeID)
	}
	return nil
}

// listNodes returns all nodes of a workspace, ordered by created_at.
func (s *PGStore) listNodes(ctx context.Context, wsID string) ([]*graphplan.Node, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, type, x, y, width, height, data FROM graph_nodes
		 WHERE workspace_id = $1 ORDER BY created_at, id`, wsID)
	if err != nil {
		return nil, fmt.Errorf("graphplan: list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []*graphplan.Node{}
	for rows.Next() {
		var (
			n  graphplan.Node
			nt string
		)
		if err := rows.Scan(&n.ID, &nt, &n.Position.X, &n.Position.Y, &n.Width, &n.Height, &n.Data); err != nil {
			return nil, fmt.Errorf("graphplan: scan node: %w", err)
		}
		n.Type = graphplan.NodeType(nt)
		nodes = append(nodes, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("graphplan: rows nodes: %w", err)
	}

	return nodes, nil
}
