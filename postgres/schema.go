package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS graph_workspaces (
    id         TEXT PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS graph_nodes (
    workspace_id TEXT NOT NULL REFERENCES graph_workspaces(id) ON DELETE CASCADE,
    id           TEXT NOT NULL,
    type         TEXT NOT NULL,
    x            DOUBLE PRECISION NOT NULL DEFAULT 0,
    y            DOUBLE PRECISION NOT NULL DEFAULT 0,
    width        DOUBLE PRECISION NOT NULL DEFAULT 0,
    height       DOUBLE PRECISION NOT NULL DEFAULT 0,
    data         JSONB NOT NULL DEFAULT '{}',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (workspace_id, id)
);

CREATE TABLE IF NOT EXISTS graph_edges (
    workspace_id  TEXT NOT NULL,
    id            TEXT NOT NULL,
    source_id     TEXT NOT NULL,
    target_id     TEXT NOT NULL,
    source_handle TEXT NOT NULL DEFAULT '',
    target_handle TEXT NOT NULL DEFAULT '',
    data          JSONB NOT NULL DEFAULT '{}',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (workspace_id, id),
    FOREIGN KEY (workspace_id, source_id) REFERENCES graph_nodes(workspace_id, id) ON DELETE CASCADE,
    FOREIGN KEY (workspace_id, target_id) REFERENCES graph_nodes(workspace_id, id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS graph_history (
    seq          BIGSERIAL PRIMARY KEY,
    workspace_id TEXT NOT NULL REFERENCES graph_workspaces(id) ON DELETE CASCADE,
    kind         TEXT NOT NULL DEFAULT 'execute',
    batch        JSONB NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_graph_edges_source ON graph_edges(workspace_id, source_id);
CREATE INDEX IF NOT EXISTS idx_graph_edges_target ON graph_edges(workspace_id, target_id);
CREATE INDEX IF NOT EXISTS idx_graph_history_ws   ON graph_history(workspace_id, seq);
`

// CreateSchema creates the workspace, node, edge and history tables if they
// don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops every graphplan table.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS graph_history, graph_edges, graph_nodes, graph_workspaces CASCADE;`)
	return err
}
