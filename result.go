package graphplan

import "encoding/json"

// Warning codes for soft failures. The plan still succeeds when only these
// occur; the affected sub-operation is degraded or skipped.
const (
	WarnReferenceMissing    = "reference_missing"
	WarnTargetMissing       = "target_missing"
	WarnEdgeEndpointMissing = "edge_endpoint_missing"
	WarnDependencyCycle     = "dependency_cycle"
)

// Warning describes one soft failure. OpIndex is the op's position in the
// submitted plan.
type Warning struct {
	Code    string `json:"code"`
	OpIndex int    `json:"op_index"`
	Ref     string `json:"ref,omitempty"`
	Message string `json:"message"`
}

// ExecutionResult summarises one Execute call.
type ExecutionResult struct {
	Success         bool              `json:"success"`
	Error           error             `json:"-"`
	CreatedNodeIDs  []string          `json:"created_node_ids"`
	DeletedNodeIDs  []string          `json:"deleted_node_ids"`
	ModifiedNodeIDs []string          `json:"modified_node_ids"`
	CreatedEdgeIDs  []string          `json:"created_edge_ids"`
	DeletedEdgeIDs  []string          `json:"deleted_edge_ids"`
	IDMap           map[string]string `json:"id_map"`
	Warnings        []Warning         `json:"warnings"`
}

// MarshalJSON renders Error as a string.
func (r ExecutionResult) MarshalJSON() ([]byte, error) {
	type alias ExecutionResult
	out := struct {
		alias
		Error string `json:"error,omitempty"`
	}{alias: alias(r)}
	if r.Error != nil {
		out.Error = r.Error.Error()
	}
	return json.Marshal(out)
}

// GhostNode is a not-yet-created node as it would appear after commit.
type GhostNode struct {
	TempID   string         `json:"temp_id"`
	Type     NodeType       `json:"type"`
	Position Position       `json:"position"`
	Width    float64        `json:"width"`
	Height   float64        `json:"height"`
	Data     map[string]any `json:"data"`
}

// DeletionOverlay marks an existing node that the plan removes.
// PreservedIn names where its content ends up, when known or guessed.
// Cascade lists the edges removed along with the node.
type DeletionOverlay struct {
	NodeID      string   `json:"node_id"`
	Reason      string   `json:"reason,omitempty"`
	PreservedIn string   `json:"preserved_in,omitempty"`
	Cascade     []string `json:"cascade,omitempty"`
}

// MovementPath shows where a node travels.
type MovementPath struct {
	NodeID string   `json:"node_id"`
	From   Position `json:"from"`
	To     Position `json:"to"`
}

// EdgePreview is an edge that appears or disappears.
type EdgePreview struct {
	ID           string   `json:"id"`
	Source       string   `json:"source"`
	Target       string   `json:"target"`
	SourceHandle string   `json:"source_handle,omitempty"`
	TargetHandle string   `json:"target_handle,omitempty"`
	Data         EdgeData `json:"data"`
	IsNew        bool     `json:"is_new,omitempty"`
	IsDeleted    bool     `json:"is_deleted,omitempty"`
}

// Pending update target kinds.
const (
	TargetNode = "node"
	TargetEdge = "edge"
)

// PendingUpdate marks a node or edge whose payload changes.
type PendingUpdate struct {
	TargetID string `json:"target_id"`
	Kind     string `json:"kind"`
	Before   any    `json:"before"`
	After    any    `json:"after"`
}

// PreviewState is everything a renderer needs to draw a plan before it is
// applied.
type PreviewState struct {
	GhostNodes     []GhostNode       `json:"ghost_nodes"`
	Deletions      []DeletionOverlay `json:"deletions"`
	Movements      []MovementPath    `json:"movements"`
	EdgePreviews   []EdgePreview     `json:"edge_previews"`
	PendingUpdates []PendingUpdate   `json:"pending_updates"`
	Warnings       []Warning         `json:"warnings"`
}
