package graphplan

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonPlan = `{
  "explanation": "split the topic",
  "ops": [
    {"op": "create_node", "temp_id": "t1", "type": "concept",
     "position": {"kind": "relative_to", "anchor": "n1", "direction": "below", "offset": 40},
     "data": {"title": "Light reactions"}},
    {"op": "create_node", "temp_id": "t2", "type": "note",
     "position": {"kind": "grid", "base_anchor": "t1", "row": 1, "col": 2, "spacing": 120},
     "dimensions": {"width": 300, "height": 0}},
    {"op": "create_node", "temp_id": "t3", "type": "task", "position": {"kind": "cluster", "near": "t1", "spread": 60}},
    {"op": "create_node", "temp_id": "t4", "type": "source", "position": {"kind": "below_selection", "index": 3}},
    {"op": "create_node", "temp_id": "t5", "type": "question", "position": {"kind": "teleport"}},
    {"op": "create_edge", "temp_id": "e", "source": "n1", "target": "t1", "data": {"label": "has"}},
    {"op": "delete_node", "node_id": "n2", "reason": "duplicate", "preserved_by": "t1"},
    {"op": "update_node", "node_id": "n3", "patch": {"title": "Renamed", "stale": null}},
    {"op": "move_node", "node_id": "n3", "position": {"kind": "absolute", "x": 10, "y": -5}},
    {"op": "delete_edge", "edge_id": "e9"},
    {"op": "update_edge", "edge_id": "e8", "patch": {"weight": 2.5, "active": false}}
  ]
}`

func TestPlan_DecodeJSON(t *testing.T) {
	var p MutationPlan
	require.NoError(t, json.Unmarshal([]byte(jsonPlan), &p))

	assert.Equal(t, "split the topic", p.Explanation)
	require.Len(t, p.Ops, 11)

	assert.Equal(t, CreateNode{
		TempID:   "t1",
		Type:     NodeConcept,
		Position: RelativeTo{Anchor: "n1", Direction: SideBelow, Offset: 40},
		Data:     map[string]any{"title": "Light reactions"},
	}, p.Ops[0])
	assert.Equal(t, Grid{BaseAnchor: "t1", Row: 1, Col: 2, Spacing: 120}, p.Ops[1].(CreateNode).Position)
	assert.Equal(t, &Dimensions{Width: 300}, p.Ops[1].(CreateNode).Dimensions)
	assert.Equal(t, Cluster{Near: "t1", Spread: 60}, p.Ops[2].(CreateNode).Position)
	assert.Equal(t, BelowSelection{Index: 3}, p.Ops[3].(CreateNode).Position)
	assert.Nil(t, p.Ops[4].(CreateNode).Position, "unknown kinds decode as nil")

	edge := p.Ops[5].(CreateEdge)
	require.NotNil(t, edge.Data)
	assert.Equal(t, "has", edge.Data.Label)
	assert.Equal(t, 1.0, edge.Data.Weight, "unspecified fields keep defaults")
	assert.True(t, edge.Data.Active)

	assert.Equal(t, DeleteNode{NodeID: "n2", Reason: "duplicate", PreservedBy: "t1"}, p.Ops[6])
	assert.Equal(t, UpdateNode{NodeID: "n3", Patch: map[string]any{"title": "Renamed", "stale": nil}}, p.Ops[7])
	assert.Equal(t, MoveNode{NodeID: "n3", Position: Absolute{X: 10, Y: -5}}, p.Ops[8])
	assert.Equal(t, DeleteEdge{EdgeID: "e9"}, p.Ops[9])

	upd := p.Ops[10].(UpdateEdge)
	require.NotNil(t, upd.Patch.Weight)
	require.NotNil(t, upd.Patch.Active)
	assert.Nil(t, upd.Patch.Label)
	assert.Equal(t, 2.5, *upd.Patch.Weight)
	assert.False(t, *upd.Patch.Active)
}

func TestPlan_EncodeDecode(t *testing.T) {
	var p MutationPlan
	require.NoError(t, json.Unmarshal([]byte(jsonPlan), &p))

	b, err := json.Marshal(p)
	require.NoError(t, err)
	var again MutationPlan
	require.NoError(t, json.Unmarshal(b, &again))

	// The unknown position kind is not preserved; it was already nil.
	assert.Equal(t, p, again)
}

func TestPlan_UnknownOp(t *testing.T) {
	var p MutationPlan
	err := json.Unmarshal([]byte(`{"ops":[{"op":"create_node","type":"note"},{"op":"explode"}]}`), &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op 1")
}

func TestReadPlan_YAML(t *testing.T) {
	doc := `
explanation: add two notes
ops:
  - op: create_node
    temp_id: a
    type: note
    position: {kind: center_of_view}
    data:
      title: First
      tags: [x, y]
  - op: create_node
    temp_id: b
    type: note
    position:
      kind: relative_to
      anchor: a
      direction: right
      offset: 50
  - op: create_edge
    source: a
    target: b
`
	p, err := ReadPlan(strings.NewReader(doc), FormatYAML)
	require.NoError(t, err)
	require.Len(t, p.Ops, 3)
	assert.Equal(t, "add two notes", p.Explanation)
	assert.Equal(t, CenterOfView{}, p.Ops[0].(CreateNode).Position)
	assert.Equal(t, []any{"x", "y"}, p.Ops[0].(CreateNode).Data["tags"])
	assert.Equal(t, RelativeTo{Anchor: "a", Direction: SideRight, Offset: 50}, p.Ops[1].(CreateNode).Position)
	assert.Equal(t, CreateEdge{Source: "a", Target: "b"}, p.Ops[2])
}

func TestReadPlan_BadInput(t *testing.T) {
	_, err := ReadPlan(strings.NewReader("ops: [unclosed"), FormatYAML)
	assert.Error(t, err)

	_, err = ReadPlan(strings.NewReader("{"), FormatJSON)
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("plans/split.YAML"))
	assert.Equal(t, FormatYAML, FormatFromPath("split.yml"))
	assert.Equal(t, FormatJSON, FormatFromPath("split.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("-"))
}

func TestOpName(t *testing.T) {
	assert.Equal(t, OpCreateNode, OpName(CreateNode{}))
	assert.Equal(t, OpUpdateEdge, OpName(UpdateEdge{}))
}
