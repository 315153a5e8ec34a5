package engine

import (
	"testing"

	"github.com/meikuraledutech/graphplan"
	"github.com/meikuraledutech/graphplan/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreview_MatchesExecute(t *testing.T) {
	snap := connected(t).Snapshot()
	snap.Selection = []string{"a", "b"}

	p := planOf(
		create("root", graphplan.CenterOfSelection{}),
		create("kid", graphplan.RelativeTo{Anchor: "root", Direction: graphplan.SideBelow, Offset: 30}),
		create("g", graphplan.Grid{BaseAnchor: "kid", Row: 1, Col: 1}),
		create("c1", graphplan.Cluster{Near: "hub", Spread: 80}),
		create("c2", graphplan.Cluster{Near: "hub", Spread: 80}),
		create("bs", graphplan.BelowSelection{Index: 1}),
		graphplan.MoveNode{NodeID: "b", Position: graphplan.RelativeTo{Anchor: "g", Direction: graphplan.SideRight, Offset: 10}},
		graphplan.CreateEdge{Source: "root", Target: "kid"},
	)

	e := testEngine(WithSeed(42))
	ps, err := e.Preview(p, snap)
	require.NoError(t, err)

	ws := memory.FromSnapshot(snap)
	res := e.Execute(p, ws, nil)
	require.True(t, res.Success)
	after := ws.Snapshot()

	require.Len(t, ps.GhostNodes, 6)
	for _, g := range ps.GhostNodes {
		got := after.Nodes[res.IDMap[g.TempID]]
		require.NotNil(t, got, g.TempID)
		assert.Equal(t, got.Position, g.Position, g.TempID)
		assert.Equal(t, got.Width, g.Width)
		assert.Equal(t, got.Type, g.Type)
	}

	require.Len(t, ps.Movements, 1)
	assert.Equal(t, "b", ps.Movements[0].NodeID)
	assert.Equal(t, graphplan.Position{X: 500, Y: 300}, ps.Movements[0].From)
	assert.Equal(t, after.Nodes["b"].Position, ps.Movements[0].To)

	require.Len(t, ps.EdgePreviews, 1)
	assert.True(t, ps.EdgePreviews[0].IsNew)
	assert.Equal(t, "root", ps.EdgePreviews[0].Source)
	assert.Equal(t, "kid", ps.EdgePreviews[0].Target)

	assert.Equal(t, res.Warnings, ps.Warnings)
}

func TestPreview_IsPureAndIdempotent(t *testing.T) {
	snap := connected(t).Snapshot()
	before := snap.Clone()
	p := planOf(
		create("x", graphplan.Cluster{Near: "a", Spread: 50}),
		graphplan.DeleteNode{NodeID: "hub"},
		graphplan.UpdateNode{NodeID: "b", Patch: map[string]any{"title": "B"}},
	)
	e := testEngine()

	first, err := e.Preview(p, snap)
	require.NoError(t, err)
	second, err := e.Preview(p, snap)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, snap)
}

func TestPreview_Fragments(t *testing.T) {
	snap := connected(t).Snapshot()
	active := false

	ps, err := testEngine().Preview(planOf(
		graphplan.UpdateEdge{EdgeID: "e2", Patch: graphplan.EdgePatch{Active: &active}},
		graphplan.DeleteNode{NodeID: "hub", Reason: "merged"},
		graphplan.UpdateNode{NodeID: "a", Patch: map[string]any{"title": "A2"}},
		graphplan.DeleteNode{NodeID: "missing"},
	), snap)
	require.NoError(t, err)

	assert.Empty(t, ps.GhostNodes)
	require.Len(t, ps.Deletions, 1)
	assert.Equal(t, "hub", ps.Deletions[0].NodeID)
	assert.Equal(t, "merged", ps.Deletions[0].Reason)
	assert.Equal(t, []string{"e1", "e2"}, ps.Deletions[0].Cascade)

	require.Len(t, ps.EdgePreviews, 2)
	for _, ep := range ps.EdgePreviews {
		assert.True(t, ep.IsDeleted)
		assert.False(t, ep.IsNew)
	}

	require.Len(t, ps.PendingUpdates, 2)
	assert.Equal(t, graphplan.TargetEdge, ps.PendingUpdates[0].Kind)
	assert.Equal(t, "e2", ps.PendingUpdates[0].TargetID)
	assert.Equal(t, graphplan.TargetNode, ps.PendingUpdates[1].Kind)
	assert.Equal(t, "a", ps.PendingUpdates[1].TargetID)

	require.Len(t, ps.Warnings, 1)
	assert.Equal(t, graphplan.WarnTargetMissing, ps.Warnings[0].Code)
}

func TestPreview_UnknownTypeFails(t *testing.T) {
	_, err := testEngine().Preview(planOf(
		graphplan.CreateNode{TempID: "x", Type: "blob", Position: graphplan.CenterOfView{}},
	), testSnapshot())
	assert.ErrorIs(t, err, graphplan.ErrUnknownNodeType)
}

func TestPreview_PreservedIn(t *testing.T) {
	snap := connected(t).Snapshot()
	snap.Nodes["a"].Data = map[string]any{"title": "Photosynthesis"}
	snap.Nodes["b"].Data = map[string]any{"title": "Plants"}

	tests := []struct {
		name string
		ops  []graphplan.MutationOp
		want string
	}{
		{
			name: "explicit existing node",
			ops:  []graphplan.MutationOp{graphplan.DeleteNode{NodeID: "a", PreservedBy: "b"}},
			want: "Plants",
		},
		{
			name: "explicit temp node",
			ops: []graphplan.MutationOp{
				graphplan.CreateNode{TempID: "sum", Type: graphplan.NodeConcept, Position: graphplan.CenterOfView{}, Data: map[string]any{"title": "Summary"}},
				graphplan.DeleteNode{NodeID: "a", PreservedBy: "sum"},
			},
			want: "Summary",
		},
		{
			name: "explicit unknown ref",
			ops:  []graphplan.MutationOp{graphplan.DeleteNode{NodeID: "a", PreservedBy: "elsewhere"}},
			want: "elsewhere",
		},
		{
			name: "title found in created node",
			ops: []graphplan.MutationOp{
				graphplan.CreateNode{TempID: "m", Type: graphplan.NodeNote, Position: graphplan.CenterOfView{},
					Data: map[string]any{"title": "Energy", "body": "covers photosynthesis and respiration"}},
				graphplan.DeleteNode{NodeID: "a"},
			},
			want: "Energy",
		},
		{
			name: "title found in update patch",
			ops: []graphplan.MutationOp{
				graphplan.UpdateNode{NodeID: "b", Patch: map[string]any{"tags": []any{"PHOTOSYNTHESIS"}}},
				graphplan.DeleteNode{NodeID: "a"},
			},
			want: "Plants",
		},
		{
			name: "no match",
			ops:  []graphplan.MutationOp{graphplan.DeleteNode{NodeID: "a"}},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps, err := testEngine().Preview(planOf(tt.ops...), snap)
			require.NoError(t, err)
			require.Len(t, ps.Deletions, 1)
			assert.Equal(t, tt.want, ps.Deletions[0].PreservedIn)
		})
	}
}

func TestPreview_EmptyPlan(t *testing.T) {
	ps, err := testEngine().Preview(planOf(), nil)
	require.NoError(t, err)
	assert.Empty(t, ps.GhostNodes)
	assert.Empty(t, ps.Warnings)
}

func TestPreview_NilNodeEntryIsIgnored(t *testing.T) {
	s := testSnapshot()
	s.Nodes["x"] = nil
	s.Selection = []string{"x", "a"}

	ps, err := testEngine().Preview(planOf(
		create("n", graphplan.RelativeTo{Anchor: "x"}),
	), s)
	require.NoError(t, err)
	require.Len(t, ps.GhostNodes, 1)
	require.Len(t, ps.Warnings, 1)
	assert.Equal(t, graphplan.WarnReferenceMissing, ps.Warnings[0].Code)
}
