package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/meikuraledutech/graphplan"
)

// minPreservedTitle is the shortest node title the preservation guess will
// match on; shorter titles match almost anything.
const minPreservedTitle = 3

// Preview computes what Execute would do to snap without doing it. Positions
// come from the same resolution pipeline, so a ghost node lands exactly
// where Execute would create the node. snap is not modified.
//
// Ghost nodes, and edges touching them, are identified by their tempIds.
func (e *Engine) Preview(plan *graphplan.MutationPlan, snap *graphplan.Snapshot) (*graphplan.PreviewState, error) {
	r, err := e.prepare(plan, snap, graphplan.SequentialIDs("ghost"))
	if err != nil {
		e.log.Debug("preview rejected", slog.Any("error", err))
		return nil, err
	}

	temps := make(map[string]string, len(r.ids))
	for temp, id := range r.ids {
		temps[id] = temp
	}
	label := func(id string) string {
		if temp, ok := temps[id]; ok {
			return temp
		}
		return id
	}

	ps := &graphplan.PreviewState{
		GhostNodes:     []graphplan.GhostNode{},
		Deletions:      []graphplan.DeletionOverlay{},
		Movements:      []graphplan.MovementPath{},
		EdgePreviews:   []graphplan.EdgePreview{},
		PendingUpdates: []graphplan.PendingUpdate{},
		Warnings:       r.warnings,
	}
	cascade := make(map[int][]string)
	for _, s := range r.steps {
		switch d := s.delta.(type) {
		case graphplan.NodeAdded:
			ps.GhostNodes = append(ps.GhostNodes, graphplan.GhostNode{
				TempID:   label(d.Node.ID),
				Type:     d.Node.Type,
				Position: d.Node.Position,
				Width:    d.Node.Width,
				Height:   d.Node.Height,
				Data:     d.Node.Data,
			})
		case graphplan.NodeDeleted:
			op, _ := r.plan.Ops[s.opIndex].(graphplan.DeleteNode)
			ps.Deletions = append(ps.Deletions, graphplan.DeletionOverlay{
				NodeID:      label(d.Node.ID),
				Reason:      op.Reason,
				PreservedIn: r.preservedIn(s.opIndex, op, d.Node),
				Cascade:     cascade[s.opIndex],
			})
		case graphplan.NodeUpdated:
			ps.PendingUpdates = append(ps.PendingUpdates, graphplan.PendingUpdate{
				TargetID: label(d.ID),
				Kind:     graphplan.TargetNode,
				Before:   d.Before,
				After:    d.After,
			})
		case graphplan.NodeMoved:
			ps.Movements = append(ps.Movements, graphplan.MovementPath{
				NodeID: label(d.ID),
				From:   d.From,
				To:     d.To,
			})
		case graphplan.EdgeAdded:
			ps.EdgePreviews = append(ps.EdgePreviews, edgePreview(d.Edge, label, true))
		case graphplan.EdgeDeleted:
			if _, ok := r.plan.Ops[s.opIndex].(graphplan.DeleteNode); ok {
				cascade[s.opIndex] = append(cascade[s.opIndex], label(d.Edge.ID))
			}
			ps.EdgePreviews = append(ps.EdgePreviews, edgePreview(d.Edge, label, false))
		case graphplan.EdgeUpdated:
			ps.PendingUpdates = append(ps.PendingUpdates, graphplan.PendingUpdate{
				TargetID: label(d.ID),
				Kind:     graphplan.TargetEdge,
				Before:   d.Before,
				After:    d.After,
			})
		}
	}

	e.log.Debug("plan previewed",
		slog.Int("ops", len(r.plan.Ops)),
		slog.Int("ghosts", len(ps.GhostNodes)),
		slog.Int("warnings", len(ps.Warnings)))
	return ps, nil
}

func edgePreview(e graphplan.Edge, label func(string) string, added bool) graphplan.EdgePreview {
	return graphplan.EdgePreview{
		ID:           label(e.ID),
		Source:       label(e.Source),
		Target:       label(e.Target),
		SourceHandle: e.SourceHandle,
		TargetHandle: e.TargetHandle,
		Data:         e.Data,
		IsNew:        added,
		IsDeleted:    !added,
	}
}

// preservedIn names where a deleted node's content goes. An explicit
// PreservedBy on the op wins. Otherwise it guesses by looking for the
// deleted node's title inside the text of the plan's other create and
// update payloads. The guess is a hint for the UI only.
func (r *run) preservedIn(opIndex int, op graphplan.DeleteNode, deleted graphplan.Node) string {
	if op.PreservedBy != "" {
		if n, ok := r.work.Nodes[r.ref(op.PreservedBy)]; ok && n.Title() != "" {
			return n.Title()
		}
		return op.PreservedBy
	}

	title := strings.ToLower(strings.TrimSpace(deleted.Title()))
	if len(title) < minPreservedTitle {
		return ""
	}
	for i, other := range r.plan.Ops {
		if i == opIndex {
			continue
		}
		switch other := other.(type) {
		case graphplan.CreateNode:
			if containsText(other.Data, title) {
				if t, ok := other.Data["title"].(string); ok && t != "" {
					return t
				}
				return other.TempID
			}
		case graphplan.UpdateNode:
			if r.ref(other.NodeID) == deleted.ID || !containsText(other.Patch, title) {
				continue
			}
			if n, ok := r.work.Nodes[r.ref(other.NodeID)]; ok && n.Title() != "" {
				return n.Title()
			}
			return other.NodeID
		}
	}
	return ""
}

// containsText reports whether any string inside v contains needle,
// case-insensitively. needle must already be lower case.
func containsText(v any, needle string) bool {
	switch v := v.(type) {
	case string:
		return strings.Contains(strings.ToLower(v), needle)
	case map[string]any:
		for _, x := range v {
			if containsText(x, needle) {
				return true
			}
		}
	case []any:
		for _, x := range v {
			if containsText(x, needle) {
				return true
			}
		}
	case fmt.Stringer:
		return strings.Contains(strings.ToLower(v.String()), needle)
	}
	return false
}
