package engine

import (
	"fmt"

	"github.com/meikuraledutech/graphplan"
)

// maxIDAttempts bounds how often a colliding generator is asked again.
const maxIDAttempts = 8

// step is one delta produced by the op at opIndex.
type step struct {
	opIndex int
	delta   graphplan.Delta
}

// run is the state of one Execute or Preview call. It owns a private copy
// of the graph; nothing it does is visible outside until the caller commits
// its steps.
type run struct {
	plan     *graphplan.MutationPlan
	base     *graphplan.Snapshot
	work     *graphplan.Snapshot
	rc       *resolveContext
	newID    graphplan.IDGenerator
	ids      map[string]string // tempId -> allocated id
	steps    []step
	warnings []graphplan.Warning
}

// prepare runs validation, sorting and both passes. The returned error is
// always a hard failure; soft failures are collected as warnings.
func (e *Engine) prepare(plan *graphplan.MutationPlan, snap *graphplan.Snapshot, gen graphplan.IDGenerator) (*run, error) {
	if plan == nil {
		plan = &graphplan.MutationPlan{}
	}
	if snap == nil {
		snap = graphplan.NewSnapshot()
	}
	work := snap.Clone()
	r := &run{
		plan:  plan,
		base:  snap,
		work:  work,
		rc:    newResolveContext(e, work, plan),
		newID: gen,
		ids:   make(map[string]string),
	}

	if err := validate(plan); err != nil {
		return r, err
	}

	order, cycles := sortOps(plan.Ops)
	r.warnings = append(r.warnings, cycles...)

	if err := r.createNodes(order); err != nil {
		return r, err
	}
	if err := r.mutate(order); err != nil {
		return r, err
	}
	return r, nil
}

// validate finds the hard failures. It runs before any op is touched so a
// rejected plan leaves no trace.
func validate(plan *graphplan.MutationPlan) error {
	for i, op := range plan.Ops {
		switch op := op.(type) {
		case graphplan.CreateNode:
			if _, err := graphplan.ParseNodeType(string(op.Type)); err != nil {
				return &graphplan.ValidationError{
					OpIndex: i,
					TempID:  op.TempID,
					Type:    op.Type,
					Err:     err,
				}
			}
		case nil:
			return &graphplan.ValidationError{OpIndex: i, Err: fmt.Errorf("graphplan: nil op")}
		}
	}
	return nil
}

// createNodes is pass 1. Each node's position is registered as soon as it
// is resolved so later creations can anchor to it.
func (r *run) createNodes(order []int) error {
	for _, i := range order {
		op, ok := r.plan.Ops[i].(graphplan.CreateNode)
		if !ok {
			continue
		}
		id, err := r.allocate()
		if err != nil {
			return err
		}

		res := r.rc.resolve(op.Position)
		r.noteFallback(i, res)

		defaults := graphplan.DefaultsFor(op.Type)
		dims := defaults.Dimensions
		if op.Dimensions != nil {
			if op.Dimensions.Width > 0 {
				dims.Width = op.Dimensions.Width
			}
			if op.Dimensions.Height > 0 {
				dims.Height = op.Dimensions.Height
			}
		}

		node := graphplan.Node{
			ID:       id,
			Type:     op.Type,
			Position: res.pos,
			Width:    dims.Width,
			Height:   dims.Height,
			Data:     graphplan.MergeData(defaults.Data, op.Data),
		}
		if err := r.record(i, graphplan.NodeAdded{Node: node}); err != nil {
			return err
		}
		if op.TempID != "" {
			r.ids[op.TempID] = id
			r.rc.place(op.TempID, res.pos, dims)
		}
	}
	return nil
}

// mutate is pass 2: everything except node creation, in sorted order.
func (r *run) mutate(order []int) error {
	for _, i := range order {
		var err error
		switch op := r.plan.Ops[i].(type) {
		case graphplan.CreateNode:
			continue
		case graphplan.DeleteNode:
			err = r.deleteNode(i, op)
		case graphplan.UpdateNode:
			err = r.updateNode(i, op)
		case graphplan.MoveNode:
			err = r.moveNode(i, op)
		case graphplan.CreateEdge:
			err = r.createEdge(i, op)
		case graphplan.DeleteEdge:
			err = r.deleteEdge(i, op)
		case graphplan.UpdateEdge:
			err = r.updateEdge(i, op)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *run) deleteNode(i int, op graphplan.DeleteNode) error {
	id := r.ref(op.NodeID)
	n, ok := r.work.Nodes[id]
	if !ok {
		r.targetMissing(i, op.NodeID, graphplan.ErrNodeNotFound)
		return nil
	}
	// Edges go first so every intermediate state keeps referential
	// integrity and the inverted batch re-adds the node before its edges.
	for _, eid := range r.work.EdgesTouching(id) {
		if err := r.record(i, graphplan.EdgeDeleted{Edge: *r.work.Edges[eid]}); err != nil {
			return err
		}
	}
	return r.record(i, graphplan.NodeDeleted{Node: *n.Clone()})
}

func (r *run) updateNode(i int, op graphplan.UpdateNode) error {
	n, ok := r.work.Nodes[r.ref(op.NodeID)]
	if !ok {
		r.targetMissing(i, op.NodeID, graphplan.ErrNodeNotFound)
		return nil
	}
	return r.record(i, graphplan.NodeUpdated{
		ID:     n.ID,
		Before: graphplan.MergeData(n.Data, nil),
		After:  graphplan.MergeData(n.Data, op.Patch),
	})
}

func (r *run) moveNode(i int, op graphplan.MoveNode) error {
	n, ok := r.work.Nodes[r.ref(op.NodeID)]
	if !ok {
		r.targetMissing(i, op.NodeID, graphplan.ErrNodeNotFound)
		return nil
	}
	res := r.rc.resolve(op.Position)
	r.noteFallback(i, res)
	from := n.Position
	if err := r.record(i, graphplan.NodeMoved{ID: n.ID, From: from, To: res.pos}); err != nil {
		return err
	}
	r.rc.place(op.NodeID, res.pos, graphplan.Dimensions{Width: n.Width, Height: n.Height})
	return nil
}

func (r *run) createEdge(i int, op graphplan.CreateEdge) error {
	src, ok := r.work.Nodes[r.ref(op.Source)]
	if !ok {
		r.endpointMissing(i, op.Source)
		return nil
	}
	tgt, ok := r.work.Nodes[r.ref(op.Target)]
	if !ok {
		r.endpointMissing(i, op.Target)
		return nil
	}
	id, err := r.allocate()
	if err != nil {
		return err
	}
	data := graphplan.DefaultEdgeData()
	if op.Data != nil {
		data = *op.Data
	}
	sh, th := pickHandles(src, tgt)
	edge := graphplan.Edge{
		ID:           id,
		Source:       src.ID,
		Target:       tgt.ID,
		SourceHandle: sh,
		TargetHandle: th,
		Data:         data,
	}
	if err := r.record(i, graphplan.EdgeAdded{Edge: edge}); err != nil {
		return err
	}
	if op.TempID != "" {
		r.ids[op.TempID] = id
	}
	return nil
}

func (r *run) deleteEdge(i int, op graphplan.DeleteEdge) error {
	e, ok := r.work.Edges[r.ref(op.EdgeID)]
	if !ok {
		r.targetMissing(i, op.EdgeID, graphplan.ErrEdgeNotFound)
		return nil
	}
	return r.record(i, graphplan.EdgeDeleted{Edge: *e})
}

func (r *run) updateEdge(i int, op graphplan.UpdateEdge) error {
	e, ok := r.work.Edges[r.ref(op.EdgeID)]
	if !ok {
		r.targetMissing(i, op.EdgeID, graphplan.ErrEdgeNotFound)
		return nil
	}
	return r.record(i, graphplan.EdgeUpdated{ID: e.ID, Before: e.Data, After: op.Patch.Apply(e.Data)})
}

// ref maps a tempId to the id allocated for it; anything else passes
// through unchanged.
func (r *run) ref(id string) string {
	if mapped, ok := r.ids[id]; ok {
		return mapped
	}
	return id
}

// record applies d to the working graph and keeps it. A failure here means
// the run produced an inconsistent delta and is treated as hard.
func (r *run) record(opIndex int, d graphplan.Delta) error {
	if err := graphplan.ApplyDelta(r.work, d); err != nil {
		return fmt.Errorf("graphplan: op %d: %w", opIndex, err)
	}
	r.steps = append(r.steps, step{opIndex: opIndex, delta: d})
	return nil
}

// allocate draws a fresh id that no node or edge, past or present in this
// run, uses.
func (r *run) allocate() (string, error) {
	for range maxIDAttempts {
		id := r.newID()
		if id == "" || r.taken(id) {
			continue
		}
		return id, nil
	}
	return "", graphplan.ErrIDExhausted
}

func (r *run) taken(id string) bool {
	if _, ok := r.work.Nodes[id]; ok {
		return true
	}
	if _, ok := r.work.Edges[id]; ok {
		return true
	}
	if _, ok := r.base.Nodes[id]; ok {
		return true
	}
	_, ok := r.base.Edges[id]
	return ok
}

func (r *run) noteFallback(i int, res resolution) {
	if !res.missing {
		return
	}
	r.warnings = append(r.warnings, graphplan.Warning{
		Code:    graphplan.WarnReferenceMissing,
		OpIndex: i,
		Ref:     res.ref,
		Message: fmt.Sprintf("%v: %q, placed at center of view", graphplan.ErrAnchorNotFound, res.ref),
	})
}

func (r *run) targetMissing(i int, ref string, err error) {
	r.warnings = append(r.warnings, graphplan.Warning{
		Code:    graphplan.WarnTargetMissing,
		OpIndex: i,
		Ref:     ref,
		Message: fmt.Sprintf("%v: %q, %s skipped", err, ref, graphplan.OpName(r.plan.Ops[i])),
	})
}

func (r *run) endpointMissing(i int, ref string) {
	r.warnings = append(r.warnings, graphplan.Warning{
		Code:    graphplan.WarnEdgeEndpointMissing,
		OpIndex: i,
		Ref:     ref,
		Message: fmt.Sprintf("%v: %q, edge skipped", graphplan.ErrEndpointNotFound, ref),
	})
}

// deltas returns the recorded deltas in order.
func (r *run) deltas() []graphplan.Delta {
	out := make([]graphplan.Delta, len(r.steps))
	for i, s := range r.steps {
		out[i] = s.delta
	}
	return out
}
