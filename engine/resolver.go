package engine

import (
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/meikuraledutech/graphplan"
)

// Used when the snapshot carries no viewport size.
const (
	fallbackViewWidth  = 1280.0
	fallbackViewHeight = 800.0
)

type placed struct {
	pos  graphplan.Position
	dims graphplan.Dimensions
}

// resolveContext is everything a symbolic position can be resolved
// against. nodes is the live working graph of the current run; resolved
// holds positions produced earlier in the same run, keyed by the reference
// the plan used (tempId or node id).
type resolveContext struct {
	nodes       map[string]*graphplan.Node
	resolved    map[string]placed
	viewport    graphplan.Viewport
	bounds      graphplan.Bounds
	selCenter   *graphplan.Position
	selBounds   *graphplan.Rect
	spacing     float64
	gridSpacing float64
	rng         *rand.Rand
}

// resolution is a resolved position. When missing is set, the anchor named
// by ref could not be found and pos is derived from the center of the view.
type resolution struct {
	pos     graphplan.Position
	missing bool
	ref     string
}

func newResolveContext(e *Engine, snap *graphplan.Snapshot, plan *graphplan.MutationPlan) *resolveContext {
	rc := &resolveContext{
		nodes:       snap.Nodes,
		resolved:    make(map[string]placed),
		viewport:    snap.Viewport,
		bounds:      snap.Bounds,
		spacing:     e.spacing,
		gridSpacing: e.gridSpacing,
		rng:         rand.New(rand.NewPCG(e.seed, planFingerprint(plan))),
	}
	rc.selCenter, rc.selBounds = selectionGeometry(snap)
	return rc
}

// selectionGeometry prefers the UI's precomputed values and otherwise
// derives them from the selected nodes present in the snapshot.
func selectionGeometry(snap *graphplan.Snapshot) (*graphplan.Position, *graphplan.Rect) {
	center, bounds := snap.SelectionCenter, snap.SelectionBounds
	if center != nil && bounds != nil {
		return center, bounds
	}

	var sumX, sumY float64
	var n int
	r := graphplan.Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, id := range snap.Selection {
		node, ok := snap.Nodes[id]
		if !ok {
			continue
		}
		n++
		sumX += node.Position.X
		sumY += node.Position.Y
		r.MinX = min(r.MinX, node.Position.X)
		r.MinY = min(r.MinY, node.Position.Y)
		r.MaxX = max(r.MaxX, node.Position.X+node.Width)
		r.MaxY = max(r.MaxY, node.Position.Y+node.Height)
	}
	if n == 0 {
		return center, bounds
	}
	if center == nil {
		center = &graphplan.Position{X: sumX / float64(n), Y: sumY / float64(n)}
	}
	if bounds == nil {
		bounds = &r
	}
	return center, bounds
}

// planFingerprint hashes the op sequence so the scatter of a given plan is
// stable across Execute and Preview.
func planFingerprint(plan *graphplan.MutationPlan) uint64 {
	h := fnv.New64a()
	for _, op := range plan.Ops {
		h.Write([]byte(graphplan.OpName(op)))
		switch op := op.(type) {
		case graphplan.CreateNode:
			h.Write([]byte(op.TempID))
		case graphplan.MoveNode:
			h.Write([]byte(op.NodeID))
		}
		h.Write([]byte{0})
	}
	return h.Sum64()
}

func (rc *resolveContext) place(ref string, pos graphplan.Position, dims graphplan.Dimensions) {
	if ref == "" {
		return
	}
	rc.resolved[ref] = placed{pos: pos, dims: dims}
}

// anchor looks ref up in the positions resolved so far, then in the graph.
func (rc *resolveContext) anchor(ref string) (placed, bool) {
	if p, ok := rc.resolved[ref]; ok {
		return p, true
	}
	if n, ok := rc.nodes[ref]; ok {
		return placed{pos: n.Position, dims: graphplan.Dimensions{Width: n.Width, Height: n.Height}}, true
	}
	return placed{}, false
}

func (rc *resolveContext) centerOfView() graphplan.Position {
	zoom := rc.viewport.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	w, h := rc.bounds.Width, rc.bounds.Height
	if w <= 0 || h <= 0 {
		w, h = fallbackViewWidth, fallbackViewHeight
	}
	return graphplan.Position{
		X: (-rc.viewport.X + w/2) / zoom,
		Y: (-rc.viewport.Y + h/2) / zoom,
	}
}

// resolve turns a symbolic position into canvas coordinates. It never
// fails: unknown anchors and unrecognized variants land at the center of
// the view.
func (rc *resolveContext) resolve(p graphplan.RelativePosition) resolution {
	switch p := p.(type) {
	case graphplan.Absolute:
		return resolution{pos: graphplan.Position{X: p.X, Y: p.Y}}

	case graphplan.RelativeTo:
		a, ok := rc.anchor(p.Anchor)
		if !ok {
			return resolution{pos: rc.centerOfView(), missing: true, ref: p.Anchor}
		}
		return resolution{pos: beside(a, p.Direction, p.Offset)}

	case graphplan.CenterOfSelection:
		if rc.selCenter == nil {
			return resolution{pos: rc.centerOfView()}
		}
		return resolution{pos: *rc.selCenter}

	case graphplan.CenterOfView:
		return resolution{pos: rc.centerOfView()}

	case graphplan.BelowSelection:
		if rc.selBounds == nil {
			return resolution{pos: rc.centerOfView()}
		}
		return resolution{pos: graphplan.Position{
			X: rc.selBounds.MinX + float64(p.Index)*rc.gridSpacing,
			Y: rc.selBounds.MaxY + rc.spacing,
		}}

	case graphplan.Grid:
		spacing := p.Spacing
		if spacing <= 0 {
			spacing = rc.gridSpacing
		}
		base, found := rc.base(p.BaseAnchor)
		return resolution{
			pos: graphplan.Position{
				X: base.X + float64(p.Col)*spacing,
				Y: base.Y + float64(p.Row)*spacing,
			},
			missing: !found,
			ref:     p.BaseAnchor,
		}

	case graphplan.Cluster:
		spread := p.Spread
		if spread <= 0 {
			spread = rc.spacing
		}
		// Always draw both values so the random sequence does not depend on
		// whether the anchor was found.
		angle := rc.rng.Float64() * 2 * math.Pi
		dist := spread * (0.5 + 0.5*rc.rng.Float64())
		base, found := rc.base(p.Near)
		return resolution{
			pos: graphplan.Position{
				X: base.X + dist*math.Cos(angle),
				Y: base.Y + dist*math.Sin(angle),
			},
			missing: !found,
			ref:     p.Near,
		}
	}
	return resolution{pos: rc.centerOfView()}
}

// base resolves an anchor for Grid and Cluster, falling back to the center
// of the view.
func (rc *resolveContext) base(ref string) (graphplan.Position, bool) {
	if a, ok := rc.anchor(ref); ok {
		return a.pos, true
	}
	return rc.centerOfView(), false
}

// beside offsets from the anchor's edge on the given side. An unknown side
// is treated as right.
func beside(a placed, side graphplan.Side, offset float64) graphplan.Position {
	pos := a.pos
	switch side {
	case graphplan.SideAbove:
		pos.Y = a.pos.Y - a.dims.Height - offset
	case graphplan.SideBelow:
		pos.Y = a.pos.Y + a.dims.Height + offset
	case graphplan.SideLeft:
		pos.X = a.pos.X - a.dims.Width - offset
	default:
		pos.X = a.pos.X + a.dims.Width + offset
	}
	return pos
}
