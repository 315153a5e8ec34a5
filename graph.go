package graphplan

import (
	"maps"
	"slices"
)

// Position is a canvas coordinate. For nodes it is the top-left corner.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dimensions is the rendered size of a node.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Node represents a vertex in the workspace graph.
// ID is allocated once by the engine and never reused.
type Node struct {
	ID       string         `json:"id"`
	Type     NodeType       `json:"type"`
	Position Position       `json:"position"`
	Width    float64        `json:"width"`
	Height   float64        `json:"height"`
	Data     map[string]any `json:"data"`
}

// Center returns the center point of the node's bounding box.
func (n *Node) Center() Position {
	return Position{X: n.Position.X + n.Width/2, Y: n.Position.Y + n.Height/2}
}

// Title returns the node's "title" data field, or "" if absent.
func (n *Node) Title() string {
	if s, ok := n.Data["title"].(string); ok {
		return s
	}
	return ""
}

// Clone returns a copy of the node that shares nothing mutable with n.
func (n *Node) Clone() *Node {
	c := *n
	c.Data = cloneData(n.Data)
	return &c
}

// Edge represents a directed connection between two nodes.
type Edge struct {
	ID           string   `json:"id"`
	Source       string   `json:"source"`
	Target       string   `json:"target"`
	SourceHandle string   `json:"source_handle,omitempty"`
	TargetHandle string   `json:"target_handle,omitempty"`
	Data         EdgeData `json:"data"`
}

// Touches reports whether nodeID is either endpoint of the edge.
func (e *Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// Viewport is the pan/zoom state of the canvas.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Bounds is the on-screen size of the viewport in pixels.
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is an axis-aligned bounding box in canvas coordinates.
type Rect struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Snapshot is a point-in-time view of a workspace graph plus the UI state
// positions may be resolved against. SelectionCenter and SelectionBounds are
// optional hints from the UI; when nil they are derived from Selection.
type Snapshot struct {
	Nodes           map[string]*Node `json:"nodes"`
	Edges           map[string]*Edge `json:"edges"`
	Viewport        Viewport         `json:"viewport"`
	Bounds          Bounds           `json:"bounds"`
	Selection       []string         `json:"selection,omitempty"`
	SelectionCenter *Position        `json:"selection_center,omitempty"`
	SelectionBounds *Rect            `json:"selection_bounds,omitempty"`
}

// NewSnapshot returns an empty snapshot with initialised maps.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Nodes:    make(map[string]*Node),
		Edges:    make(map[string]*Edge),
		Viewport: Viewport{Zoom: 1},
	}
}

// Clone deep-copies the snapshot. Nil node and edge entries are dropped.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Nodes:     make(map[string]*Node, len(s.Nodes)),
		Edges:     make(map[string]*Edge, len(s.Edges)),
		Viewport:  s.Viewport,
		Bounds:    s.Bounds,
		Selection: append([]string(nil), s.Selection...),
	}
	if s.SelectionCenter != nil {
		p := *s.SelectionCenter
		c.SelectionCenter = &p
	}
	if s.SelectionBounds != nil {
		r := *s.SelectionBounds
		c.SelectionBounds = &r
	}
	for id, n := range s.Nodes {
		if n == nil {
			continue
		}
		c.Nodes[id] = n.Clone()
	}
	for id, e := range s.Edges {
		if e == nil {
			continue
		}
		ec := *e
		c.Edges[id] = &ec
	}
	return c
}

// EdgesTouching returns the ids of every edge with nodeID as an endpoint,
// sorted for deterministic output.
func (s *Snapshot) EdgesTouching(nodeID string) []string {
	var ids []string
	for id, e := range s.Edges {
		if e.Touches(nodeID) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func cloneData(d map[string]any) map[string]any {
	if d == nil {
		return nil
	}
	return maps.Clone(d)
}
