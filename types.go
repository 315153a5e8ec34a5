package graphplan

import (
	"fmt"
	"maps"
)

// NodeType is the closed set of node kinds the editor understands.
type NodeType string

const (
	NodeNote     NodeType = "note"
	NodeConcept  NodeType = "concept"
	NodeQuestion NodeType = "question"
	NodeSource   NodeType = "source"
	NodeTask     NodeType = "task"
	NodeGroup    NodeType = "group"
)

// NodeDefaults is what a freshly created node of a given type starts with.
type NodeDefaults struct {
	Dimensions Dimensions
	Data       map[string]any
}

var nodeDefaults = map[NodeType]NodeDefaults{
	NodeNote:     {Dimensions{200, 100}, map[string]any{"title": "", "body": ""}},
	NodeConcept:  {Dimensions{180, 80}, map[string]any{"title": ""}},
	NodeQuestion: {Dimensions{220, 100}, map[string]any{"title": "", "answered": false}},
	NodeSource:   {Dimensions{240, 120}, map[string]any{"title": "", "url": ""}},
	NodeTask:     {Dimensions{200, 90}, map[string]any{"title": "", "status": "todo"}},
	NodeGroup:    {Dimensions{400, 300}, map[string]any{"title": ""}},
}

// ParseNodeType validates s against the closed set of node types.
func ParseNodeType(s string) (NodeType, error) {
	t := NodeType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownNodeType, s)
	}
	return t, nil
}

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	_, ok := nodeDefaults[t]
	return ok
}

// DefaultsFor returns the defaults for t. The returned Data map is a fresh
// copy. Unknown types get zero defaults.
func DefaultsFor(t NodeType) NodeDefaults {
	d := nodeDefaults[t]
	d.Data = maps.Clone(d.Data)
	if d.Data == nil {
		d.Data = map[string]any{}
	}
	return d
}

// EdgeDirection describes how an edge should be drawn.
type EdgeDirection string

const (
	DirectionForward  EdgeDirection = "forward"
	DirectionBackward EdgeDirection = "backward"
	DirectionBoth     EdgeDirection = "both"
	DirectionNone     EdgeDirection = "none"
)

// EdgeData is the payload carried by an edge.
type EdgeData struct {
	Label     string        `json:"label,omitempty"`
	Weight    float64       `json:"weight"`
	Direction EdgeDirection `json:"direction"`
	Active    bool          `json:"active"`
}

// DefaultEdgeData is used when a CreateEdge op carries no payload.
func DefaultEdgeData() EdgeData {
	return EdgeData{Weight: 1, Direction: DirectionForward, Active: true}
}

// EdgePatch is a partial EdgeData update. Nil fields are left unchanged.
type EdgePatch struct {
	Label     *string        `json:"label,omitempty"`
	Weight    *float64       `json:"weight,omitempty"`
	Direction *EdgeDirection `json:"direction,omitempty"`
	Active    *bool          `json:"active,omitempty"`
}

// Apply returns d with the patch applied.
func (p EdgePatch) Apply(d EdgeData) EdgeData {
	if p.Label != nil {
		d.Label = *p.Label
	}
	if p.Weight != nil {
		d.Weight = *p.Weight
	}
	if p.Direction != nil {
		d.Direction = *p.Direction
	}
	if p.Active != nil {
		d.Active = *p.Active
	}
	return d
}

// MergeData applies a shallow patch to data and returns the result as a new
// map. A nil value in the patch removes the key.
func MergeData(data, patch map[string]any) map[string]any {
	out := make(map[string]any, len(data)+len(patch))
	maps.Copy(out, data)
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}
