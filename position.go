package graphplan

import (
	"encoding/json"
	"fmt"
)

// RelativePosition is a symbolic placement resolved to an absolute Position
// at execution time. The variant set is closed; a nil RelativePosition is
// treated as unrecognized and resolves to the center of the view.
type RelativePosition interface {
	positionKind() string
}

// Side is the direction of a RelativeTo placement.
type Side string

const (
	SideAbove Side = "above"
	SideBelow Side = "below"
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Absolute places a node at fixed canvas coordinates.
type Absolute struct {
	X, Y float64
}

// RelativeTo places a node next to an anchor node, Offset pixels away from
// the anchor's edge on the given side.
type RelativeTo struct {
	Anchor    string
	Direction Side
	Offset    float64
}

// CenterOfSelection places a node at the mean position of the selection.
type CenterOfSelection struct{}

// CenterOfView places a node at the center of the visible canvas.
type CenterOfView struct{}

// BelowSelection places the Index-th node of a row under the selection.
type BelowSelection struct {
	Index int
}

// Grid places a node at a row/col cell relative to a base anchor.
type Grid struct {
	BaseAnchor string
	Row, Col   int
	Spacing    float64
}

// Cluster scatters a node around an anchor within Spread pixels.
type Cluster struct {
	Near   string
	Spread float64
}

func (Absolute) positionKind() string          { return "absolute" }
func (RelativeTo) positionKind() string        { return "relative_to" }
func (CenterOfSelection) positionKind() string { return "center_of_selection" }
func (CenterOfView) positionKind() string      { return "center_of_view" }
func (BelowSelection) positionKind() string    { return "below_selection" }
func (Grid) positionKind() string              { return "grid" }
func (Cluster) positionKind() string           { return "cluster" }

// AnchorOf returns the node reference a position depends on, if any.
func AnchorOf(p RelativePosition) (string, bool) {
	switch p := p.(type) {
	case RelativeTo:
		return p.Anchor, p.Anchor != ""
	case Grid:
		return p.BaseAnchor, p.BaseAnchor != ""
	case Cluster:
		return p.Near, p.Near != ""
	}
	return "", false
}

type positionJSON struct {
	Kind       string  `json:"kind"`
	X          float64 `json:"x,omitempty"`
	Y          float64 `json:"y,omitempty"`
	Anchor     string  `json:"anchor,omitempty"`
	Direction  Side    `json:"direction,omitempty"`
	Offset     float64 `json:"offset,omitempty"`
	Index      int     `json:"index,omitempty"`
	BaseAnchor string  `json:"base_anchor,omitempty"`
	Row        int     `json:"row,omitempty"`
	Col        int     `json:"col,omitempty"`
	Spacing    float64 `json:"spacing,omitempty"`
	Near       string  `json:"near,omitempty"`
	Spread     float64 `json:"spread,omitempty"`
}

func encodePosition(p RelativePosition) (json.RawMessage, error) {
	if p == nil {
		return nil, nil
	}
	pj := positionJSON{Kind: p.positionKind()}
	switch p := p.(type) {
	case Absolute:
		pj.X, pj.Y = p.X, p.Y
	case RelativeTo:
		pj.Anchor, pj.Direction, pj.Offset = p.Anchor, p.Direction, p.Offset
	case BelowSelection:
		pj.Index = p.Index
	case Grid:
		pj.BaseAnchor, pj.Row, pj.Col, pj.Spacing = p.BaseAnchor, p.Row, p.Col, p.Spacing
	case Cluster:
		pj.Near, pj.Spread = p.Near, p.Spread
	}
	return json.Marshal(pj)
}

// decodePosition returns nil for an absent position or an unknown kind.
func decodePosition(raw json.RawMessage) (RelativePosition, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var pj positionJSON
	if err := json.Unmarshal(raw, &pj); err != nil {
		return nil, fmt.Errorf("graphplan: decode position: %w", err)
	}
	switch pj.Kind {
	case "absolute":
		return Absolute{X: pj.X, Y: pj.Y}, nil
	case "relative_to":
		return RelativeTo{Anchor: pj.Anchor, Direction: pj.Direction, Offset: pj.Offset}, nil
	case "center_of_selection":
		return CenterOfSelection{}, nil
	case "center_of_view":
		return CenterOfView{}, nil
	case "below_selection":
		return BelowSelection{Index: pj.Index}, nil
	case "grid":
		return Grid{BaseAnchor: pj.BaseAnchor, Row: pj.Row, Col: pj.Col, Spacing: pj.Spacing}, nil
	case "cluster":
		return Cluster{Near: pj.Near, Spread: pj.Spread}, nil
	}
	return nil, nil
}
