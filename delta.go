package graphplan

import (
	"encoding/json"
	"fmt"
)

// Delta is one primitive, reversible change to a workspace graph. Every
// variant carries enough before/after state to be inverted on its own.
type Delta interface {
	DeltaType() string
	Invert() Delta
}

const (
	DeltaAddNode    = "ADD_NODE"
	DeltaDeleteNode = "DELETE_NODE"
	DeltaUpdateNode = "UPDATE_NODE"
	DeltaMoveNode   = "MOVE_NODE"
	DeltaAddEdge    = "ADD_EDGE"
	DeltaDeleteEdge = "DELETE_EDGE"
	DeltaUpdateEdge = "UPDATE_EDGE"
)

// NodeAdded records a node creation.
type NodeAdded struct{ Node Node }

// NodeDeleted records a node removal with the full node as it was.
type NodeDeleted struct{ Node Node }

// NodeUpdated records a data change.
type NodeUpdated struct {
	ID     string
	Before map[string]any
	After  map[string]any
}

// NodeMoved records a position change.
type NodeMoved struct {
	ID   string
	From Position
	To   Position
}

// EdgeAdded records an edge creation.
type EdgeAdded struct{ Edge Edge }

// EdgeDeleted records an edge removal with the full edge as it was.
type EdgeDeleted struct{ Edge Edge }

// EdgeUpdated records an edge payload change.
type EdgeUpdated struct {
	ID     string
	Before EdgeData
	After  EdgeData
}

func (NodeAdded) DeltaType() string   { return DeltaAddNode }
func (NodeDeleted) DeltaType() string { return DeltaDeleteNode }
func (NodeUpdated) DeltaType() string { return DeltaUpdateNode }
func (NodeMoved) DeltaType() string   { return DeltaMoveNode }
func (EdgeAdded) DeltaType() string   { return DeltaAddEdge }
func (EdgeDeleted) DeltaType() string { return DeltaDeleteEdge }
func (EdgeUpdated) DeltaType() string { return DeltaUpdateEdge }

func (d NodeAdded) Invert() Delta   { return NodeDeleted(d) }
func (d NodeDeleted) Invert() Delta { return NodeAdded(d) }
func (d NodeUpdated) Invert() Delta { return NodeUpdated{ID: d.ID, Before: d.After, After: d.Before} }
func (d NodeMoved) Invert() Delta   { return NodeMoved{ID: d.ID, From: d.To, To: d.From} }
func (d EdgeAdded) Invert() Delta   { return EdgeDeleted(d) }
func (d EdgeDeleted) Invert() Delta { return EdgeAdded(d) }
func (d EdgeUpdated) Invert() Delta { return EdgeUpdated{ID: d.ID, Before: d.After, After: d.Before} }

// ApplyDelta mutates s by one delta. It refuses changes that would break
// referential integrity, so a batch that applies cleanly leaves every edge
// pointing at existing nodes.
func ApplyDelta(s *Snapshot, d Delta) error {
	switch d := d.(type) {
	case NodeAdded:
		if _, ok := s.Nodes[d.Node.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, d.Node.ID)
		}
		s.Nodes[d.Node.ID] = d.Node.Clone()
	case NodeDeleted:
		if _, ok := s.Nodes[d.Node.ID]; !ok {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, d.Node.ID)
		}
		if ids := s.EdgesTouching(d.Node.ID); len(ids) > 0 {
			return fmt.Errorf("%w: %s has %d edges", ErrNodeInUse, d.Node.ID, len(ids))
		}
		delete(s.Nodes, d.Node.ID)
	case NodeUpdated:
		n, ok := s.Nodes[d.ID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, d.ID)
		}
		n.Data = cloneData(d.After)
	case NodeMoved:
		n, ok := s.Nodes[d.ID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, d.ID)
		}
		n.Position = d.To
	case EdgeAdded:
		if _, ok := s.Edges[d.Edge.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, d.Edge.ID)
		}
		if _, ok := s.Nodes[d.Edge.Source]; !ok {
			return fmt.Errorf("%w: source %s", ErrEndpointNotFound, d.Edge.Source)
		}
		if _, ok := s.Nodes[d.Edge.Target]; !ok {
			return fmt.Errorf("%w: target %s", ErrEndpointNotFound, d.Edge.Target)
		}
		e := d.Edge
		s.Edges[e.ID] = &e
	case EdgeDeleted:
		if _, ok := s.Edges[d.Edge.ID]; !ok {
			return fmt.Errorf("%w: %s", ErrEdgeNotFound, d.Edge.ID)
		}
		delete(s.Edges, d.Edge.ID)
	case EdgeUpdated:
		e, ok := s.Edges[d.ID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrEdgeNotFound, d.ID)
		}
		e.Data = d.After
	default:
		return fmt.Errorf("graphplan: apply delta: unsupported %T", d)
	}
	return nil
}

// BatchType is the type tag of every HistoryBatch.
const BatchType = "BATCH"

// HistoryBatch is one atomic, reversible group of deltas produced by a
// single plan execution.
type HistoryBatch struct {
	Type    string
	Actions []Delta
}

// Invert returns the batch that undoes b: actions reversed, each inverted.
func (b HistoryBatch) Invert() HistoryBatch {
	out := HistoryBatch{Type: BatchType, Actions: make([]Delta, 0, len(b.Actions))}
	for i := len(b.Actions) - 1; i >= 0; i-- {
		out.Actions = append(out.Actions, b.Actions[i].Invert())
	}
	return out
}

// ApplyBatch applies every action of b to s in order. On error s may be
// partially modified; callers apply to a clone when they need atomicity.
func ApplyBatch(s *Snapshot, b HistoryBatch) error {
	for i, d := range b.Actions {
		if err := ApplyDelta(s, d); err != nil {
			return fmt.Errorf("graphplan: action %d (%s): %w", i, d.DeltaType(), err)
		}
	}
	return nil
}

type deltaJSON struct {
	Type   string          `json:"type"`
	Node   *Node           `json:"node,omitempty"`
	Edge   *Edge           `json:"edge,omitempty"`
	ID     string          `json:"id,omitempty"`
	Before json.RawMessage `json:"before,omitempty"`
	After  json.RawMessage `json:"after,omitempty"`
	From   *Position       `json:"from,omitempty"`
	To     *Position       `json:"to,omitempty"`
}

// MarshalDelta encodes d with its "type" discriminator.
func MarshalDelta(d Delta) ([]byte, error) {
	dj := deltaJSON{Type: d.DeltaType()}
	var err error
	switch d := d.(type) {
	case NodeAdded:
		dj.Node = &d.Node
	case NodeDeleted:
		dj.Node = &d.Node
	case NodeUpdated:
		dj.ID = d.ID
		if dj.Before, err = json.Marshal(d.Before); err != nil {
			return nil, err
		}
		if dj.After, err = json.Marshal(d.After); err != nil {
			return nil, err
		}
	case NodeMoved:
		dj.ID, dj.From, dj.To = d.ID, &d.From, &d.To
	case EdgeAdded:
		dj.Edge = &d.Edge
	case EdgeDeleted:
		dj.Edge = &d.Edge
	case EdgeUpdated:
		dj.ID = d.ID
		if dj.Before, err = json.Marshal(d.Before); err != nil {
			return nil, err
		}
		if dj.After, err = json.Marshal(d.After); err != nil {
			return nil, err
		}
	}
	return json.Marshal(dj)
}

// UnmarshalDelta decodes a delta written by MarshalDelta.
func UnmarshalDelta(b []byte) (Delta, error) {
	var dj deltaJSON
	if err := json.Unmarshal(b, &dj); err != nil {
		return nil, fmt.Errorf("graphplan: decode delta: %w", err)
	}
	needNode := func() (Node, error) {
		if dj.Node == nil {
			return Node{}, fmt.Errorf("graphplan: decode %s: missing node", dj.Type)
		}
		return *dj.Node, nil
	}
	needEdge := func() (Edge, error) {
		if dj.Edge == nil {
			return Edge{}, fmt.Errorf("graphplan: decode %s: missing edge", dj.Type)
		}
		return *dj.Edge, nil
	}
	switch dj.Type {
	case DeltaAddNode:
		n, err := needNode()
		return NodeAdded{Node: n}, err
	case DeltaDeleteNode:
		n, err := needNode()
		return NodeDeleted{Node: n}, err
	case DeltaUpdateNode:
		d := NodeUpdated{ID: dj.ID}
		if err := unmarshalOptional(dj.Before, &d.Before); err != nil {
			return nil, err
		}
		if err := unmarshalOptional(dj.After, &d.After); err != nil {
			return nil, err
		}
		return d, nil
	case DeltaMoveNode:
		d := NodeMoved{ID: dj.ID}
		if dj.From != nil {
			d.From = *dj.From
		}
		if dj.To != nil {
			d.To = *dj.To
		}
		return d, nil
	case DeltaAddEdge:
		e, err := needEdge()
		return EdgeAdded{Edge: e}, err
	case DeltaDeleteEdge:
		e, err := needEdge()
		return EdgeDeleted{Edge: e}, err
	case DeltaUpdateEdge:
		d := EdgeUpdated{ID: dj.ID}
		if err := unmarshalOptional(dj.Before, &d.Before); err != nil {
			return nil, err
		}
		if err := unmarshalOptional(dj.After, &d.After); err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, fmt.Errorf("graphplan: decode delta: unknown type %q", dj.Type)
}

type batchJSON struct {
	Type    string            `json:"type"`
	Actions []json.RawMessage `json:"actions"`
}

func (b HistoryBatch) MarshalJSON() ([]byte, error) {
	bj := batchJSON{Type: b.Type, Actions: make([]json.RawMessage, 0, len(b.Actions))}
	for _, d := range b.Actions {
		raw, err := MarshalDelta(d)
		if err != nil {
			return nil, err
		}
		bj.Actions = append(bj.Actions, raw)
	}
	return json.Marshal(bj)
}

func (b *HistoryBatch) UnmarshalJSON(data []byte) error {
	var bj batchJSON
	if err := json.Unmarshal(data, &bj); err != nil {
		return fmt.Errorf("graphplan: decode batch: %w", err)
	}
	out := HistoryBatch{Type: bj.Type, Actions: make([]Delta, 0, len(bj.Actions))}
	for _, raw := range bj.Actions {
		d, err := UnmarshalDelta(raw)
		if err != nil {
			return err
		}
		out.Actions = append(out.Actions, d)
	}
	*b = out
	return nil
}
