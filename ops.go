package graphplan

import (
	"encoding/json"
	"fmt"
)

// MutationOp is one step of a MutationPlan. The variant set is closed.
//
// Any node or edge reference inside an op may be a real id or the tempId
// of an entity created earlier in the same plan.
type MutationOp interface {
	opName() string
}

// CreateNode adds a node. TempID is the plan-local handle other ops use to
// refer to it before a real id exists.
type CreateNode struct {
	TempID     string
	Type       NodeType
	Position   RelativePosition
	Data       map[string]any
	Dimensions *Dimensions
}

// DeleteNode removes a node and every edge touching it. PreservedBy names the
// node (real or temp) that absorbs its content, when the plan author knows.
type DeleteNode struct {
	NodeID      string
	Reason      string
	PreservedBy string
}

// UpdateNode shallow-merges Patch into the node's data.
type UpdateNode struct {
	NodeID string
	Patch  map[string]any
}

// MoveNode repositions an existing node.
type MoveNode struct {
	NodeID   string
	Position RelativePosition
}

// CreateEdge connects Source to Target. Data nil means DefaultEdgeData.
type CreateEdge struct {
	TempID string
	Source string
	Target string
	Data   *EdgeData
}

// DeleteEdge removes an edge.
type DeleteEdge struct {
	EdgeID string
}

// UpdateEdge applies a partial payload update to an edge.
type UpdateEdge struct {
	EdgeID string
	Patch  EdgePatch
}

const (
	OpCreateNode = "create_node"
	OpDeleteNode = "delete_node"
	OpUpdateNode = "update_node"
	OpMoveNode   = "move_node"
	OpCreateEdge = "create_edge"
	OpDeleteEdge = "delete_edge"
	OpUpdateEdge = "update_edge"
)

func (CreateNode) opName() string { return OpCreateNode }
func (DeleteNode) opName() string { return OpDeleteNode }
func (UpdateNode) opName() string { return OpUpdateNode }
func (MoveNode) opName() string   { return OpMoveNode }
func (CreateEdge) opName() string { return OpCreateEdge }
func (DeleteEdge) opName() string { return OpDeleteEdge }
func (UpdateEdge) opName() string { return OpUpdateEdge }

// OpName returns the wire name of op, e.g. "create_node".
func OpName(op MutationOp) string {
	if op == nil {
		return ""
	}
	return op.opName()
}

type opJSON struct {
	Op          string          `json:"op"`
	TempID      string          `json:"temp_id,omitempty"`
	Type        NodeType        `json:"type,omitempty"`
	Position    json.RawMessage `json:"position,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	Dimensions  *Dimensions     `json:"dimensions,omitempty"`
	NodeID      string          `json:"node_id,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	PreservedBy string          `json:"preserved_by,omitempty"`
	Patch       json.RawMessage `json:"patch,omitempty"`
	Source      string          `json:"source,omitempty"`
	Target      string          `json:"target,omitempty"`
	EdgeID      string          `json:"edge_id,omitempty"`
}

func encodeOp(op MutationOp) (json.RawMessage, error) {
	if op == nil {
		return nil, fmt.Errorf("graphplan: encode op: nil op")
	}
	oj := opJSON{Op: op.opName()}
	var err error
	switch op := op.(type) {
	case CreateNode:
		oj.TempID, oj.Type, oj.Dimensions = op.TempID, op.Type, op.Dimensions
		if oj.Position, err = encodePosition(op.Position); err != nil {
			return nil, err
		}
		if op.Data != nil {
			if oj.Data, err = json.Marshal(op.Data); err != nil {
				return nil, err
			}
		}
	case DeleteNode:
		oj.NodeID, oj.Reason, oj.PreservedBy = op.NodeID, op.Reason, op.PreservedBy
	case UpdateNode:
		oj.NodeID = op.NodeID
		if oj.Patch, err = json.Marshal(op.Patch); err != nil {
			return nil, err
		}
	case MoveNode:
		oj.NodeID = op.NodeID
		if oj.Position, err = encodePosition(op.Position); err != nil {
			return nil, err
		}
	case CreateEdge:
		oj.TempID, oj.Source, oj.Target = op.TempID, op.Source, op.Target
		if op.Data != nil {
			if oj.Data, err = json.Marshal(op.Data); err != nil {
				return nil, err
			}
		}
	case DeleteEdge:
		oj.EdgeID = op.EdgeID
	case UpdateEdge:
		oj.EdgeID = op.EdgeID
		if oj.Patch, err = json.Marshal(op.Patch); err != nil {
			return nil, err
		}
	}
	return json.Marshal(oj)
}

func decodeOp(raw json.RawMessage) (MutationOp, error) {
	var oj opJSON
	if err := json.Unmarshal(raw, &oj); err != nil {
		return nil, fmt.Errorf("graphplan: decode op: %w", err)
	}
	switch oj.Op {
	case OpCreateNode:
		pos, err := decodePosition(oj.Position)
		if err != nil {
			return nil, err
		}
		op := CreateNode{TempID: oj.TempID, Type: oj.Type, Position: pos, Dimensions: oj.Dimensions}
		if err := unmarshalOptional(oj.Data, &op.Data); err != nil {
			return nil, fmt.Errorf("graphplan: decode create_node data: %w", err)
		}
		return op, nil
	case OpDeleteNode:
		return DeleteNode{NodeID: oj.NodeID, Reason: oj.Reason, PreservedBy: oj.PreservedBy}, nil
	case OpUpdateNode:
		op := UpdateNode{NodeID: oj.NodeID}
		if err := unmarshalOptional(oj.Patch, &op.Patch); err != nil {
			return nil, fmt.Errorf("graphplan: decode update_node patch: %w", err)
		}
		return op, nil
	case OpMoveNode:
		pos, err := decodePosition(oj.Position)
		if err != nil {
			return nil, err
		}
		return MoveNode{NodeID: oj.NodeID, Position: pos}, nil
	case OpCreateEdge:
		op := CreateEdge{TempID: oj.TempID, Source: oj.Source, Target: oj.Target}
		if len(oj.Data) > 0 && string(oj.Data) != "null" {
			d := DefaultEdgeData()
			if err := json.Unmarshal(oj.Data, &d); err != nil {
				return nil, fmt.Errorf("graphplan: decode create_edge data: %w", err)
			}
			op.Data = &d
		}
		return op, nil
	case OpDeleteEdge:
		return DeleteEdge{EdgeID: oj.EdgeID}, nil
	case OpUpdateEdge:
		op := UpdateEdge{EdgeID: oj.EdgeID}
		if err := unmarshalOptional(oj.Patch, &op.Patch); err != nil {
			return nil, fmt.Errorf("graphplan: decode update_edge patch: %w", err)
		}
		return op, nil
	}
	return nil, fmt.Errorf("graphplan: decode op: unknown op %q", oj.Op)
}

func unmarshalOptional(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}
