package graphplan

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// MutationPlan is an ordered list of ops produced by a planner, plus the
// planner's own commentary. It is treated as immutable input.
type MutationPlan struct {
	Ops         []MutationOp
	Explanation string
	Warnings    []string
}

type planJSON struct {
	Ops         []json.RawMessage `json:"ops"`
	Explanation string            `json:"explanation,omitempty"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// MarshalJSON encodes each op with its "op" discriminator.
func (p MutationPlan) MarshalJSON() ([]byte, error) {
	pj := planJSON{Explanation: p.Explanation, Warnings: p.Warnings, Ops: make([]json.RawMessage, 0, len(p.Ops))}
	for i, op := range p.Ops {
		raw, err := encodeOp(op)
		if err != nil {
			return nil, fmt.Errorf("graphplan: op %d: %w", i, err)
		}
		pj.Ops = append(pj.Ops, raw)
	}
	return json.Marshal(pj)
}

// UnmarshalJSON decodes the tagged op envelopes.
func (p *MutationPlan) UnmarshalJSON(b []byte) error {
	var pj planJSON
	if err := json.Unmarshal(b, &pj); err != nil {
		return fmt.Errorf("graphplan: decode plan: %w", err)
	}
	ops := make([]MutationOp, 0, len(pj.Ops))
	for i, raw := range pj.Ops {
		op, err := decodeOp(raw)
		if err != nil {
			return fmt.Errorf("graphplan: op %d: %w", i, err)
		}
		ops = append(ops, op)
	}
	*p = MutationPlan{Ops: ops, Explanation: pj.Explanation, Warnings: pj.Warnings}
	return nil
}

// PlanFormat selects the encoding ReadPlan expects.
type PlanFormat string

const (
	FormatJSON PlanFormat = "json"
	FormatYAML PlanFormat = "yaml"
)

// FormatFromPath guesses a plan format from a file name.
func FormatFromPath(path string) PlanFormat {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return FormatYAML
	}
	return FormatJSON
}

// ReadPlan decodes a plan from r. YAML documents are normalised to JSON and
// go through the same op envelopes, so both formats share field names.
func ReadPlan(r io.Reader, format PlanFormat) (*MutationPlan, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("graphplan: read plan: %w", err)
	}
	if format == FormatYAML {
		var doc any
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("graphplan: parse yaml plan: %w", err)
		}
		if b, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("graphplan: convert yaml plan: %w", err)
		}
	}
	var p MutationPlan
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
