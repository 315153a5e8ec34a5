package engine

import (
	"fmt"

	"github.com/meikuraledutech/graphplan"
)

// positionOf returns the symbolic position an op is placed with, if any.
func positionOf(op graphplan.MutationOp) (graphplan.RelativePosition, bool) {
	switch op := op.(type) {
	case graphplan.CreateNode:
		return op.Position, true
	case graphplan.MoveNode:
		return op.Position, true
	}
	return nil, false
}

// producedRef is the reference whose position an op establishes.
func producedRef(op graphplan.MutationOp) string {
	switch op := op.(type) {
	case graphplan.CreateNode:
		return op.TempID
	case graphplan.MoveNode:
		return op.NodeID
	}
	return ""
}

// sortOps orders op indices so that an op placed relative to another op's
// node comes after it. Ops without in-plan dependencies keep their relative
// order. A cycle is broken where it is detected: the op that closes it is
// emitted without waiting and a warning is recorded.
//
// Creations run in a pass before any move, so a CreateNode only ever waits
// on another CreateNode. A MoveNode may wait on either.
func sortOps(ops []graphplan.MutationOp) ([]int, []graphplan.Warning) {
	created := make(map[string]int)
	producers := make(map[string]int)
	for i, op := range ops {
		ref := producedRef(op)
		if ref == "" {
			continue
		}
		if _, ok := producers[ref]; !ok {
			producers[ref] = i
		}
		if _, ok := op.(graphplan.CreateNode); ok {
			if _, ok := created[ref]; !ok {
				created[ref] = i
			}
		}
	}

	deps := make(map[int]int)
	anchors := make(map[int]string)
	for i, op := range ops {
		pos, ok := positionOf(op)
		if !ok {
			continue
		}
		anchor, ok := graphplan.AnchorOf(pos)
		if !ok {
			continue
		}
		from := producers
		if _, ok := op.(graphplan.CreateNode); ok {
			from = created
		}
		if j, ok := from[anchor]; ok && j != i {
			deps[i] = j
			anchors[i] = anchor
		}
	}

	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)

	state := make([]int, len(ops))
	order := make([]int, 0, len(ops))
	var warnings []graphplan.Warning

	var visit func(i int)
	visit = func(i int) {
		state[i] = visiting
		if j, ok := deps[i]; ok {
			switch state[j] {
			case visiting:
				warnings = append(warnings, graphplan.Warning{
					Code:    graphplan.WarnDependencyCycle,
					OpIndex: i,
					Ref:     anchors[i],
					Message: fmt.Sprintf("%v: op %d and op %d position each other; op %d placed first", graphplan.ErrDependencyCycle, i, j, i),
				})
			case unvisited:
				visit(j)
			}
		}
		state[i] = visited
		order = append(order, i)
	}

	for i := range ops {
		if state[i] == unvisited {
			visit(i)
		}
	}
	return order, warnings
}
