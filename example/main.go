package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/meikuraledutech/graphplan"
	"github.com/meikuraledutech/graphplan/engine"
	"github.com/meikuraledutech/graphplan/history"
	"github.com/meikuraledutech/graphplan/logger"
	"github.com/meikuraledutech/graphplan/memory"
)

// A planner's answer to "split photosynthesis into its two stages". Note
// that "light" is placed relative to "overview", which comes later.
const planJSON = `{
  "explanation": "Split the topic into light and dark reactions",
  "ops": [
    {"op": "create_node", "temp_id": "light", "type": "concept",
     "position": {"kind": "relative_to", "anchor": "overview", "direction": "below", "offset": 60},
     "data": {"title": "Light reactions"}},
    {"op": "create_node", "temp_id": "dark", "type": "concept",
     "position": {"kind": "relative_to", "anchor": "light", "direction": "right", "offset": 80},
     "data": {"title": "Calvin cycle"}},
    {"op": "create_node", "temp_id": "overview", "type": "note",
     "position": {"kind": "center_of_view"},
     "data": {"title": "Overview", "body": "Replaces the old photosynthesis note"}},
    {"op": "create_edge", "source": "overview", "target": "light"},
    {"op": "create_edge", "source": "overview", "target": "dark"},
    {"op": "delete_node", "node_id": "old", "reason": "superseded"},
    {"op": "create_node", "temp_id": "q", "type": "question",
     "position": {"kind": "cluster", "near": "dark", "spread": 120},
     "data": {"title": "Where does the oxygen come from?"}}
  ]
}`

func main() {
	log := logger.New("info", "text", os.Stderr)

	// ── Seed a workspace ──────────────────────────────────────────────
	seed := graphplan.NewSnapshot()
	seed.Bounds = graphplan.Bounds{Width: 1280, Height: 800}
	seed.Nodes["old"] = &graphplan.Node{
		ID: "old", Type: graphplan.NodeNote,
		Position: graphplan.Position{X: 40, Y: 40}, Width: 200, Height: 100,
		Data: map[string]any{"title": "Photosynthesis"},
	}
	ws := memory.FromSnapshot(seed)
	stack := history.NewStack(history.DefaultCapacity)
	e := engine.New(log, engine.WithSeed(7))

	var plan graphplan.MutationPlan
	if err := json.Unmarshal([]byte(planJSON), &plan); err != nil {
		log.Error("decode plan", logger.Error(err))
		os.Exit(1)
	}

	// ── Preview ───────────────────────────────────────────────────────
	ps, err := e.Preview(&plan, ws.Snapshot())
	if err != nil {
		log.Error("preview", logger.Error(err))
		os.Exit(1)
	}
	fmt.Println("preview:")
	for _, g := range ps.GhostNodes {
		fmt.Printf("  ghost %-9s at (%.0f, %.0f)\n", g.TempID, g.Position.X, g.Position.Y)
	}
	for _, d := range ps.Deletions {
		fmt.Printf("  delete %s (%s), content kept in %q\n", d.NodeID, d.Reason, d.PreservedIn)
	}

	// ── Execute ───────────────────────────────────────────────────────
	res := e.Execute(&plan, ws, stack)
	if !res.Success {
		log.Error("execute", logger.Error(res.Error))
		os.Exit(1)
	}
	fmt.Println("\nexecuted:")
	printJSON(res)

	// ── Undo ──────────────────────────────────────────────────────────
	batch, ok := stack.Undo()
	if !ok {
		log.Error("nothing to undo")
		os.Exit(1)
	}
	if err := ws.Commit(batch.Invert()); err != nil {
		log.Error("undo", logger.Error(err))
		os.Exit(1)
	}
	nodes, edges := ws.Counts()
	fmt.Printf("\nafter undo: %d nodes, %d edges (%s)\n", nodes, edges, summary(batch))
}

func summary(b graphplan.HistoryBatch) string {
	parts := make([]string, 0, len(b.Actions))
	for _, d := range b.Actions {
		parts = append(parts, d.DeltaType())
	}
	return strings.Join(parts, ", ")
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("marshal: %v", err)
	}
	fmt.Println(string(b))
}
