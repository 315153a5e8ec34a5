package engine

import (
	"fmt"
	"log/slog"

	"github.com/meikuraledutech/graphplan"
	"github.com/meikuraledutech/graphplan/history"
	"github.com/meikuraledutech/graphplan/logger"
)

// Execute applies plan to ws as one transaction and pushes the resulting
// batch to rec (which may be nil).
//
// A hard failure (unknown node type, id exhaustion, commit error) leaves ws
// and rec untouched and returns Success=false. Soft failures are reported
// in Warnings and do not stop the plan. A plan whose ops all turn out to be
// no-ops commits nothing and records nothing.
func (e *Engine) Execute(plan *graphplan.MutationPlan, ws graphplan.Workspace, rec graphplan.Recorder) *graphplan.ExecutionResult {
	r, err := e.prepare(plan, ws.Snapshot(), e.newID)
	res := &graphplan.ExecutionResult{
		IDMap:    make(map[string]string),
		Warnings: r.warnings,
	}
	if err != nil {
		res.Error = err
		e.log.Error("plan rejected",
			slog.Int("ops", len(r.plan.Ops)),
			logger.Error(err))
		return res
	}
	e.logWarnings(r.warnings)

	if len(r.steps) > 0 {
		batch := history.Record(r.deltas())
		if err := ws.Commit(batch); err != nil {
			res.Error = fmt.Errorf("graphplan: commit: %w", err)
			e.log.Error("plan commit failed", logger.Error(err))
			return res
		}
		if rec != nil {
			rec.Push(batch)
		}
	}

	summarise(r, res)
	res.Success = true
	e.log.Info("plan executed",
		slog.Int("ops", len(r.plan.Ops)),
		slog.Int("deltas", len(r.steps)),
		slog.Int("created_nodes", len(res.CreatedNodeIDs)),
		slog.Int("warnings", len(res.Warnings)))
	return res
}

// summarise fills the id lists of res from the recorded steps. Nodes that
// were created or deleted by the plan are not also listed as modified.
func summarise(r *run, res *graphplan.ExecutionResult) {
	var modified []string
	created := make(map[string]bool)
	deleted := make(map[string]bool)
	for _, s := range r.steps {
		switch d := s.delta.(type) {
		case graphplan.NodeAdded:
			res.CreatedNodeIDs = append(res.CreatedNodeIDs, d.Node.ID)
			created[d.Node.ID] = true
		case graphplan.NodeDeleted:
			res.DeletedNodeIDs = append(res.DeletedNodeIDs, d.Node.ID)
			deleted[d.Node.ID] = true
		case graphplan.NodeUpdated:
			modified = append(modified, d.ID)
		case graphplan.NodeMoved:
			modified = append(modified, d.ID)
		case graphplan.EdgeAdded:
			res.CreatedEdgeIDs = append(res.CreatedEdgeIDs, d.Edge.ID)
		case graphplan.EdgeDeleted:
			res.DeletedEdgeIDs = append(res.DeletedEdgeIDs, d.Edge.ID)
		}
	}
	seen := make(map[string]bool)
	for _, id := range modified {
		if created[id] || deleted[id] || seen[id] {
			continue
		}
		seen[id] = true
		res.ModifiedNodeIDs = append(res.ModifiedNodeIDs, id)
	}
	for temp, id := range r.ids {
		res.IDMap[temp] = id
	}
}

func (e *Engine) logWarnings(warnings []graphplan.Warning) {
	for _, w := range warnings {
		e.log.Warn("plan partially honored",
			slog.String("code", w.Code),
			slog.Int("op", w.OpIndex),
			slog.String("ref", w.Ref),
			slog.String("detail", w.Message))
	}
}
