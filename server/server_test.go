package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/graphplan"
	"github.com/meikuraledutech/graphplan/config"
	"github.com/meikuraledutech/graphplan/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		HistoryCapacity: 10,
		Layout:          config.LayoutConfig{NodeSpacing: 50, GridSpacing: 250},
	}
}

func testApp(t *testing.T, store graphplan.Store) *fiber.App {
	t.Helper()
	return newServer(testConfig(), logger.Discard(), store).routes()
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, b
}

const twoNodePlan = `{"ops":[
  {"op":"create_node","temp_id":"b","type":"note","position":{"kind":"relative_to","anchor":"a","direction":"right","offset":50}},
  {"op":"create_node","temp_id":"a","type":"note","position":{"kind":"absolute","x":100,"y":100}},
  {"op":"create_edge","source":"a","target":"b"}
]}`

func TestServer_PreviewThenExecute(t *testing.T) {
	app := testApp(t, nil)

	code, body := do(t, app, http.MethodPost, "/workspaces/w1/preview", twoNodePlan)
	require.Equal(t, http.StatusOK, code, string(body))
	var ps graphplan.PreviewState
	require.NoError(t, json.Unmarshal(body, &ps))
	require.Len(t, ps.GhostNodes, 2)
	assert.Len(t, ps.EdgePreviews, 1)

	code, body = do(t, app, http.MethodGet, "/workspaces/w1", "")
	require.Equal(t, http.StatusOK, code)
	var snap graphplan.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Empty(t, snap.Nodes, "preview does not touch the workspace")

	code, body = do(t, app, http.MethodPost, "/workspaces/w1/execute", twoNodePlan)
	require.Equal(t, http.StatusOK, code, string(body))
	var res struct {
		Success bool              `json:"success"`
		IDMap   map[string]string `json:"id_map"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	assert.True(t, res.Success)

	_, body = do(t, app, http.MethodGet, "/workspaces/w1", "")
	snap = graphplan.Snapshot{}
	require.NoError(t, json.Unmarshal(body, &snap))
	require.Len(t, snap.Nodes, 2)
	require.Len(t, snap.Edges, 1)
	a, b := snap.Nodes[res.IDMap["a"]], snap.Nodes[res.IDMap["b"]]
	assert.Equal(t, a.Position.X+a.Width+50, b.Position.X)

	for _, g := range ps.GhostNodes {
		assert.Equal(t, snap.Nodes[res.IDMap[g.TempID]].Position, g.Position)
	}
}

func TestServer_UnknownTypeIs422(t *testing.T) {
	app := testApp(t, nil)

	code, body := do(t, app, http.MethodPost, "/workspaces/w1/execute",
		`{"ops":[{"op":"create_node","temp_id":"x","type":"spaceship","position":{"kind":"center_of_view"}}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, code)

	var resp struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "validation_error", resp.Error.Code)
	assert.Equal(t, "x", resp.Error.Details["temp_id"])
	assert.Equal(t, 0.0, resp.Error.Details["op_index"])

	code, _ = do(t, app, http.MethodPost, "/workspaces/w1/preview",
		`{"ops":[{"op":"create_node","type":"spaceship"}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestServer_BadBody(t *testing.T) {
	app := testApp(t, nil)

	code, body := do(t, app, http.MethodPost, "/workspaces/w1/execute", `{"ops":[{"op":"explode"}]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "bad_request")
}

func TestServer_UndoRedo(t *testing.T) {
	app := testApp(t, nil)

	code, _ := do(t, app, http.MethodPost, "/workspaces/w1/undo", "")
	assert.Equal(t, http.StatusConflict, code)

	code, _ = do(t, app, http.MethodPost, "/workspaces/w1/execute", twoNodePlan)
	require.Equal(t, http.StatusOK, code)

	_, body := do(t, app, http.MethodGet, "/workspaces/w1/history", "")
	var h historyResponse
	require.NoError(t, json.Unmarshal(body, &h))
	require.Len(t, h.Batches, 1)
	assert.Len(t, h.Batches[0].Actions, 3)
	assert.True(t, h.CanUndo)
	assert.False(t, h.CanRedo)

	code, _ = do(t, app, http.MethodPost, "/workspaces/w1/undo", "")
	require.Equal(t, http.StatusOK, code)
	_, body = do(t, app, http.MethodGet, "/workspaces/w1", "")
	var snap graphplan.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Empty(t, snap.Nodes)
	assert.Empty(t, snap.Edges)

	code, _ = do(t, app, http.MethodPost, "/workspaces/w1/redo", "")
	require.Equal(t, http.StatusOK, code)
	_, body = do(t, app, http.MethodGet, "/workspaces/w1", "")
	snap = graphplan.Snapshot{}
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Len(t, snap.Nodes, 2)

	code, _ = do(t, app, http.MethodPost, "/workspaces/w1/redo", "")
	assert.Equal(t, http.StatusConflict, code)
}

func TestServer_ViewportAndSelection(t *testing.T) {
	app := testApp(t, nil)

	code, _ := do(t, app, http.MethodPut, "/workspaces/w1/viewport",
		`{"viewport":{"x":-100,"y":-50,"zoom":2},"bounds":{"width":800,"height":600}}`)
	require.Equal(t, http.StatusNoContent, code)

	_, body := do(t, app, http.MethodPost, "/workspaces/w1/preview",
		`{"ops":[{"op":"create_node","temp_id":"v","type":"note","position":{"kind":"center_of_view"}}]}`)
	var ps graphplan.PreviewState
	require.NoError(t, json.Unmarshal(body, &ps))
	require.Len(t, ps.GhostNodes, 1)
	assert.Equal(t, graphplan.Position{X: 250, Y: 175}, ps.GhostNodes[0].Position)

	code, _ = do(t, app, http.MethodPut, "/workspaces/w1/selection", `{"ids":["n1"]}`)
	require.Equal(t, http.StatusNoContent, code)
	_, body = do(t, app, http.MethodGet, "/workspaces/w1", "")
	var snap graphplan.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, []string{"n1"}, snap.Selection)
}

func TestServer_MetricsAndHealth(t *testing.T) {
	app := testApp(t, nil)

	code, _ := do(t, app, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)

	do(t, app, http.MethodPost, "/workspaces/w1/execute", twoNodePlan)
	code, body := do(t, app, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `graphplan_plans_executed_total{outcome="success"} 1`)
	assert.Contains(t, string(body), "graphplan_workspaces_open 1")
}

// fakeStore keeps saved batches in memory and replays them on load.
type fakeStore struct {
	mu      sync.Mutex
	batches map[string][]graphplan.StoredBatch
	fail    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{batches: make(map[string][]graphplan.StoredBatch)}
}

func (f *fakeStore) CreateSchema(context.Context) error { return nil }
func (f *fakeStore) DropSchema(context.Context) error   { return nil }

func (f *fakeStore) LoadSnapshot(_ context.Context, id string) (*graphplan.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bs, ok := f.batches[id]
	if !ok {
		return nil, graphplan.ErrWorkspaceNotFound
	}
	snap := graphplan.NewSnapshot()
	for _, sb := range bs {
		if err := graphplan.ApplyBatch(snap, sb.Batch); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

func (f *fakeStore) SaveBatch(_ context.Context, id string, kind graphplan.BatchKind, b graphplan.HistoryBatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.batches[id] = append(f.batches[id], graphplan.StoredBatch{Kind: kind, Batch: b})
	return nil
}

func (f *fakeStore) ListBatches(_ context.Context, id string, limit int) ([]graphplan.StoredBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bs := f.batches[id]
	if limit > 0 && len(bs) > limit {
		bs = bs[len(bs)-limit:]
	}
	return append([]graphplan.StoredBatch(nil), bs...), nil
}

func TestServer_PersistsAndReloads(t *testing.T) {
	store := newFakeStore()

	code, _ := do(t, testApp(t, store), http.MethodPost, "/workspaces/w1/execute", twoNodePlan)
	require.Equal(t, http.StatusOK, code)

	// A fresh server sees the same graph and can undo the persisted batch.
	app := testApp(t, store)
	_, body := do(t, app, http.MethodGet, "/workspaces/w1", "")
	var snap graphplan.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Len(t, snap.Nodes, 2)

	code, _ = do(t, app, http.MethodPost, "/workspaces/w1/undo", "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, store.batches["w1"], 2)
	assert.Equal(t, graphplan.KindExecute, store.batches["w1"][0].Kind)
	assert.Equal(t, graphplan.KindUndo, store.batches["w1"][1].Kind)
}

func TestServer_ReloadKeepsUndoneBatchesRedoable(t *testing.T) {
	store := newFakeStore()
	first := testApp(t, store)

	code, _ := do(t, first, http.MethodPost, "/workspaces/w1/execute", twoNodePlan)
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, first, http.MethodPost, "/workspaces/w1/undo", "")
	require.Equal(t, http.StatusOK, code)

	app := testApp(t, store)
	_, body := do(t, app, http.MethodGet, "/workspaces/w1/history", "")
	var h historyResponse
	require.NoError(t, json.Unmarshal(body, &h))
	assert.Empty(t, h.Batches)
	assert.False(t, h.CanUndo)
	assert.True(t, h.CanRedo)

	code, _ = do(t, app, http.MethodPost, "/workspaces/w1/undo", "")
	assert.Equal(t, http.StatusConflict, code)

	code, _ = do(t, app, http.MethodPost, "/workspaces/w1/redo", "")
	require.Equal(t, http.StatusOK, code)
	_, body = do(t, app, http.MethodGet, "/workspaces/w1", "")
	var snap graphplan.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Len(t, snap.Nodes, 2)
	assert.Equal(t, graphplan.KindRedo, store.batches["w1"][2].Kind)
}

func TestServer_StoreFailureLeavesWorkspaceUntouched(t *testing.T) {
	store := newFakeStore()
	store.fail = errors.New("db down")
	app := testApp(t, store)

	code, body := do(t, app, http.MethodPost, "/workspaces/w1/execute", twoNodePlan)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.True(t, bytes.Contains(body, []byte("internal_error")))

	_, body = do(t, app, http.MethodGet, "/workspaces/w1/history", "")
	var h historyResponse
	require.NoError(t, json.Unmarshal(body, &h))
	assert.Empty(t, h.Batches)
	assert.False(t, h.CanUndo)
}
