package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketchflow-xyz/go-sketchflow/batch"
	"github.com/sketchflow-xyz/go-sketchflow/history"
	"github.com/sketchflow-xyz/go-sketchflow/scene"
	"github.com/sketchflow-xyz/go-sketchflow/server"
)

func newTestServer(t *testing.T) (*server.Server, *scene.Store, *history.MemoryStore) {
	t.Helper()
	doc := scene.NewStore()
	hist := history.NewMemoryStore()
	exec := batch.New(hist)
	return server.New(doc, exec, hist, zerolog.Nop()), doc, hist
}

func postJSON(t *testing.T, s *server.Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func get(t *testing.T, s *server.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestBatchEndpoint(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s, doc, _ := newTestServer(t)
		w := postJSON(t, s, "/api/v1/batch", server.BatchRequest{
			Script: `a=I(__document__, {"id":"f1","type":"frame","width":100})`,
		})
		require.Equal(t, http.StatusOK, w.Code)

		var res batch.Result
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.True(t, res.Success)
		assert.Equal(t, 1, res.OperationsExecuted)
		require.Len(t, res.CreatedNodes, 1)
		assert.Equal(t, "f1", res.CreatedNodes[0]["id"])
		assert.NotNil(t, doc.Get("f1"))
	})

	t.Run("RollbackIsStillHTTP200", func(t *testing.T) {
		s, doc, _ := newTestServer(t)
		w := postJSON(t, s, "/api/v1/batch", server.BatchRequest{Script: `D(missing)`})
		require.Equal(t, http.StatusOK, w.Code)

		var res batch.Result
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.False(t, res.Success)
		assert.NotEmpty(t, res.Error)
		assert.Empty(t, doc.Nodes)
	})

	t.Run("MissingScriptRejected", func(t *testing.T) {
		s, _, _ := newTestServer(t)
		w := postJSON(t, s, "/api/v1/batch", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTreeEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t)
	postJSON(t, s, "/api/v1/batch", server.BatchRequest{
		Script: `I(__document__, {"id":"f1","type":"frame","children":[{"id":"r1","type":"rect"}]})`,
	})

	w := get(t, s, "/api/v1/tree")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Roots []map[string]any `json:"roots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Roots, 1)
	assert.Equal(t, "f1", body.Roots[0]["id"])
	kids := body.Roots[0]["children"].([]any)
	assert.Equal(t, "r1", kids[0].(map[string]any)["id"])
}

func TestNodeEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t)
	postJSON(t, s, "/api/v1/batch", server.BatchRequest{
		Script: `I(__document__, {"id":"f1","type":"frame","children":[{"id":"g1","type":"group","children":[{"id":"g2","type":"group","children":[{"id":"r1","type":"rect"}]}]}]})`,
	})

	t.Run("DefaultDepth", func(t *testing.T) {
		w := get(t, s, "/api/v1/node/f1")
		require.Equal(t, http.StatusOK, w.Code)
		var node map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &node))
		level1 := node["children"].([]any)[0].(map[string]any)
		level2 := level1["children"].([]any)[0].(map[string]any)
		assert.Equal(t, "…", level2["children"])
	})

	t.Run("ExplicitDepth", func(t *testing.T) {
		w := get(t, s, "/api/v1/node/f1?depth=0")
		require.Equal(t, http.StatusOK, w.Code)
		var node map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &node))
		assert.Equal(t, "…", node["children"])
	})

	t.Run("NotFound", func(t *testing.T) {
		w := get(t, s, "/api/v1/node/missing")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestResolvedEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t)
	postJSON(t, s, "/api/v1/batch", server.BatchRequest{
		Script: `I(__document__, {"id":"card","type":"frame","reusable":true,"width":100,"children":[{"id":"icon","type":"rect","width":24}]})
inst=I(__document__, {"id":"i1","type":"ref","componentId":"card"})
U(inst+"/icon", {"fill":"#f00"})`,
	})

	t.Run("Resolved", func(t *testing.T) {
		w := get(t, s, "/api/v1/node/i1/resolved")
		require.Equal(t, http.StatusOK, w.Code)
		var node map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &node))
		assert.Equal(t, "i1", node["id"])
		assert.Equal(t, "frame", node["type"])
		icon := node["children"].([]any)[0].(map[string]any)
		assert.Equal(t, "#f00", icon["fill"])
	})

	t.Run("NotAnInstance", func(t *testing.T) {
		w := get(t, s, "/api/v1/node/card/resolved")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("DanglingComponent", func(t *testing.T) {
		postJSON(t, s, "/api/v1/batch", server.BatchRequest{
			Script: `I(__document__, {"id":"i2","type":"ref","componentId":"gone"})`,
		})
		w := get(t, s, "/api/v1/node/i2/resolved")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "{}", w.Body.String())
	})
}

func TestUndoEndpoint(t *testing.T) {
	s, doc, hist := newTestServer(t)
	postJSON(t, s, "/api/v1/batch", server.BatchRequest{
		Script: `I(__document__, {"id":"f1","type":"frame"})`,
	})
	require.Equal(t, 1, hist.Len())

	w := postJSON(t, s, "/api/v1/undo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, doc.Get("f1"))
	assert.Equal(t, 0, hist.Len())

	t.Run("EmptyHistory", func(t *testing.T) {
		w := postJSON(t, s, "/api/v1/undo", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
