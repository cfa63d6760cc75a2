package tsumego

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domain "tsumego_exe/internal/domain/tsumego"
	"tsumego_exe/internal/httpresponse"
	"tsumego_exe/internal/repository"
	tsumegouc "tsumego_exe/internal/usecase/tsumego"
)

func rows(player uint64) domain.PositionJSON {
	return domain.PositionJSON{
		VisualArea:  []uint64{511, 511},
		LogicalArea: []uint64{511, 511},
		Player:      []uint64{player},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	bound := domain.DualBound{Plain: domain.Bound{Low: 0, High: 1}, Forcing: domain.Bound{Low: 0, High: 1}}
	child := domain.DualBound{Plain: domain.Bound{Low: -1, High: 0}, Forcing: domain.Bound{Low: -1, High: 0}}
	g, err := repository.BuildSolvedGraph(repository.GraphFile{
		Slug:  "sample",
		Moves: []domain.Coordinate{{X: 4, Y: 2}},
		Nodes: []repository.GraphFileNode{
			{State: rows(1), Value: &bound, Edges: []repository.GraphFileEdge{{Move: 0, Result: domain.Normal, Child: 1}}},
			{State: rows(2), Value: &child},
		},
	})
	require.NoError(t, err)
	analyzer, err := tsumegouc.NewLocalAnalyzer(g)
	require.NoError(t, err)

	store := repository.NewMemoryCollectionStorage(domain.Collection{
		Slug:     "sample",
		Title:    "Sample",
		Root:     rows(1),
		Tsumegos: []domain.Tsumego{{Slug: "first", Subtitle: "Black to live", State: rows(1), Value: &domain.Bound{Low: 0, High: 1}}},
	})
	log := zap.NewNop().Sugar()
	h := NewTsumegoHandler(log, tsumegouc.NewTsumegoUseCase(log, store, nil, analyzer, 1))

	r := chi.NewRouter()
	h.Register(r)
	return r
}

type envelope struct {
	Status int             `json:"Status"`
	Body   json.RawMessage `json:"Body"`
}

func do(t *testing.T, router http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, rec.Code, env.Status)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	return rec.Code, env
}

func TestHandleCollections(t *testing.T) {
	router := newTestRouter(t)

	code, env := do(t, router, http.MethodGet, "/tsumego", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"collections":[{"slug":"sample","title":"Sample"}]}`, string(env.Body))

	code, env = do(t, router, http.MethodGet, "/tsumego/sample", "")
	require.Equal(t, http.StatusOK, code)
	var col domain.CollectionResponse
	require.NoError(t, json.Unmarshal(env.Body, &col))
	assert.Equal(t, "Sample", col.Title)
	assert.Equal(t, []domain.TsumegoSummary{{Slug: "first", Subtitle: "Black to live"}}, col.Tsumegos)

	code, _ = do(t, router, http.MethodGet, "/tsumego/unknown", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHandleTsumego(t *testing.T) {
	router := newTestRouter(t)

	code, env := do(t, router, http.MethodGet, "/tsumego/sample/first", "")
	require.Equal(t, http.StatusOK, code)
	var ts domain.TsumegoResponse
	require.NoError(t, json.Unmarshal(env.Body, &ts))
	assert.Equal(t, "Black to live", ts.Subtitle)
	assert.Equal(t, rows(1), ts.State)

	code, _ = do(t, router, http.MethodGet, "/tsumego/sample/second", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHandleAnalyze(t *testing.T) {
	router := newTestRouter(t)

	code, env := do(t, router, http.MethodPost, "/tsumego/sample", `{"state":{"visualArea":[511,511],"logicalArea":[511,511],"player":[1]}}`)
	require.Equal(t, http.StatusOK, code)
	var result domain.AnalysisResult
	require.NoError(t, json.Unmarshal(env.Body, &result))
	assert.Equal(t, 0.0, result.Low)
	assert.Equal(t, 1.0, result.High)
	require.Len(t, result.Moves, 1)
	assert.Equal(t, 4, result.Moves[0].X)
	assert.Equal(t, 2, result.Moves[0].Y)
	assert.True(t, result.Moves[0].LowIdeal)
	assert.True(t, result.Moves[0].HighIdeal)

	code, _ = do(t, router, http.MethodPost, "/tsumego/sample", `{"state":`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, router, http.MethodPost, "/tsumego/sample", `{"state":{"player":[4096]}}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, router, http.MethodPost, "/tsumego/sample", `{"state":{"player":[5]}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	code, _ = do(t, router, http.MethodPost, "/tsumego/unknown", `{"state":{}}`)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHandleAnalyzeAcceptsTactics(t *testing.T) {
	router := newTestRouter(t)
	query := `{"state":{"visualArea":[511,511],"logicalArea":[511,511],"player":[1]}}`

	_, plainEnv := do(t, router, http.MethodPost, "/tsumego/sample", query)
	for _, tactics := range []string{"none", "delay", "forcing"} {
		body := `{"state":{"visualArea":[511,511],"logicalArea":[511,511],"player":[1]},"tactics":"` + tactics + `"}`
		code, env := do(t, router, http.MethodPost, "/tsumego/sample", body)
		require.Equal(t, http.StatusOK, code, tactics)
		assert.JSONEq(t, string(plainEnv.Body), string(env.Body), tactics)
	}

	code, _ := do(t, router, http.MethodPost, "/tsumego/sample", `{"state":{},"tactics":"greedy"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHandleVerify(t *testing.T) {
	router := newTestRouter(t)

	code, env := do(t, router, http.MethodGet, "/tsumego/sample/verify", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"collection":"sample","checked":1,"mismatches":[]}`, string(env.Body))
}

func TestHandleExplore(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/tsumego/sample/explore"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(domain.AnalyzeRequest{State: rows(1), Tactics: domain.TacticsForcing}))
	var env envelope
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, http.StatusOK, env.Status)
	var result domain.AnalysisResult
	require.NoError(t, json.Unmarshal(env.Body, &result))
	assert.Equal(t, []domain.Coordinate{{X: 4, Y: 2}}, result.HighPrincipal)

	require.NoError(t, conn.WriteJSON(domain.AnalyzeRequest{State: rows(9)}))
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, http.StatusUnprocessableEntity, env.Status)
	var failure httpresponse.ErrorResponse
	require.NoError(t, json.Unmarshal(env.Body, &failure))
	assert.NotEmpty(t, failure.ErrorDescription)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/tsumego/unknown/explore", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
