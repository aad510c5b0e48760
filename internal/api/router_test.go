package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphastack/backend/internal/api/handlers"
	"github.com/alphastack/backend/internal/contracts"
	"github.com/alphastack/backend/internal/decision"
	"github.com/alphastack/backend/internal/positions"
	"github.com/alphastack/backend/internal/rules"
	"github.com/alphastack/backend/internal/store"
	"github.com/alphastack/backend/pkg/config"
	"github.com/alphastack/backend/pkg/logger"
)

const testAdminToken = "sekrit"

type testAPI struct {
	router    http.Handler
	store     store.Store
	positions *positions.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := logger.NewNop()

	st, err := store.NewSQLite(config.DatabaseConfig{Path: ":memory:"}, log)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Initialize(context.Background()))

	pos := positions.NewStore()
	engine := decision.NewEngine(st, decision.NewRepository(st), pos, config.DecisionConfig{
		MinScore:    75,
		TopN:        5,
		EntryMult:   1.0,
		StopMult:    0.90,
		Target1Mult: 1.25,
		Target2Mult: 1.60,
	}, log)

	h := Handlers{
		Discoveries: handlers.NewDiscoveryHandler(st, log),
		Decisions:   handlers.NewDecisionHandler(engine, log),
		Fills:       handlers.NewFillHandler(positions.NewReconciler(pos, log), engine, log),
		Rules:       handlers.NewRulesHandler(rules.NewStore(log), log),
		Status:      handlers.NewStatusHandler(nil, st, pos, log),
	}

	return &testAPI{
		router:    NewRouter(h, testAdminToken, log),
		store:     st,
		positions: pos,
	}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error.Kind
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, "GET", "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestIngest_ValidDiscovery(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, "POST", "/api/discoveries", map[string]interface{}{
		"ticker": "nvda",
		"score":  82.5,
		"price":  100.0,
		"relVol": 3.2,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	row, err := a.store.Get(context.Background(), "SELECT ticker, score FROM discoveries WHERE ticker = ?", "NVDA")
	require.NoError(t, err)
	require.NotNil(t, row, "ticker is uppercased before persisting")
	assert.Equal(t, 82.5, row["score"])
}

func TestIngest_InvalidDiscoveryRejected(t *testing.T) {
	a := newTestAPI(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing ticker", map[string]interface{}{"score": 50}},
		{"empty ticker", map[string]interface{}{"ticker": "", "score": 50}},
		{"score out of range", map[string]interface{}{"ticker": "NVDA", "score": 101}},
		{"missing score", map[string]interface{}{"ticker": "NVDA"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, "POST", "/api/discoveries", tt.body, nil)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, handlers.KindValidation, errorKind(t, rec))
		})
	}

	// nothing persisted
	rows, err := a.store.All(context.Background(), "SELECT * FROM discoveries")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDiscoveriesLatest_OrderedByScore(t *testing.T) {
	a := newTestAPI(t)

	for ticker, score := range map[string]float64{"AAA": 60, "BBB": 90, "CCC": 75} {
		rec := a.do(t, "POST", "/api/discoveries", map[string]interface{}{"ticker": ticker, "score": score}, nil)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := a.do(t, "GET", "/api/discoveries/latest", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Count       int                   `json:"count"`
		Discoveries []contracts.Discovery `json:"discoveries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, 3, payload.Count)
	assert.Equal(t, "BBB", payload.Discoveries[0].Ticker)
	assert.Equal(t, "AAA", payload.Discoveries[2].Ticker)
}

func TestGenerate_RequiresAdminToken(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, "POST", "/api/decisions/generate", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorKind(t, rec))

	rec = a.do(t, "POST", "/api/decisions/generate", nil, map[string]string{"X-Admin-Token": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, "POST", "/api/decisions/generate", nil, map[string]string{"X-Admin-Token": testAdminToken})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func seedScoredCandidate(t *testing.T, a *testAPI, ticker string, score, price float64) {
	t.Helper()
	_, err := a.store.Run(context.Background(),
		"INSERT INTO discoveries (ticker, score, price, updated_at) VALUES (?, ?, ?, ?)",
		ticker, score, price, time.Now().UTC().Format(time.RFC3339),
	)
	require.NoError(t, err)
}

func TestDecisionLifecycleOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	seedScoredCandidate(t, a, "NVDA", 88, 100.0)

	// generate
	rec := a.do(t, "POST", "/api/decisions/generate", nil, map[string]string{"X-Admin-Token": testAdminToken})
	require.Equal(t, http.StatusOK, rec.Code)

	var generated struct {
		Created   int                  `json:"created"`
		Decisions []contracts.Decision `json:"decisions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &generated))
	require.Equal(t, 1, generated.Created)
	id := generated.Decisions[0].ID

	// read model shows it
	rec = a.do(t, "GET", "/api/decisions/latest", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id)

	// execute
	rec = a.do(t, "POST", fmt.Sprintf("/api/decisions/%s/executed", id),
		map[string]interface{}{"order_id": "ord-1", "qty": 25}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	p, ok := a.positions.GetByOrderID("ord-1")
	require.True(t, ok)
	assert.Equal(t, contracts.PositionPending, p.Status)

	// executing twice is a conflict
	rec = a.do(t, "POST", fmt.Sprintf("/api/decisions/%s/executed", id),
		map[string]interface{}{"order_id": "ord-2", "qty": 25}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, handlers.KindConflict, errorKind(t, rec))

	// fill webhook advances the position
	rec = a.do(t, "POST", "/api/fills", map[string]interface{}{
		"order_id": "ord-1",
		"ticker":   "NVDA",
		"qty":      25,
		"avg_cost": 100.5,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	p, _ = a.positions.GetByOrderID("ord-1")
	assert.Equal(t, contracts.PositionFilled, p.Status)
	assert.Equal(t, 100.5, p.FilledAvgPrice)

	// the backing decision follows the fill
	row, err := a.store.Get(context.Background(), "SELECT status FROM decisions WHERE id = ?", id)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, string(contracts.DecisionFilled), row["status"])
}

func TestCancelDecision(t *testing.T) {
	a := newTestAPI(t)
	seedScoredCandidate(t, a, "TSLA", 80, 200.0)

	rec := a.do(t, "POST", "/api/decisions/generate", nil, map[string]string{"X-Admin-Token": testAdminToken})
	require.Equal(t, http.StatusOK, rec.Code)

	var generated struct {
		Decisions []contracts.Decision `json:"decisions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &generated))
	id := generated.Decisions[0].ID

	rec = a.do(t, "POST", fmt.Sprintf("/api/decisions/%s/cancel", id), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// cancelling a terminal decision is a conflict
	rec = a.do(t, "POST", fmt.Sprintf("/api/decisions/%s/cancel", id), nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestFills_Validation(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, "POST", "/api/fills", map[string]interface{}{"ticker": "NVDA"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do(t, "POST", "/api/fills", map[string]interface{}{"order_id": "x"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do(t, "POST", "/api/fills", map[string]interface{}{"order_id": "ghost", "ticker": "NVDA"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, handlers.KindNotFound, errorKind(t, rec))
}

func TestRulesEndpoints(t *testing.T) {
	a := newTestAPI(t)

	// defaults come back for an unconfigured ticker
	rec := a.do(t, "GET", "/api/rules/NVDA", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got contracts.TickerRules
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, contracts.DefaultTickerRules(), got)

	// out-of-range write rejected
	rec = a.do(t, "PUT", "/api/rules/NVDA", contracts.TickerRules{TP1Pct: 1.5, TP2Pct: 0.5, StopPct: 0.1}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// valid write sticks
	want := contracts.TickerRules{TP1Pct: 0.2, TP2Pct: 0.8, StopPct: 0.12}
	rec = a.do(t, "PUT", "/api/rules/NVDA", want, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, "GET", "/api/rules/NVDA", nil, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, want, got)

	rec = a.do(t, "GET", "/api/rules", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
}

func TestStatus_MasksConnection(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, "GET", "/api/status", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"embedded"`)
	assert.Contains(t, rec.Body.String(), "sqlite://")
}
