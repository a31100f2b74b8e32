package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SilverReport/internal/model"
	"SilverReport/internal/recorder"
	"SilverReport/internal/report"
	"SilverReport/internal/scheduler"
)

func init() { gin.SetMode(gin.TestMode) }

type gatedRunner struct {
	started chan struct{}
	release chan struct{}
}

func (r *gatedRunner) Run(context.Context) *model.ReportPair {
	r.started <- struct{}{}
	<-r.release
	ts := time.Date(2024, 1, 2, 11, 0, 0, 0, time.UTC)
	return &model.ReportPair{
		RunID:         "new",
		Timestamp:     &ts,
		BullishReport: "new bull",
		BearishReport: "new bear",
		Analyzed:      true,
		MarketData:    model.MarketSnapshot{"Silver": {{Datetime: "2024-01-02T11:00:00Z", Close: model.Float(23)}}},
		NewsData:      []model.NewsItem{{Title: "fresh"}},
	}
}

type stubHistory struct {
	runs []recorder.RunSummary
	err  error
}

func (h stubHistory) RecentRuns(limit int) ([]recorder.RunSummary, error) {
	if h.err != nil {
		return nil, h.err
	}
	if limit < len(h.runs) {
		return h.runs[:limit], nil
	}
	return h.runs, nil
}

func do(t *testing.T, r http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func newTestRouter(store *report.Store, trig Triggerer, hist History) *gin.Engine {
	return NewRouter(NewHandler(store, trig, hist, []string{"Silver", "Gold"}), []string{"http://localhost:3000"})
}

func TestRoot(t *testing.T) {
	r := newTestRouter(report.NewStore(), nil, stubHistory{})
	w := do(t, r, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Silver Report AI Service Running"}`, w.Body.String())
}

func TestLatest_InitialRecord(t *testing.T) {
	r := newTestRouter(report.NewStore(), nil, stubHistory{})

	w := do(t, r, http.MethodGet, "/report/latest")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[map[string]any](t, w)
	assert.Nil(t, body["timestamp"])
	assert.Equal(t, "Not generated yet.", body["bullish_report"])
	assert.Equal(t, "Not generated yet.", body["bearish_report"])
	assert.Equal(t, map[string]any{}, body["market_data"])
	assert.Equal(t, []any{}, body["news_data"])

	w = do(t, r, http.MethodGet, "/data/market")
	assert.JSONEq(t, `{}`, w.Body.String())
	w = do(t, r, http.MethodGet, "/data/news")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestTrigger_ReadsSeePreviousSnapshotUntilPublish(t *testing.T) {
	store := report.NewStore()
	oldTS := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	store.Publish(model.ReportPair{
		Timestamp:     &oldTS,
		BullishReport: "old bull",
		BearishReport: "old bear",
		Analyzed:      true,
		MarketData:    model.MarketSnapshot{},
		NewsData:      []model.NewsItem{},
	})

	runner := &gatedRunner{started: make(chan struct{}, 1), release: make(chan struct{})}
	sched := scheduler.NewScheduler(context.Background(), runner, store, recorder.NewNoopRecorder())
	r := newTestRouter(store, sched, stubHistory{})

	w := do(t, r, http.MethodPost, "/trigger-report")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["accepted"])

	<-runner.started
	w = do(t, r, http.MethodGet, "/report/latest")
	assert.Equal(t, "old bull", decode[model.ReportPair](t, w).BullishReport)

	w = do(t, r, http.MethodPost, "/trigger-report")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, false, decode[map[string]any](t, w)["accepted"])

	close(runner.release)
	sched.Wait()

	w = do(t, r, http.MethodGet, "/report/latest")
	pair := decode[model.ReportPair](t, w)
	assert.Equal(t, "new bull", pair.BullishReport)
	assert.Equal(t, "new bear", pair.BearishReport)

	w = do(t, r, http.MethodGet, "/data/market")
	market := decode[model.MarketSnapshot](t, w)
	require.Len(t, market["Silver"], 1)
	assert.Equal(t, 23.0, *market["Silver"][0].Close)
}

func TestSummary(t *testing.T) {
	store := report.NewStore()
	store.Publish(model.ReportPair{MarketData: model.MarketSnapshot{
		"Silver": {
			{Datetime: "2024-01-02T10:00:00Z", Close: model.Float(20)},
			{Datetime: "2024-01-02T11:00:00Z", Close: model.Float(22)},
		},
	}})
	r := newTestRouter(store, nil, stubHistory{})

	w := do(t, r, http.MethodGet, "/data/summary")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Assets []model.AssetDigest `json:"assets"`
	}](t, w)
	require.Len(t, body.Assets, 2)
	assert.Equal(t, "Silver", body.Assets[0].Asset)
	assert.InDelta(t, 10.0, body.Assets[0].ChangePct, 1e-9)
	assert.Equal(t, "Gold", body.Assets[1].Asset)
	assert.Equal(t, 0, body.Assets[1].Bars)
}

func TestHistory(t *testing.T) {
	hist := stubHistory{runs: []recorder.RunSummary{{RunID: "b"}, {RunID: "a"}}}
	r := newTestRouter(report.NewStore(), nil, hist)

	w := do(t, r, http.MethodGet, "/report/history?limit=1")
	require.Equal(t, http.StatusOK, w.Code)
	runs := decode[[]recorder.RunSummary](t, w)
	require.Len(t, runs, 1)
	assert.Equal(t, "b", runs[0].RunID)

	w = do(t, r, http.MethodGet, "/report/history?limit=zero")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	r = newTestRouter(report.NewStore(), nil, stubHistory{err: errors.New("db locked")})
	w = do(t, r, http.MethodGet, "/report/history")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCORS(t *testing.T) {
	r := newTestRouter(report.NewStore(), nil, stubHistory{})
	req := httptest.NewRequest(http.MethodGet, "/report/latest", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	srv := New("127.0.0.1:0", http.NotFoundHandler())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
