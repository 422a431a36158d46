package api

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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/sentiscope/internal/models"
	"github.com/spacesedan/sentiscope/internal/store"
)

type fixedClassifier struct {
	label models.Label
	score float64
	calls int
}

func (f *fixedClassifier) Classify(string) (models.Label, float64) {
	f.calls++
	return f.label, f.score
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string]models.Label
	scores  map[string]float64
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]models.Label{}, scores: map[string]float64{}}
}

func (c *mapCache) GetClassification(_ context.Context, text string) (models.Label, float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.entries[text]
	return l, c.scores[text], ok
}

func (c *mapCache) SetClassification(_ context.Context, text string, label models.Label, score float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[text] = label
	c.scores[text] = score
	return nil
}

type recordingPublisher struct {
	published []models.StoredAnalysis
	err       error
}

func (p *recordingPublisher) PublishAnalysisRecorded(_ context.Context, a models.StoredAnalysis) error {
	p.published = append(p.published, a)
	return p.err
}

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *store.MemoryStore, *fixedClassifier) {
	t.Helper()
	st := store.NewMemoryStore()
	cls := &fixedClassifier{label: models.LabelPositive, score: 0.92}
	srv := httptest.NewServer(NewServer(st, cls, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv, st, cls
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, bytes.TrimSpace(raw)
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/api/v1/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","message":"The API is up and running"}`, string(body))
}

func TestHealthDegraded(t *testing.T) {
	srv, _, _ := newTestServer(t, WithHealth(func() bool { return false }))
	resp, _ := do(t, http.MethodGet, srv.URL+"/api/v1/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestClassifySavesAndPublishes(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	srv, st, _ := newTestServer(t, WithPublisher(pub))

	resp, body := do(t, http.MethodPost, srv.URL+"/api/v1/classify", `{"text":"I love this product"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out models.ClassifyResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "POSITIVE", out.Label)
	assert.InDelta(t, 0.92, out.Score, 1e-9)

	saved, err := st.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "I love this product", saved[0].Text)
	require.Len(t, pub.published, 1, "publish failure must not fail the request")
}

func TestClassifyRejectsBlankText(t *testing.T) {
	srv, _, cls := newTestServer(t)
	resp, body := do(t, http.MethodPost, srv.URL+"/api/v1/classify", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"detail":"Text is required"}`, string(body))
	assert.Zero(t, cls.calls)
}

func TestClassifyUsesCache(t *testing.T) {
	cache := newMapCache()
	srv, _, cls := newTestServer(t, WithCache(cache))

	for range 2 {
		resp, _ := do(t, http.MethodPost, srv.URL+"/api/v1/classify", `{"text":"same text"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, 1, cls.calls)
}

func TestListHistoryEmptyIs404(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/api/v1/history/", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"detail":"Analysis history not found"}`, string(body))
}

func TestListHistory(t *testing.T) {
	srv, st, _ := newTestServer(t)
	for _, text := range []string{"one", "two", "three"} {
		_, err := st.Save(context.Background(), store.NewAnalysis{Text: text, Label: "POSITIVE", Confidence: 0.8})
		require.NoError(t, err)
	}

	resp, body := do(t, http.MethodGet, srv.URL+"/api/v1/history/?limit=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out models.HistoryListResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 2, out.Total)
	assert.Len(t, out.Analyses, 2)
}

func TestListHistoryRejectsBadLimit(t *testing.T) {
	srv, _, _ := newTestServer(t)
	for _, limit := range []string{"0", "51", "abc"} {
		resp, _ := do(t, http.MethodGet, srv.URL+"/api/v1/history/?limit="+limit, "")
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, limit)
	}
}

func TestSearchHistory(t *testing.T) {
	srv, st, _ := newTestServer(t)
	_, err := st.Save(context.Background(), store.NewAnalysis{Text: "great coffee", Label: "POSITIVE", Confidence: 0.9})
	require.NoError(t, err)
	_, err = st.Save(context.Background(), store.NewAnalysis{Text: "awful tea", Label: "NEGATIVE", Confidence: 0.7})
	require.NoError(t, err)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/v1/history/search?search_query=coffee", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out models.HistoryListResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Analyses, 1)
	assert.Equal(t, "great coffee", out.Analyses[0].Text)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/v1/history/search?search_query=juice", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/v1/history/search", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestGetAndDeleteHistory(t *testing.T) {
	srv, st, _ := newTestServer(t)
	saved, err := st.Save(context.Background(), store.NewAnalysis{Text: "hello", Label: "POSITIVE", Confidence: 0.6})
	require.NoError(t, err)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/v1/history/"+saved.ID.String(), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got models.StoredAnalysis
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, saved.ID, got.ID)

	resp, body = do(t, http.MethodDelete, srv.URL+"/api/v1/history/"+saved.ID.String(), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "true", string(body))

	resp, body = do(t, http.MethodDelete, srv.URL+"/api/v1/history/"+saved.ID.String(), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "false", string(body))

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/v1/history/"+saved.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSaveHistory(t *testing.T) {
	srv, st, _ := newTestServer(t)
	resp, body := do(t, http.MethodPost, srv.URL+"/api/v1/history/",
		`{"text":"manual","label":"negative","confidence":0.75}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var got models.StoredAnalysis
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "NEGATIVE", got.SentimentLabel)
	assert.InDelta(t, 0.75, got.NegativeScore, 1e-9)

	n, err := st.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, n, 1)

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/v1/history/", `{"text":"x","label":"POSITIVE","confidence":2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv, _, _ := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/classify", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
