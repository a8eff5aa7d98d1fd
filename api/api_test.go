package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pevans/dailyarticle/article"
	"github.com/pevans/dailyarticle/cache"
	"github.com/pevans/dailyarticle/config"
	"github.com/pevans/dailyarticle/runlog"
	"github.com/pevans/dailyarticle/scraper"
	"github.com/pevans/dailyarticle/selection"
	"github.com/pevans/dailyarticle/topics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeSelector returns canned results
type fakeSelector struct {
	today   *article.Article
	reload  *article.Article
	byTopic map[article.Topic]*article.Article
	err     error
	state   selection.State
	current *selection.DailySelection
	reloads int
}

func (f *fakeSelector) Today(ctx context.Context) (*article.Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.today, nil
}

func (f *fakeSelector) Reload(ctx context.Context) (*article.Article, error) {
	f.reloads++
	if f.err != nil {
		return nil, f.err
	}
	return f.reload, nil
}

func (f *fakeSelector) ByTopic(ctx context.Context, topic article.Topic) (*article.Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.byTopic[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %s", selection.ErrNoArticlesForTopic, topic)
	}
	return a, nil
}

func (f *fakeSelector) Current() *selection.DailySelection { return f.current }
func (f *fakeSelector) State() selection.State              { return f.state }

type fakeRuns struct {
	runs []runlog.Run
	err  error
}

func (f fakeRuns) Latest() ([]runlog.Run, error) { return f.runs, f.err }

type fakeCacheStats struct {
	stats *cache.Stats
	err   error
}

func (f fakeCacheStats) Stats() (*cache.Stats, error) { return f.stats, f.err }

var scienceArticle = &article.Article{
	Title:         "Rivers in trouble",
	URL:           "https://news.example.com/rivers",
	Summary:       "Short summary",
	Content:       "Full text",
	Source:        "BBC News",
	Topic:         article.TopicScience,
	PublishedDate: "Mon, 01 Jan 2024 10:00:00 GMT",
	ImageURL:      "https://img.example.com/rivers.jpg",
}

// Test helper: create a test router around a selector
func setupTestRouter(t *testing.T, sel *fakeSelector, opts Options) *gin.Engine {
	t.Helper()
	opts.Selector = sel
	opts.Topics = topics.Default()
	opts.Logger = zap.NewNop()
	return NewAPIServer(opts).SetupRouter()
}

func do(t *testing.T, router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

// TestHandleGetSelection verifies the render-ready article is returned
func TestHandleGetSelection(t *testing.T) {
	sel := &fakeSelector{
		today:   scienceArticle,
		state:   selection.StateSelected,
		current: &selection.DailySelection{Date: "2024-01-01", Article: *scienceArticle},
	}
	router := setupTestRouter(t, sel, Options{})

	w := do(t, router, http.MethodGet, "/api/v1/selection")

	require.Equal(t, http.StatusOK, w.Code)
	var resp SelectionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2024-01-01", resp.Date)
	assert.Equal(t, selection.StateSelected, resp.State)
	assert.Equal(t, "Rivers in trouble", resp.Article.Title)
	assert.Equal(t, "Science, environment, and technology", resp.Article.TopicName)
	assert.Equal(t, "Full text", resp.Article.Body)
	assert.Equal(t, "https://img.example.com/rivers.jpg", resp.Article.ImageURL)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

// TestHandleGetSelection_NoArticles verifies exhausted sources map to 503
func TestHandleGetSelection_NoArticles(t *testing.T) {
	sel := &fakeSelector{err: &selection.SelectionError{
		Kind: selection.KindNoArticlesAvailable,
		Err:  selection.ErrNoArticlesAvailable,
	}}
	router := setupTestRouter(t, sel, Options{})

	w := do(t, router, http.MethodGet, "/api/v1/selection")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "no_articles_available", decodeError(t, w))
}

// TestHandleGetSelection_InternalError verifies unexpected errors map to 500
func TestHandleGetSelection_InternalError(t *testing.T) {
	router := setupTestRouter(t, &fakeSelector{err: errors.New("disk on fire")}, Options{})

	w := do(t, router, http.MethodGet, "/api/v1/selection")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", decodeError(t, w))
}

// TestHandleReloadSelection verifies reload is POST only
func TestHandleReloadSelection(t *testing.T) {
	sel := &fakeSelector{reload: scienceArticle, state: selection.StateSelected}
	router := setupTestRouter(t, sel, Options{})

	w := do(t, router, http.MethodPost, "/api/v1/selection/reload")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, sel.reloads)

	w = do(t, router, http.MethodGet, "/api/v1/selection/reload")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1, sel.reloads)
}

// TestHandleListTopics verifies the normalized topic table
func TestHandleListTopics(t *testing.T) {
	router := setupTestRouter(t, &fakeSelector{}, Options{})

	w := do(t, router, http.MethodGet, "/api/v1/topics")

	require.Equal(t, http.StatusOK, w.Code)
	var resp TopicsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Topics, 4)
	assert.Equal(t, article.TopicBusiness, resp.Topics[0].Key)
	assert.InDelta(t, 0.5, resp.Topics[1].Probability, 1e-9)
	assert.Contains(t, resp.Topics[2].Keywords, "museum")
}

// TestHandleTopicArticle verifies topic lookups and their failures
func TestHandleTopicArticle(t *testing.T) {
	sel := &fakeSelector{byTopic: map[article.Topic]*article.Article{article.TopicScience: scienceArticle}}
	router := setupTestRouter(t, sel, Options{})

	w := do(t, router, http.MethodGet, "/api/v1/topics/Science/article")
	require.Equal(t, http.StatusOK, w.Code)
	var resp TopicArticleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, article.TopicScience, resp.Topic)
	assert.Equal(t, scienceArticle.URL, resp.Article.URL)

	w = do(t, router, http.MethodGet, "/api/v1/topics/astrology/article")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unknown_topic", decodeError(t, w))

	w = do(t, router, http.MethodGet, "/api/v1/topics/art/article")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w))
}

// TestHandleListSources verifies tiers and latest runs are reported
func TestHandleListSources(t *testing.T) {
	runs := fakeRuns{runs: []runlog.Run{{SourceKey: "bbc", Articles: 12, StartedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}}}
	router := setupTestRouter(t, &fakeSelector{}, Options{Sources: scraper.DefaultSources(), Runs: runs})

	w := do(t, router, http.MethodGet, "/api/v1/sources")

	require.Equal(t, http.StatusOK, w.Code)
	var resp SourcesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Sources, 6)
	assert.Equal(t, "hindu", resp.Sources[0].Key)
	assert.Equal(t, scraper.TierPrimary, resp.Sources[0].Tier)
	assert.Nil(t, resp.Sources[0].LastRun)
	require.NotNil(t, resp.Sources[2].LastRun)
	assert.Equal(t, 12, resp.Sources[2].LastRun.Articles)
	assert.Equal(t, scraper.KindSections, resp.Sources[4].Kind)
}

// TestHandleListSources_RunLogError verifies run history failures are 500
func TestHandleListSources_RunLogError(t *testing.T) {
	router := setupTestRouter(t, &fakeSelector{}, Options{Runs: fakeRuns{err: errors.New("locked")}})

	w := do(t, router, http.MethodGet, "/api/v1/sources")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// TestHandleCacheStats verifies cache statistics and their absence
func TestHandleCacheStats(t *testing.T) {
	router := setupTestRouter(t, &fakeSelector{}, Options{})
	w := do(t, router, http.MethodGet, "/api/v1/cache")
	assert.Equal(t, http.StatusNotFound, w.Code)

	stats := &cache.Stats{Total: 3, Live: 2, Expired: 1, BySource: map[string]int{"BBC News": 2}}
	router = setupTestRouter(t, &fakeSelector{}, Options{Cache: fakeCacheStats{stats: stats}})
	w = do(t, router, http.MethodGet, "/api/v1/cache")
	require.Equal(t, http.StatusOK, w.Code)

	var got cache.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 2, got.Live)
	assert.Equal(t, 2, got.BySource["BBC News"])

	router = setupTestRouter(t, &fakeSelector{}, Options{Cache: fakeCacheStats{err: errors.New("corrupt")}})
	w = do(t, router, http.MethodGet, "/api/v1/cache")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// TestHandleGetConfig verifies the effective settings are exposed
func TestHandleGetConfig(t *testing.T) {
	router := setupTestRouter(t, &fakeSelector{}, Options{Settings: config.Default()})

	w := do(t, router, http.MethodGet, "/api/v1/meta/config")

	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "data", got["data_dir"])
}

// TestCORSPreflight verifies OPTIONS requests are answered directly
func TestCORSPreflight(t *testing.T) {
	sel := &fakeSelector{}
	router := setupTestRouter(t, sel, Options{})

	w := do(t, router, http.MethodOptions, "/api/v1/selection/reload")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Equal(t, 0, sel.reloads)
}
