package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/readme-widgets/internal/apperror"
	"github.com/sakif/readme-widgets/internal/cache"
	"github.com/sakif/readme-widgets/internal/clock"
	"github.com/sakif/readme-widgets/internal/handler"
	"github.com/sakif/readme-widgets/internal/model"
	"github.com/sakif/readme-widgets/internal/service"
	"github.com/sakif/readme-widgets/internal/widget"
)

const testBaseURL = "https://widgets.example.com"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// stubFetcher answers for "octocat" and fails everyone else with err (or
// NotFound when err is nil).
type stubFetcher struct {
	mu    sync.Mutex
	err   error
	calls int
	stars int
}

func (f *stubFetcher) setStars(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stars = n
}

func (f *stubFetcher) result() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *stubFetcher) FetchStats(_ context.Context, username string) (model.AggregatedStats, error) {
	if err := f.result(); err != nil {
		return model.AggregatedStats{}, err
	}
	if username != "octocat" {
		return model.AggregatedStats{}, apperror.NotFound("user", username)
	}
	f.mu.Lock()
	stars := f.stars
	f.mu.Unlock()
	if stars == 0 {
		stars = 10
	}
	return model.AggregatedStats{Username: "octocat", TotalStars: stars, TotalCommits: 20}, nil
}

func (f *stubFetcher) FetchLanguages(_ context.Context, username string) (model.LanguageBytes, error) {
	if err := f.result(); err != nil {
		return model.LanguageBytes{}, err
	}
	if username != "octocat" {
		return model.LanguageBytes{}, apperror.NotFound("user", username)
	}
	return model.LanguageBytes{Username: "octocat", Bytes: map[string]int64{"Go": 10}, Repos: 1}, nil
}

func (f *stubFetcher) FetchRepo(_ context.Context, owner, repo string) (model.RepoMetadata, error) {
	if err := f.result(); err != nil {
		return model.RepoMetadata{}, err
	}
	return model.RepoMetadata{}, apperror.NotFound("repository", owner+"/"+repo)
}

func (f *stubFetcher) Invalidate(string) int { return 3 }

func newWidgetHandler(t *testing.T, fetcher service.Fetcher) *handler.WidgetHandler {
	t.Helper()
	h, _ := newWidgetHandlerWithCache(t, fetcher)
	return h
}

func newWidgetHandlerWithCache(t *testing.T, fetcher service.Fetcher) (*handler.WidgetHandler, *cache.TTL[uint64, model.Artifact]) {
	t.Helper()
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	artifacts, err := cache.New[uint64, model.Artifact](16, time.Minute, clk)
	require.NoError(t, err)
	svc := service.NewWidgetService(fetcher, testBaseURL, clk, testLogger())
	return handler.NewWidgetHandler(svc, artifacts, 30*time.Minute, testLogger()), artifacts
}

func invalidate(h *handler.WidgetHandler, username string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodDelete, "/api/cache/github/"+username, nil)
	req.SetPathValue("username", username)
	rr := httptest.NewRecorder()
	h.HandleInvalidate(rr, req)
	return rr
}

func getWidget(h *handler.WidgetHandler, t widget.Type, query string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, t.Endpoint()+"?"+query, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	h.HandleWidget(t)(rr, req)
	return rr
}

func TestWidgetHandler_Renders(t *testing.T) {
	h := newWidgetHandler(t, &stubFetcher{})

	rr := getWidget(h, widget.TypeWave, "text=Hello", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/svg+xml; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=1800, stale-while-revalidate=900", rr.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rr.Header().Get("ETag"))
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "<svg"), rr.Body.String())
	assert.Contains(t, rr.Body.String(), "Hello")
}

func TestWidgetHandler_NotModified(t *testing.T) {
	h := newWidgetHandler(t, &stubFetcher{})

	first := getWidget(h, widget.TypeWave, "text=Hello", nil)
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")

	rr := getWidget(h, widget.TypeWave, "text=Hello", http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusNotModified, rr.Code)
	assert.Empty(t, rr.Body.String())

	// A different config is a different fingerprint.
	rr = getWidget(h, widget.TypeWave, "text=Bye", http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestWidgetHandler_CachesArtifacts(t *testing.T) {
	fetcher := &stubFetcher{}
	h := newWidgetHandler(t, fetcher)

	require.Equal(t, http.StatusOK, getWidget(h, widget.TypeStats, "username=octocat", nil).Code)
	rr := getWidget(h, widget.TypeStats, "username=octocat&cache=3600", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, fetcher.callCount(), "cache is part of the config")
	assert.Equal(t, "public, max-age=3600, stale-while-revalidate=1800", rr.Header().Get("Cache-Control"))

	require.Equal(t, http.StatusOK, getWidget(h, widget.TypeStats, "username=octocat", nil).Code)
	assert.Equal(t, 2, fetcher.callCount())
}

func TestWidgetHandler_ThemeNote(t *testing.T) {
	h := newWidgetHandler(t, &stubFetcher{})

	rr := getWidget(h, widget.TypeWave, "theme=draculla", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("X-Widget-Warning"), `did you mean "dracula"`)
}

func TestWidgetHandler_ErrorCards(t *testing.T) {
	tests := []struct {
		name       string
		typ        widget.Type
		query      string
		fetchErr   error
		wantStatus int
		wantRetry  string
	}{
		{"missing username", widget.TypeStats, "", nil, http.StatusBadRequest, ""},
		{"unknown user", widget.TypeStats, "username=ghost", nil, http.StatusNotFound, ""},
		{"unknown repo", widget.TypeRepo, "repo=octocat/nope", nil, http.StatusNotFound, ""},
		{"rate limited", widget.TypeStats, "username=octocat", apperror.RateLimited("github", time.Minute), http.StatusTooManyRequests, "60"},
		{"stats upstream down", widget.TypeStats, "username=octocat", apperror.Upstream("github", errors.New("boom")), http.StatusBadGateway, "30"},
		{"chart upstream down", widget.TypeLanguageChart, "username=octocat", apperror.Upstream("github", errors.New("boom")), http.StatusOK, "30"},
		{"repo upstream down", widget.TypeRepo, "repo=octocat/x", apperror.Upstream("github", errors.New("boom")), http.StatusOK, "30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newWidgetHandler(t, &stubFetcher{err: tt.fetchErr})

			rr := getWidget(h, tt.typ, tt.query, nil)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "image/svg+xml; charset=utf-8", rr.Header().Get("Content-Type"))
			assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
			assert.Equal(t, tt.wantRetry, rr.Header().Get("Retry-After"))
			assert.Contains(t, rr.Body.String(), "<svg")
		})
	}
}

func TestWidgetHandler_Catalog(t *testing.T) {
	h := newWidgetHandler(t, &stubFetcher{})
	rr := httptest.NewRecorder()

	h.HandleCatalog(rr, httptest.NewRequest(http.MethodGet, "/api/widgets", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var entries []handler.CatalogEntry
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&entries))
	require.Len(t, entries, len(widget.Types))
	for _, e := range entries {
		assert.Equal(t, e.Type.Endpoint(), e.Endpoint)
		assert.NotEmpty(t, e.Themes, e.Type)
		if e.Type == widget.TypeLanguageChart {
			assert.NotContains(t, e.Themes, "ocean", "gradients are not offered for charts")
		}
	}
}

func TestWidgetHandler_Link(t *testing.T) {
	h := newWidgetHandler(t, &stubFetcher{})

	t.Run("valid", func(t *testing.T) {
		body := `{"type":"github-stats","params":{"username":"octocat","theme":"dark"}}`
		rr := httptest.NewRecorder()
		h.HandleLink(rr, httptest.NewRequest(http.MethodPost, "/api/widgets/url", bytes.NewBufferString(body)))

		require.Equal(t, http.StatusOK, rr.Code)
		var res map[string]any
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Contains(t, res["url"], testBaseURL+"/api/github-stats?")
		assert.Contains(t, res["url"], "username=octocat")
		assert.Contains(t, res["markdown"], "![")
	})

	t.Run("unknown type", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleLink(rr, httptest.NewRequest(http.MethodPost, "/api/widgets/url", bytes.NewBufferString(`{"type":"clock"}`)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		var res handler.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "validation_error", res.Error)
		assert.Equal(t, "type", res.Field)
	})

	t.Run("missing username", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleLink(rr, httptest.NewRequest(http.MethodPost, "/api/widgets/url", bytes.NewBufferString(`{"type":"github-stats"}`)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleLink(rr, httptest.NewRequest(http.MethodPost, "/api/widgets/url", bytes.NewBufferString(`{"type":"wave-banner","colour":"red"}`)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestWidgetHandler_Parse(t *testing.T) {
	h := newWidgetHandler(t, &stubFetcher{})
	md := "# Hi\n\n![stats](" + testBaseURL + "/api/github-stats?username=octocat)\n\n" +
		"![bad](" + testBaseURL + "/api/github-stats)\n\n![cat](https://example.com/cat.png)\n"
	body, err := json.Marshal(map[string]string{"markdown": md})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.HandleParse(rr, httptest.NewRequest(http.MethodPost, "/api/widgets/parse", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rr.Code)
	var res struct {
		Widgets []handler.ParsedWidget `json:"widgets"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	require.Len(t, res.Widgets, 2)
	assert.True(t, res.Widgets[0].Valid)
	assert.Equal(t, "octocat", res.Widgets[0].Params["username"])
	assert.False(t, res.Widgets[1].Valid)
	assert.NotEmpty(t, res.Widgets[1].Error)
}

func TestWidgetHandler_Invalidate(t *testing.T) {
	fetcher := &stubFetcher{}
	h, artifacts := newWidgetHandlerWithCache(t, fetcher)
	require.Equal(t, http.StatusOK, getWidget(h, widget.TypeStats, "username=octocat", nil).Code)
	require.Equal(t, http.StatusOK, getWidget(h, widget.TypeWave, "", nil).Code)
	require.Equal(t, 2, artifacts.Len())

	rr := invalidate(h, "OctoCat")

	require.Equal(t, http.StatusOK, rr.Code)
	var res map[string]int
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, 4, res["removed"], "three snapshots plus the user's stats card")
	assert.Equal(t, 1, artifacts.Len(), "widgets without GitHub data are kept")

	require.Equal(t, http.StatusOK, getWidget(h, widget.TypeStats, "username=octocat", nil).Code)
	assert.Equal(t, 2, fetcher.callCount())
}

func TestWidgetHandler_ETagFollowsUpstreamData(t *testing.T) {
	fetcher := &stubFetcher{}
	h := newWidgetHandler(t, fetcher)

	first := getWidget(h, widget.TypeStats, "username=octocat", nil)
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rr := getWidget(h, widget.TypeStats, "username=octocat", http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusNotModified, rr.Code, "unchanged data revalidates")

	fetcher.setStars(99999)
	require.Equal(t, http.StatusOK, invalidate(h, "octocat").Code)

	rr = getWidget(h, widget.TypeStats, "username=octocat", http.Header{"If-None-Match": {etag}})
	require.Equal(t, http.StatusOK, rr.Code, "new data is served in full")
	assert.NotEqual(t, etag, rr.Header().Get("ETag"))
	assert.NotEqual(t, first.Body.String(), rr.Body.String())
}
