package server_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/readme-widgets/internal/apperror"
	"github.com/sakif/readme-widgets/internal/auth"
	"github.com/sakif/readme-widgets/internal/config"
	"github.com/sakif/readme-widgets/internal/model"
	"github.com/sakif/readme-widgets/internal/server"
)

const testSecret = "a-test-secret-that-is-long-enough"

type octocatOnly struct{}

func (octocatOnly) FetchStats(_ context.Context, username string) (model.AggregatedStats, error) {
	if username != "octocat" {
		return model.AggregatedStats{}, apperror.NotFound("user", username)
	}
	return model.AggregatedStats{Username: "octocat", TotalStars: 7}, nil
}

func (octocatOnly) FetchLanguages(_ context.Context, username string) (model.LanguageBytes, error) {
	return model.LanguageBytes{Username: username, Bytes: map[string]int64{"Go": 1}}, nil
}

func (octocatOnly) FetchRepo(_ context.Context, owner, repo string) (model.RepoMetadata, error) {
	return model.RepoMetadata{Owner: owner, Name: repo}, nil
}

func (octocatOnly) Invalidate(string) int { return 0 }

func newTestServer(t *testing.T, secret string) *httptest.Server {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.DBPath = ":memory:"
	cfg.JWTSecret = secret

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s, err := server.New(cfg, logger, server.Deps{Fetcher: octocatOnly{}})
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return ts
}

func do(t *testing.T, method, url, body string, header http.Header) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestServer_Routes(t *testing.T) {
	ts := newTestServer(t, "")

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantType   string
	}{
		{"health", http.MethodGet, "/healthz", "", http.StatusOK, "application/json"},
		{"wave banner", http.MethodGet, "/api/wave-banner?text=Hi", "", http.StatusOK, "image/svg+xml; charset=utf-8"},
		{"stats", http.MethodGet, "/api/github-stats?username=octocat", "", http.StatusOK, "image/svg+xml; charset=utf-8"},
		{"stats missing user", http.MethodGet, "/api/github-stats", "", http.StatusBadRequest, "image/svg+xml; charset=utf-8"},
		{"unknown widget", http.MethodGet, "/api/clock", "", http.StatusNotFound, ""},
		{"catalog", http.MethodGet, "/api/widgets", "", http.StatusOK, "application/json"},
		{"link", http.MethodPost, "/api/widgets/url", `{"type":"wave-banner"}`, http.StatusOK, "application/json"},
		{"projects", http.MethodGet, "/api/projects", "", http.StatusOK, "application/json"},
		{"enhance disabled", http.MethodPost, "/api/enhance", `{"content":"hi"}`, http.StatusServiceUnavailable, "application/json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, ts.URL+tt.path, tt.body, http.Header{"Origin": {"https://editor.example.com"}})
			assert.Equal(t, tt.wantStatus, resp.StatusCode, body)
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, resp.Header.Get("Content-Type"))
			}
			assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestServer_Preflight(t *testing.T) {
	ts := newTestServer(t, "")

	resp, _ := do(t, http.MethodOptions, ts.URL+"/api/projects", "", http.Header{
		"Origin":                        {"https://editor.example.com"},
		"Access-Control-Request-Method": {"POST"},
	})

	assert.Less(t, resp.StatusCode, 300)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_WidgetWithoutOrigin(t *testing.T) {
	ts := newTestServer(t, "")

	resp, _ := do(t, http.MethodGet, ts.URL+"/api/wave-banner?text=Hi", "", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"), "image proxies send no Origin")
}

func TestServer_Metrics(t *testing.T) {
	ts := newTestServer(t, "")
	resp, _ := do(t, http.MethodGet, ts.URL+"/api/github-stats?username=octocat", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, http.MethodGet, ts.URL+"/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `widget_renders_total{outcome="ok",type="github-stats"} 1`)
	assert.Contains(t, body, `cache_lookups_total{cache="render",result="miss"} 1`)
	assert.Contains(t, body, `handler="/api/github-stats"`)
}

func TestServer_WriteRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t, testSecret)
	body := `{"name":"profile","blocks":[]}`

	resp, _ := do(t, http.MethodPost, ts.URL+"/api/projects", body, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	tokens, err := auth.NewTokenService(testSecret)
	require.NoError(t, err)
	token, err := tokens.Issue("alice", time.Hour)
	require.NoError(t, err)

	resp, created := do(t, http.MethodPost, ts.URL+"/api/projects", body, http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusCreated, resp.StatusCode, created)
	assert.Contains(t, created, `"owner":"alice"`)

	// Reads stay public.
	resp, _ = do(t, http.MethodGet, ts.URL+resp.Header.Get("Location"), "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
