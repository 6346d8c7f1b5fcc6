package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_RecordsRoutePattern(t *testing.T) {
	var (
		buf    bytes.Buffer
		routes []string
		codes  []int
	)
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(Logger(logger, func(route, method string, status int, _ time.Duration) {
		routes = append(routes, method+" "+route)
		codes = append(codes, status)
	}))
	r.Get("/api/projects/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	for _, path := range []string{"/api/projects/abc", "/nowhere"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	assert.Equal(t, []string{"GET /api/projects/{id}", "GET unmatched"}, routes)
	assert.Equal(t, []int{http.StatusTeapot, http.StatusNotFound}, codes)
	assert.Contains(t, buf.String(), "path=/api/projects/abc")
	assert.Contains(t, buf.String(), "bytes=15")
}

func TestCORS(t *testing.T) {
	h := CORS(http.MethodGet, http.MethodPut)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	t.Run("simple request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/wave-banner", nil)
		req.Header.Set("Origin", "https://editor.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Widget-Warning")
		assert.Equal(t, "ok", rec.Body.String())
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/previews/x", nil)
		req.Header.Set("Origin", "https://editor.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPut)
		req.Header.Set("Access-Control-Request-Headers", "Authorization")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Less(t, rec.Code, 300)
		assert.Equal(t, http.MethodPut, rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
		assert.Empty(t, rec.Body.String(), "preflights never reach the route")
	})

	t.Run("preflight for a method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/previews/x", nil)
		req.Header.Set("Origin", "https://editor.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
	})
}
