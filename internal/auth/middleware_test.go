package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// echoSubject writes the request's subject, or "anonymous".
var echoSubject = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	subject, ok := SubjectFromContext(r.Context())
	if !ok {
		subject = "anonymous"
	}
	_, _ = w.Write([]byte(subject))
})

func TestRequireAuth(t *testing.T) {
	ts := newTestTokenService(t)
	token, err := ts.Issue("alice", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
		wantBody   string
	}{
		{"bearer header", "Bearer " + token, "", http.StatusOK, "alice"},
		{"lowercase scheme", "bearer " + token, "", http.StatusOK, "alice"},
		{"cookie fallback", "", token, http.StatusOK, "alice"},
		{"missing", "", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + token, "", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized, ""},
		{"header wins over cookie", "Bearer nope", token, http.StatusUnauthorized, ""},
	}

	handler := RequireAuth(ts)(echoSubject)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/projects", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && rec.Body.String() != tt.wantBody {
				t.Errorf("subject = %q, want %q", rec.Body.String(), tt.wantBody)
			}
			if tt.wantStatus == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("401 should carry a WWW-Authenticate challenge")
			}
		})
	}
}

func TestRequireAuth_NoSecretPassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireAuth(nil)(echoSubject).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "anonymous" {
		t.Errorf("got %d %q, want 200 anonymous", rec.Code, rec.Body.String())
	}
}

func TestOptionalAuth(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Issue("bob", time.Hour)
	handler := OptionalAuth(ts)(echoSubject)

	for header, want := range map[string]string{
		"":                 "anonymous",
		"Bearer garbage":   "anonymous",
		"Bearer " + token: "bob",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Errorf("header %q: got %d %q, want 200 %q", header, rec.Code, rec.Body.String(), want)
		}
	}
}
