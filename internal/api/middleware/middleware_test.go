package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dvloznov/finance-chat/internal/logger"
)

func TestUserID(t *testing.T) {
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserIDFromContext(r.Context())
	})

	tests := []struct {
		name        string
		defaultUser string
		header      string
		path        string
		wantUser    string
		wantStatus  int
	}{
		{"header wins", "demo", "alice", "/api/chat", "alice", http.StatusOK},
		{"default user", "demo", "", "/api/chat", "demo", http.StatusOK},
		{"rejected without default", "", "", "/api/chat", "", http.StatusUnauthorized},
		{"health needs no user", "", "", "/health", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = ""
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(UserIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			UserID(tt.defaultUser)(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if got != tt.wantUser {
				t.Errorf("expected user %q, got %q", tt.wantUser, got)
			}
		})
	}
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf)

	var fromCtx string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = RequestIDFromContext(r.Context())
		l := logger.FromContext(r.Context())
		l.Info().Msg("inside handler")
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	RequestID(Logger(log)(next)).ServeHTTP(rec, req)

	if fromCtx != "req-42" {
		t.Errorf("expected request id in context, got %q", fromCtx)
	}
	if rec.Header().Get("X-Request-ID") != "req-42" {
		t.Error("expected request id echoed in response header")
	}
	out := buf.String()
	if strings.Count(out, `"request_id":"req-42"`) != 2 {
		t.Errorf("expected request id on both log lines, got %s", out)
	}
	if !strings.Contains(out, `"status":418`) {
		t.Errorf("expected captured status in log, got %s", out)
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	Recovery(logger.NewWithWriter(&buf))(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "Panic recovered") {
		t.Error("expected panic to be logged")
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	rec := httptest.NewRecorder()
	CORS(next).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/chat", nil))

	if rec.Code != http.StatusNoContent || called {
		t.Errorf("expected 204 without reaching handler, got %d (called=%v)", rec.Code, called)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), UserIDHeader) {
		t.Error("expected X-User-ID to be an allowed header")
	}
}
