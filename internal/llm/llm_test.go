package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newProviderServer(t *testing.T, suffix string, status int, body string) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, suffix) {
			t.Errorf("unexpected path %s, want suffix %s", r.URL.Path, suffix)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestNew(t *testing.T) {
	tests := []struct {
		provider string
		wantErr  bool
	}{
		{"", false},
		{"gemini", false},
		{"openai", false},
		{"anthropic", false},
		{"cohere", true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			q, err := New(Config{Provider: tt.provider})
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.provider, err, tt.wantErr)
			}
			if !tt.wantErr && q == nil {
				t.Errorf("New(%q) returned nil querier", tt.provider)
			}
		})
	}
}

func TestQuery_NoCredential(t *testing.T) {
	queriers := map[string]Querier{
		"gemini":    NewGemini(Config{}),
		"openai":    NewOpenAI(Config{}),
		"anthropic": NewAnthropic(Config{}),
	}

	for name, q := range queriers {
		t.Run(name, func(t *testing.T) {
			_, err := q.Query(context.Background(), "hello")
			if !errors.Is(err, ErrNoCredential) {
				t.Errorf("expected ErrNoCredential, got %v", err)
			}
		})
	}
}

func TestGemini_Query(t *testing.T) {
	body := `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"type\":\"expense\"}"},{"text":"ignored"}]}}]}`
	srv, calls := newProviderServer(t, ":generateContent", http.StatusOK, body)

	q := NewGemini(Config{APIKey: "test-key", BaseURL: srv.URL})
	got, err := q.Query(context.Background(), "parse this")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if got != `{"type":"expense"}` {
		t.Errorf("Query() = %q, want first text part", got)
	}
	if *calls != 1 {
		t.Errorf("expected 1 call, got %d", *calls)
	}
}

func TestGemini_Query_Failures(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		unauthorized bool
	}{
		{
			name:         "unauthorized",
			status:       http.StatusUnauthorized,
			body:         `{"error":{"code":401,"message":"API key not valid","status":"UNAUTHENTICATED"}}`,
			unauthorized: true,
		},
		{
			name:   "bad request",
			status: http.StatusBadRequest,
			body:   `{"error":{"code":400,"message":"bad","status":"INVALID_ARGUMENT"}}`,
		},
		{
			name:   "no candidates",
			status: http.StatusOK,
			body:   `{"candidates":[]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newProviderServer(t, ":generateContent", tt.status, tt.body)

			q := NewGemini(Config{APIKey: "test-key", BaseURL: srv.URL})
			_, err := q.Query(context.Background(), "parse this")
			if !errors.Is(err, ErrRemoteCallFailed) {
				t.Fatalf("expected ErrRemoteCallFailed, got %v", err)
			}
			if errors.Is(err, ErrUnauthorized) != tt.unauthorized {
				t.Errorf("errors.Is(err, ErrUnauthorized) = %v, want %v", !tt.unauthorized, tt.unauthorized)
			}
		})
	}
}

func TestOpenAI_Query(t *testing.T) {
	body := `{"id":"cmpl-1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}]}`
	srv, calls := newProviderServer(t, "/chat/completions", http.StatusOK, body)

	q := NewOpenAI(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	got, err := q.Query(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if got != "hello" {
		t.Errorf("Query() = %q, want hello", got)
	}
	if *calls != 1 {
		t.Errorf("expected 1 call, got %d", *calls)
	}
}

func TestOpenAI_Query_Unauthorized(t *testing.T) {
	body := `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`
	srv, _ := newProviderServer(t, "/chat/completions", http.StatusUnauthorized, body)

	q := NewOpenAI(Config{APIKey: "bad-key", BaseURL: srv.URL + "/v1"})
	_, err := q.Query(context.Background(), "hi")
	if !errors.Is(err, ErrRemoteCallFailed) || !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected remote failure with ErrUnauthorized, got %v", err)
	}
}

func TestAnthropic_Query(t *testing.T) {
	body := `{"id":"msg_1","type":"message","role":"assistant","model":"claude","content":[{"type":"text","text":"hi "},{"type":"text","text":"there"}],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":2}}`
	srv, calls := newProviderServer(t, "/v1/messages", http.StatusOK, body)

	q := NewAnthropic(Config{APIKey: "test-key", BaseURL: srv.URL})
	got, err := q.Query(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if got != "hi there" {
		t.Errorf("Query() = %q, want joined text blocks", got)
	}
	if *calls != 1 {
		t.Errorf("expected 1 call, got %d", *calls)
	}
}

func TestGemini_Query_ReusesClient(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if calls == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":401,"message":"API key not valid","status":"UNAUTHENTICATED"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"ok"}]}}]}`))
	}))
	t.Cleanup(srv.Close)

	q := NewGemini(Config{APIKey: "test-key", BaseURL: srv.URL})

	_, err := q.Query(context.Background(), "first")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("first call: expected ErrUnauthorized, got %v", err)
	}
	first := q.client

	got, err := q.Query(context.Background(), "second")
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if got != "ok" {
		t.Errorf("Query() = %q, want ok", got)
	}
	if q.client == nil || q.client != first {
		t.Error("expected the genai client to be built once and reused")
	}
}

func TestStatusTransport_PerCallRecorder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	t.Cleanup(srv.Close)

	client := newStatusTransport().client(0)

	ctx, status := recordStatus(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if status.lastStatus() != http.StatusTeapot {
		t.Errorf("lastStatus() = %d, want %d", status.lastStatus(), http.StatusTeapot)
	}

	_, other := recordStatus(context.Background())
	if other.lastStatus() != 0 {
		t.Errorf("a fresh recorder should not see other calls, got %d", other.lastStatus())
	}
}
