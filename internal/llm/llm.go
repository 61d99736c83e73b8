// Package llm sends single-turn prompts to a remote text-generation service.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

var (
	// ErrNoCredential means no API key was configured. Callers treat it as
	// the signal to use local heuristics instead.
	ErrNoCredential = errors.New("llm: no credential configured")
	// ErrRemoteCallFailed covers transport errors, non-2xx statuses and
	// responses without a usable text candidate.
	ErrRemoteCallFailed = errors.New("llm: remote query failed")
	// ErrUnauthorized is joined with ErrRemoteCallFailed when the service
	// rejected the credential with 401.
	ErrUnauthorized = errors.New("llm: credential rejected")
)

// Querier returns the raw text produced for prompt. Each call is a single
// attempt with no retries.
type Querier interface {
	Query(ctx context.Context, prompt string) (string, error)
}

// Config holds the provider settings injected at construction.
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// New returns the Querier for cfg.Provider. An empty key still yields a
// working Querier; its calls fail with ErrNoCredential.
func New(cfg Config) (Querier, error) {
	switch cfg.Provider {
	case "", "gemini":
		return NewGemini(cfg), nil
	case "openai":
		return NewOpenAI(cfg), nil
	case "anthropic":
		return NewAnthropic(cfg), nil
	default:
		return nil, fmt.Errorf("llm.New: unknown provider %q", cfg.Provider)
	}
}

// remoteFailure wraps err as ErrRemoteCallFailed, adding ErrUnauthorized
// when the last response carried a 401.
func remoteFailure(op string, status int, err error) error {
	if status == http.StatusUnauthorized {
		return fmt.Errorf("%s: %w: %w: %v", op, ErrRemoteCallFailed, ErrUnauthorized, err)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrRemoteCallFailed, err)
}

// statusTransport records response status codes into the statusRecorder
// carried by each request's context. One transport is shared by every call
// of a provider.
type statusTransport struct {
	base http.RoundTripper
}

func newStatusTransport() *statusTransport {
	return &statusTransport{base: http.DefaultTransport}
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if rec, ok := req.Context().Value(statusKey{}).(*statusRecorder); ok && resp != nil {
		rec.set(resp.StatusCode)
	}
	return resp, err
}

func (t *statusTransport) client(timeout time.Duration) *http.Client {
	return &http.Client{Transport: t, Timeout: timeout}
}

type statusKey struct{}

// statusRecorder holds the status of the last response seen during one Query.
type statusRecorder struct {
	mu     sync.Mutex
	status int
}

// recordStatus returns a context whose requests report into the returned
// recorder.
func recordStatus(ctx context.Context) (context.Context, *statusRecorder) {
	rec := &statusRecorder{}
	return context.WithValue(ctx, statusKey{}, rec), rec
}

func (r *statusRecorder) set(status int) {
	r.mu.Lock()
	r.status = status
	r.mu.Unlock()
}

func (r *statusRecorder) lastStatus() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}
