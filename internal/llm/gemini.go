package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini queries the Gemini generateContent endpoint. The genai client is
// created on the first Query and reused afterwards.
type Gemini struct {
	cfg Config

	once      sync.Once
	client    *genai.Client
	clientErr error
}

func NewGemini(cfg Config) *Gemini {
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	return &Gemini{cfg: cfg}
}

func (g *Gemini) genaiClient(ctx context.Context) (*genai.Client, error) {
	g.once.Do(func() {
		g.client, g.clientErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:     g.cfg.APIKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: newStatusTransport().client(g.cfg.Timeout),
			HTTPOptions: genai.HTTPOptions{
				BaseURL:    g.cfg.BaseURL,
				APIVersion: "v1beta",
			},
		})
	})
	return g.client, g.clientErr
}

// Query sends prompt as one user turn and returns the first text part of the
// first candidate.
func (g *Gemini) Query(ctx context.Context, prompt string) (string, error) {
	if g.cfg.APIKey == "" {
		return "", ErrNoCredential
	}

	client, err := g.genaiClient(ctx)
	if err != nil {
		return "", fmt.Errorf("Gemini.Query: create genai client: %w: %v", ErrRemoteCallFailed, err)
	}

	ctx, status := recordStatus(ctx)
	resp, err := client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), nil)
	if err != nil {
		return "", remoteFailure("Gemini.Query", status.lastStatus(), err)
	}

	text, ok := firstCandidateText(resp)
	if !ok {
		return "", remoteFailure("Gemini.Query", status.lastStatus(), errors.New("response has no candidate text"))
	}
	return text, nil
}

func firstCandidateText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return "", false
	}
	for _, part := range content.Parts {
		if part != nil && part.Text != "" {
			return part.Text, true
		}
	}
	return "", false
}
