package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAI talks to any OpenAI-compatible chat completion API (OpenAI,
// DeepSeek and similar) selected through BaseURL.
type OpenAI struct {
	cfg    Config
	client *openai.Client
}

func NewOpenAI(cfg Config) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	config.HTTPClient = newStatusTransport().client(cfg.Timeout)
	return &OpenAI{cfg: cfg, client: openai.NewClientWithConfig(config)}
}

func (o *OpenAI) Query(ctx context.Context, prompt string) (string, error) {
	if o.cfg.APIKey == "" {
		return "", ErrNoCredential
	}

	ctx, status := recordStatus(ctx)
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", remoteFailure("OpenAI.Query", status.lastStatus(), err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", remoteFailure("OpenAI.Query", status.lastStatus(), errors.New("response has no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}
