// Package llm is the thin bridge to an external LLM HTTP API. Skill handlers
// may use it to phrase responses; the dispatch layer never touches it.
package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const defaultModel = "gpt-4o-mini"

// Completer produces a completion for a prompt. Handlers treat a nil
// Completer as "no LLM configured" and fall back to their templates.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Client is a Completer backed by the OpenAI-compatible chat completions API.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient creates a Client. Returns nil when apiKey is empty so callers can
// pass the result straight through as an optional Completer. baseURL is for
// OpenAI-compatible endpoints; empty means the default API host.
func NewClient(apiKey, baseURL, model string) *Client {
	if apiKey == "" {
		return nil
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{api: openai.NewClientWithConfig(cfg), model: model}
}

// Complete sends a single-turn chat completion and returns the first choice.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm:client - completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm:client - completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
