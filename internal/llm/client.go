// Package llm is the gateway to the hosted language-model inference service.
// It speaks the OpenAI-compatible chat completions protocol, which the
// HuggingFace inference router exposes for hosted models.
package llm

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
)

// Client defines the interface for the upstream completion API.
// It abstracts the SDK client so tests can inject a mock transport.
type Client interface {
	// CreateStreamingCompletion creates a streaming chat completion request.
	CreateStreamingCompletion(ctx context.Context, params openai.ChatCompletionNewParams) *ssestream.Stream[openai.ChatCompletionChunk]
}

// OpenAIClient implements the Client interface using the official OpenAI SDK.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a Client for the given API key and base URL.
// Pass the HuggingFace router URL to reach hosted open models, or leave
// baseURL empty for the OpenAI default.
func NewOpenAIClient(apiKey, baseURL string, opts ...option.RequestOption) *OpenAIClient {
	opts = append(opts, option.WithAPIKey(apiKey))
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{
		client: openai.NewClient(opts...),
	}
}

// CreateStreamingCompletion implements the Client interface.
func (c *OpenAIClient) CreateStreamingCompletion(ctx context.Context, params openai.ChatCompletionNewParams) *ssestream.Stream[openai.ChatCompletionChunk] {
	return c.client.Chat.Completions.NewStreaming(ctx, params)
}
