package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/openai/openai-go"
)

// ErrUpstream is returned for any failure of the inference call. The raw
// upstream error is logged server-side and never exposed to clients.
var ErrUpstream = errors.New("inference upstream request failed")

const (
	defaultModel     = "google/gemma-2-2b-it"
	defaultMaxTokens = 500
	defaultTimeout   = 60 * time.Second
)

// Config holds gateway settings. Zero values fall back to the defaults above.
type Config struct {
	Model     string
	MaxTokens int64
	Timeout   time.Duration
}

// Gateway turns a user prompt into a complete answer string. It issues one
// streamed completion request and buffers the whole token stream before
// returning: callers get a plain non-streaming contract, which is what the
// web client renders. One attempt per call, no retry, no backoff.
type Gateway struct {
	client    Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

// NewGateway creates a Gateway over the given upstream client.
func NewGateway(client Client, cfg Config) *Gateway {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Gateway{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
	}
}

// Generate sends the prompt upstream and returns the concatenated answer once
// the stream completes. The deadline bounds the whole stream, not just the
// connection; a hung upstream fails the request instead of blocking it forever.
func (g *Gateway) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		}),
		Model:     openai.F(g.model),
		MaxTokens: openai.Int(g.maxTokens),
	}

	stream := g.client.CreateStreamingCompletion(ctx, params)

	var answer strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) > 0 {
			answer.WriteString(chunk.Choices[0].Delta.Content)
		}
	}

	if err := stream.Err(); err != nil {
		log.Printf("ERROR [llm] streaming completion failed (model %s): %v", g.model, err)
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return answer.String(), nil
}
