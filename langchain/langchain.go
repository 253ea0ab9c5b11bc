// Package langchain implements [parley.Generator] on top of a langchaingo
// model, which covers OpenAI-compatible endpoints such as Together AI.
package langchain

import (
	"context"
	"fmt"

	"github.com/fwojciec/parley"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// DefaultModel is the upstream model behind the default relay route.
const DefaultModel = "deepseek-ai/deepseek-v3"

// TogetherBaseURL is the OpenAI-compatible Together AI endpoint.
const TogetherBaseURL = "https://api.together.xyz/v1"

// Interface compliance check.
var _ parley.Generator = (*Generator)(nil)

// Generator streams replies from a langchaingo model.
type Generator struct {
	llm llms.Model
}

// New wraps an existing langchaingo model.
func New(llm llms.Model) *Generator {
	return &Generator{llm: llm}
}

// NewOpenAI creates a Generator for an OpenAI-compatible endpoint. An empty
// baseURL means Together AI; an empty model means DefaultModel.
func NewOpenAI(token, baseURL, model string) (*Generator, error) {
	if baseURL == "" {
		baseURL = TogetherBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	llm, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("langchain: create openai model: %w", err)
	}
	return New(llm), nil
}

// Generate sends req.Prompt as a single human message and forwards every
// non-empty streamed chunk to onDelta.
func (g *Generator) Generate(ctx context.Context, req parley.GenerateRequest, onDelta func(string) error) error {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt),
	}
	opts := []llms.CallOption{
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			return onDelta(string(chunk))
		}),
	}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}
	if _, err := g.llm.GenerateContent(ctx, messages, opts...); err != nil {
		return fmt.Errorf("langchain: %w", err)
	}
	return nil
}
