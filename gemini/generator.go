package gemini

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/fwojciec/parley"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ parley.Generator = (*Generator)(nil)

// Generator implements [parley.Generator] for the Google Gemini API.
type Generator struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// Option configures a [Generator].
type Option func(*Generator)

// WithModel sets the model ID. Default is gemini-2.5-flash.
func WithModel(model string) Option {
	return func(g *Generator) { g.model = model }
}

// WithMaxTokens sets the output token limit.
func WithMaxTokens(n int) Option {
	return func(g *Generator) { g.maxTokens = n }
}

// New creates a new Gemini [Generator] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Generator, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	g := &Generator{
		client:    gc,
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// Generate streams a reply to req.Prompt.
func (g *Generator) Generate(ctx context.Context, req parley.GenerateRequest, onDelta func(string) error) error {
	model := req.Model
	if model == "" {
		model = g.model
	}
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.maxTokens),
	}
	return drain(g.client.Models.GenerateContentStream(ctx, model, genai.Text(req.Prompt), config), onDelta)
}

// drain forwards the text of every chunk to onDelta.
func drain(seq iter.Seq2[*genai.GenerateContentResponse, error], onDelta func(string) error) error {
	for resp, err := range seq {
		if err != nil {
			return fmt.Errorf("gemini: %w", err)
		}
		if text := chunkText(resp); text != "" {
			if err := onDelta(text); err != nil {
				return err
			}
		}
	}
	return nil
}

// chunkText concatenates the non-thought text parts of the first candidate.
func chunkText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}
