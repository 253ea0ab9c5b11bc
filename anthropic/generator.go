package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fwojciec/parley"
)

// Interface compliance check.
var _ parley.Generator = (*Generator)(nil)

// Generator implements [parley.Generator] for the Anthropic Messages API.
type Generator struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

// Option configures a [Generator].
type Option func(*Generator)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(g *Generator) { g.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *Generator) { g.httpClient = hc }
}

// WithModel sets the default model ID.
func WithModel(model string) Option {
	return func(g *Generator) { g.model = model }
}

// WithMaxTokens sets the output token limit.
func WithMaxTokens(n int) Option {
	return func(g *Generator) { g.maxTokens = n }
}

// New creates a new Anthropic [Generator] with the given API key and options.
func New(apiKey string, opts ...Option) *Generator {
	g := &Generator{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		maxTokens:  defaultMaxTokens,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate streams a reply to req.Prompt, calling onDelta for every text
// delta.
func (g *Generator) Generate(ctx context.Context, req parley.GenerateRequest, onDelta func(string) error) error {
	body, err := g.buildRequestBody(req)
	if err != nil {
		return fmt.Errorf("anthropic: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("anthropic: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", g.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("anthropic: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseHTTPError(resp)
	}

	return newEventReader(resp.Body).forEachText(onDelta)
}

func (g *Generator) buildRequestBody(req parley.GenerateRequest) ([]byte, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}
	return json.Marshal(apiRequest{
		Model:     model,
		MaxTokens: g.maxTokens,
		Stream:    true,
		Messages: []apiMessage{{
			Role:    "user",
			Content: []apiContentBlock{{Type: "text", Text: req.Prompt}},
		}},
	})
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anthropic: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return fmt.Errorf("anthropic: HTTP %d: %s", resp.StatusCode, string(body))
	}
	return fmt.Errorf("anthropic: %s: %s", apiErr.Error.Type, apiErr.Error.Message)
}
