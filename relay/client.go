package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/fwojciec/parley"
	"github.com/fwojciec/parley/sse"
)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 4096

// Interface compliance check.
var _ parley.Completer = (*Client)(nil)

// Client implements [parley.Completer] against a relay server.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithModel sets the route requested when a ChatRequest names no model.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// New creates a Client for the relay at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      DefaultModel,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Stream posts req and returns a stream over the reply. Cancelling ctx
// aborts the request and the stream.
func (c *Client) Stream(ctx context.Context, req parley.ChatRequest) (parley.FragmentStream, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	history := req.History
	if history == nil {
		history = []parley.HistoryEntry{}
	}
	body, err := json.Marshal(chatRequest{MessageHistory: history, Prompt: req.Prompt})
	if err != nil {
		return nil, fmt.Errorf("relay: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPrefix+url.PathEscape(model), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("relay: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("relay: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("relay: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return sse.NewReader(resp.Body), nil
}
