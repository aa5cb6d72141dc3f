// Package httpapi implements retrieval.Provider against the demo retrieval
// service's POST /query endpoint.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/voxteller/voxteller/pkg/collab/retrieval"
)

const defaultTimeout = 15 * time.Second

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient overrides the default *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// Client implements retrieval.Provider over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ retrieval.Provider = (*Client)(nil)

// New creates a Client for the retrieval service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("retrieval httpapi: baseURL must not be empty")
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

type queryRequest struct {
	Question string `json:"question"`
}

type queryResponse struct {
	Answer string `json:"answer"`
}

// Query implements retrieval.Provider.
func (c *Client) Query(ctx context.Context, question string) (string, error) {
	buf, err := json.Marshal(queryRequest{Question: question})
	if err != nil {
		return "", fmt.Errorf("retrieval httpapi: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("retrieval httpapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("retrieval httpapi: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("retrieval httpapi: status %d", resp.StatusCode)
	}

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("retrieval httpapi: decode response: %w", err)
	}
	return out.Answer, nil
}
