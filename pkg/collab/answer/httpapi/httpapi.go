// Package httpapi implements answer.Provider against the demo answer
// service's POST /answer endpoint.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/voxteller/voxteller/pkg/collab/answer"
)

const defaultTimeout = 15 * time.Second

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient overrides the default *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// Client implements answer.Provider over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the answer service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("answer httpapi: baseURL must not be empty")
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

type answerRequest struct {
	Question string            `json:"question"`
	History  []answer.Exchange `json:"history,omitempty"`
}

type answerResponse struct {
	Answer string `json:"answer"`
}

// Answer implements answer.Provider.
func (c *Client) Answer(ctx context.Context, question string, history []answer.Exchange) (string, error) {
	buf, err := json.Marshal(answerRequest{Question: question, History: history})
	if err != nil {
		return "", fmt.Errorf("answer httpapi: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/answer", bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("answer httpapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("answer httpapi: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("answer httpapi: status %d", resp.StatusCode)
	}

	var out answerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("answer httpapi: decode response: %w", err)
	}
	return out.Answer, nil
}
