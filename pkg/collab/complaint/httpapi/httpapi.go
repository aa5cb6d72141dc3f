// Package httpapi implements complaint.Lodger against the demo complaint
// service's POST /lodge endpoint.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/voxteller/voxteller/pkg/collab/complaint"
)

const defaultTimeout = 10 * time.Second

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient overrides the default *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// Client implements complaint.Lodger over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ complaint.Lodger = (*Client)(nil)

// New creates a Client for the complaint service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("complaint httpapi: baseURL must not be empty")
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

type lodgeRequest struct {
	Phone    string `json:"phone"`
	Text     string `json:"text"`
	ImageURL string `json:"image_url"`
}

type lodgeResponse struct {
	ID json.Number `json:"id"`
}

// Lodge implements complaint.Lodger.
func (c *Client) Lodge(ctx context.Context, phone, text, imageURL string) (string, error) {
	buf, err := json.Marshal(lodgeRequest{Phone: phone, Text: text, ImageURL: imageURL})
	if err != nil {
		return "", fmt.Errorf("complaint httpapi: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/lodge", bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("complaint httpapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("complaint httpapi: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("complaint httpapi: status %d", resp.StatusCode)
	}

	var out lodgeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("complaint httpapi: decode response: %w", err)
	}
	return out.ID.String(), nil
}
