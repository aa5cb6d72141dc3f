// Package httpapi implements notify.Sender against the demo SMS service's
// POST /send endpoint.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voxteller/voxteller/pkg/collab/notify"
)

const defaultTimeout = 5 * time.Second

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient overrides the default *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// Client implements notify.Sender over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ notify.Sender = (*Client)(nil)

// New creates a Client for the SMS service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("notify httpapi: baseURL must not be empty")
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

type sendRequest struct {
	To       string `json:"to"`
	Body     string `json:"body"`
	MediaURL string `json:"media_url,omitempty"`
}

// Send implements notify.Sender.
func (c *Client) Send(ctx context.Context, msg notify.Message) error {
	buf, err := json.Marshal(sendRequest{To: msg.To, Body: msg.Body, MediaURL: msg.MediaURL})
	if err != nil {
		return fmt.Errorf("notify httpapi: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send", bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("notify httpapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify httpapi: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notify httpapi: status %d", resp.StatusCode)
	}
	return nil
}
