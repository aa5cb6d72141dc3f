// Package httpapi implements speech.Synthesizer against the demo voice
// service's POST /synthesize endpoint, which exchanges base64-encoded audio.
package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/voxteller/voxteller/pkg/collab/speech"
)

const defaultTimeout = 15 * time.Second

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient overrides the default *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// Client implements speech.Synthesizer over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ speech.Synthesizer = (*Client)(nil)

// New creates a Client for the voice service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("speech httpapi: baseURL must not be empty")
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

type synthesizeRequest struct {
	Text string `json:"text"`
}

type synthesizeResponse struct {
	AudioBytes string `json:"audio_bytes"` // base64
	Format     string `json:"format"`
}

// Synthesize implements speech.Synthesizer.
func (c *Client) Synthesize(ctx context.Context, text string) (speech.Audio, error) {
	buf, err := json.Marshal(synthesizeRequest{Text: text})
	if err != nil {
		return speech.Audio{}, fmt.Errorf("speech httpapi: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/synthesize", bytes.NewReader(buf))
	if err != nil {
		return speech.Audio{}, fmt.Errorf("speech httpapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return speech.Audio{}, fmt.Errorf("speech httpapi: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return speech.Audio{}, fmt.Errorf("speech httpapi: status %d", resp.StatusCode)
	}

	var out synthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return speech.Audio{}, fmt.Errorf("speech httpapi: decode response: %w", err)
	}

	content, err := base64.StdEncoding.DecodeString(out.AudioBytes)
	if err != nil {
		return speech.Audio{}, fmt.Errorf("speech httpapi: decode audio: %w", err)
	}
	return speech.Audio{Content: content, Format: out.Format}, nil
}
