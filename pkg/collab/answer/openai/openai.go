// Package openai provides an answer.Provider backed directly by the OpenAI
// Chat Completions API.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/voxteller/voxteller/pkg/collab/answer"
)

// systemPrompt mirrors the anyllm provider's framing: short spoken replies,
// no invented account data.
const systemPrompt = "You are a helpful bank voice assistant. Answer in one " +
	"or two short spoken sentences. Never read out account numbers in full, " +
	"and never invent balances or transactions."

// config holds optional configuration for the provider.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// Provider implements answer.Provider using the OpenAI API.
type Provider struct {
	client oai.Client
	model  string
}

var _ answer.Provider = (*Provider)(nil)

// New constructs a new OpenAI answer Provider.
func New(apiKey, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Provider{client: oai.NewClient(reqOpts...), model: model}, nil
}

// Answer implements answer.Provider.
func (p *Provider) Answer(ctx context.Context, question string, history []answer.Exchange) (string, error) {
	messages := make([]oai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	messages = append(messages, oai.SystemMessage(systemPrompt))
	for _, h := range history {
		if h.Role == answer.RoleAssistant {
			messages = append(messages, oai.AssistantMessage(h.Text))
		} else {
			messages = append(messages, oai.UserMessage(h.Text))
		}
	}
	messages = append(messages, oai.UserMessage(question))

	resp, err := p.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("openai: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
