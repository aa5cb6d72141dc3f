// Package anyllm provides an LLM-backed answer.Provider by wrapping
// github.com/mozilla-ai/any-llm-go, a unified multi-provider interface that
// supports OpenAI, Anthropic, Gemini, Ollama, DeepSeek, Mistral, Groq, and
// more.
//
// Usage:
//
//	p, err := anyllm.New("anthropic", "claude-sonnet-4-5", anyllmlib.WithAPIKey("sk-ant-..."))
//	reply, err := p.Answer(ctx, "What are your opening hours?", history)
package anyllm

import (
	"context"
	"fmt"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/voxteller/voxteller/pkg/collab/answer"
)

// defaultSystemPrompt frames the model as a concise spoken banking
// assistant. Replies are played back over a phone line, so brevity matters
// more than completeness.
const defaultSystemPrompt = "You are a helpful bank voice assistant. " +
	"Answer in one or two short spoken sentences. Never read out account " +
	"numbers in full, and never invent balances or transactions."

// Option is a functional option for configuring the Provider.
type Option func(*Provider)

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(p *Provider) { p.systemPrompt = prompt }
}

// WithMaxTokens caps the completion length. Zero means provider default.
func WithMaxTokens(n int) Option {
	return func(p *Provider) { p.maxTokens = n }
}

// Provider implements answer.Provider by delegating to an any-llm-go backend.
type Provider struct {
	backend      anyllmlib.Provider
	model        string
	systemPrompt string
	maxTokens    int
}

var _ answer.Provider = (*Provider)(nil)

// New creates a Provider backed by the named LLM backend.
//
// backendName is one of: "openai", "anthropic", "gemini", "ollama",
// "mistral". model is the specific model (e.g. "gpt-4o-mini"). libOpts are
// any-llm-go options such as anyllmlib.WithAPIKey and anyllmlib.WithBaseURL;
// without an API key option the backend falls back to its environment
// variable (OPENAI_API_KEY, ANTHROPIC_API_KEY, ...).
func New(backendName, model string, libOpts []anyllmlib.Option, opts ...Option) (*Provider, error) {
	if model == "" {
		return nil, fmt.Errorf("anyllm: model must not be empty")
	}
	backend, err := createBackend(backendName, libOpts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", backendName, err)
	}
	p := &Provider{
		backend:      backend,
		model:        model,
		systemPrompt: defaultSystemPrompt,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

func createBackend(name string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(name) {
	case "openai":
		return anyllmoai.New(opts...)
	case "anthropic":
		return anthropic.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported backend %q; supported: openai, anthropic, gemini, ollama, mistral", name)
	}
}

// Answer implements answer.Provider.
func (p *Provider) Answer(ctx context.Context, question string, history []answer.Exchange) (string, error) {
	messages := make([]anyllmlib.Message, 0, len(history)+2)
	messages = append(messages, anyllmlib.Message{
		Role:    anyllmlib.RoleSystem,
		Content: p.systemPrompt,
	})
	for _, h := range history {
		role := anyllmlib.RoleUser
		if h.Role == answer.RoleAssistant {
			role = anyllmlib.RoleAssistant
		}
		messages = append(messages, anyllmlib.Message{Role: role, Content: h.Text})
	}
	messages = append(messages, anyllmlib.Message{
		Role:    anyllmlib.RoleUser,
		Content: question,
	})

	params := anyllmlib.CompletionParams{
		Model:    p.model,
		Messages: messages,
	}
	if p.maxTokens > 0 {
		params.MaxTokens = &p.maxTokens
	}

	resp, err := p.backend.Completion(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anyllm: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("anyllm: empty choices in response")
	}
	return resp.Choices[0].Message.ContentString(), nil
}
