// Package chat implements the conversational backend. It forwards the
// message to the configured LLM provider together with the stored transcript
// of the chat, so the model can resolve references to earlier turns.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"switchboard/internal/backend"
	"switchboard/internal/history"
	"switchboard/pkg/provider/llm"
)

// unavailableAnswer is returned when no LLM provider is configured. By
// contract with the router this is an answer, not an error.
const unavailableAnswer = "I can't chat right now: no language model is configured."

const defaultSystemPrompt = "You are a helpful assistant in a chat conversation. " +
	"Answer concisely and stay on topic. Use the conversation so far to resolve " +
	"references like \"it\" or \"that\"."

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 512
	defaultTimeout     = 30 * time.Second
)

// Backend answers free-form conversational queries.
type Backend struct {
	provider llm.Provider
	store    history.Store

	systemPrompt string
	temperature  float64
	maxTokens    int
	timeout      time.Duration
}

// Compile-time interface assertion.
var _ backend.Responder = (*Backend)(nil)

// Option configures a [Backend].
type Option func(*Backend)

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(p string) Option {
	return func(b *Backend) {
		b.systemPrompt = p
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(b *Backend) {
		b.temperature = t
	}
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) Option {
	return func(b *Backend) {
		b.maxTokens = n
	}
}

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) Option {
	return func(b *Backend) {
		b.timeout = d
	}
}

// New creates a chat backend. Both provider and store may be nil: a nil
// provider yields a descriptive unavailability answer, a nil store simply
// disables history injection (the router owns transcript writes either way).
func New(provider llm.Provider, store history.Store, opts ...Option) *Backend {
	b := &Backend{
		provider:     provider,
		store:        store,
		systemPrompt: defaultSystemPrompt,
		temperature:  defaultTemperature,
		maxTokens:    defaultMaxTokens,
		timeout:      defaultTimeout,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Answer implements backend.Responder.
func (b *Backend) Answer(ctx context.Context, q backend.Query) (string, error) {
	if b.provider == nil {
		return unavailableAnswer, nil
	}

	messages := b.contextMessages(ctx, q.ChatID)
	messages = append(messages, llm.Message{Role: "user", Content: q.Text})

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	resp, err := b.provider.Complete(ctx, llm.CompletionRequest{
		Messages:     messages,
		SystemPrompt: b.systemPrompt,
		Temperature:  b.temperature,
		MaxTokens:    b.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat: complete: %w", err)
	}

	answer := strings.TrimSpace(resp.Content)
	if answer == "" {
		return "", fmt.Errorf("chat: model %s returned an empty response", b.provider.Model())
	}
	return answer, nil
}

// contextMessages converts the stored transcript into role-tagged messages.
// A failing or absent store degrades to an empty context rather than an
// error; the current message alone is still a valid conversation.
func (b *Backend) contextMessages(ctx context.Context, chatID string) []llm.Message {
	if b.store == nil || chatID == "" {
		return nil
	}

	tr, err := b.store.Get(ctx, chatID)
	if err != nil {
		return nil
	}

	var messages []llm.Message
	for _, line := range tr.Lines {
		switch {
		case strings.HasPrefix(line, history.UserPrefix):
			messages = append(messages, llm.Message{
				Role:    "user",
				Content: strings.TrimPrefix(line, history.UserPrefix),
			})
		case strings.HasPrefix(line, history.AgentPrefix):
			messages = append(messages, llm.Message{
				Role:    "assistant",
				Content: strings.TrimPrefix(line, history.AgentPrefix),
			})
		}
	}
	return messages
}
