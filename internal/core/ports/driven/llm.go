// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/Januuus/chatbot/internal/core/domain"
)

// LLMService provides language model chat completions.
//
// Implementations include:
//   - Anthropic (Claude), used to answer queries
//   - OpenAI, used by default as the chunk selection oracle
type LLMService interface {
	// Chat conducts a conversation and returns the assistant reply.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (*ChatResponse, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string

	// Images are attached to user messages for vision capable models.
	Images []domain.ImageData
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	// Nil leaves the provider default in place.
	Temperature *float64
}

// ChatResponse is the assistant reply with token usage.
type ChatResponse struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Temperature returns a pointer for ChatOptions.Temperature.
func Temperature(t float64) *float64 {
	return &t
}

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
