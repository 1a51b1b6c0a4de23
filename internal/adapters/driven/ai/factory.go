// Package ai provides factory functions for creating LLM service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	anthropicllm "github.com/Januuus/chatbot/internal/adapters/driven/llm/anthropic"
	openaillm "github.com/Januuus/chatbot/internal/adapters/driven/llm/openai"
	"github.com/Januuus/chatbot/internal/core/domain"
	"github.com/Januuus/chatbot/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Services holds the two model clients the chat backend uses.
type Services struct {
	// Answer generates chat replies.
	Answer driven.LLMService

	// Selector backs the relevance oracle. It may be the same client as Answer.
	Selector driven.LLMService
}

// Close releases all resources held by Services.
func (s *Services) Close() {
	if s.Answer != nil {
		s.Answer.Close()
	}
	if s.Selector != nil && s.Selector != s.Answer {
		s.Selector.Close()
	}
}

// NewServices builds the answer and selector clients. When both settings
// describe the same provider, key, base URL and model, one client is shared.
func NewServices(answer, selector *domain.LLMSettings) (*Services, error) {
	answerSvc, err := CreateLLMService(answer)
	if err != nil {
		return nil, fmt.Errorf("%w: answer model: %w", domain.ErrLLMUnavailable, err)
	}
	if answerSvc == nil {
		return nil, fmt.Errorf("%w: answer model is not configured", domain.ErrLLMUnavailable)
	}

	if selector == nil || sameSettings(answer, selector) {
		return &Services{Answer: answerSvc, Selector: answerSvc}, nil
	}

	selectorSvc, err := CreateLLMService(selector)
	if err != nil {
		answerSvc.Close()
		return nil, fmt.Errorf("%w: selector model: %w", domain.ErrLLMUnavailable, err)
	}
	if selectorSvc == nil {
		answerSvc.Close()
		return nil, fmt.Errorf("%w: selector model is not configured", domain.ErrLLMUnavailable)
	}
	return &Services{Answer: answerSvc, Selector: selectorSvc}, nil
}

// Ping validates connectivity of both clients.
func (s *Services) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.Answer.Ping(ctx); err != nil {
		return fmt.Errorf("%w: answer model unreachable (%w)", domain.ErrLLMUnavailable, err)
	}
	if s.Selector != s.Answer {
		if err := s.Selector.Ping(ctx); err != nil {
			return fmt.Errorf("%w: selector model unreachable (%w)", domain.ErrLLMUnavailable, err)
		}
	}
	return nil
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return createOpenAILLM(settings)

	case domain.AIProviderAnthropic:
		return createAnthropicLLM(settings)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

func sameSettings(a, b *domain.LLMSettings) bool {
	return a.Provider == b.Provider &&
		a.APIKey == b.APIKey &&
		a.BaseURL == b.BaseURL &&
		a.Model == b.Model
}

// createOpenAILLM creates an OpenAI LLM service.
func createOpenAILLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		Timeout: settings.Timeout,
	})
}

// createAnthropicLLM creates an Anthropic LLM service.
func createAnthropicLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return anthropicllm.NewLLMService(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		Timeout: settings.Timeout,
	})
}
