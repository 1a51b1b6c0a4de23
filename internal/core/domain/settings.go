package domain

import "time"

// AIProvider identifies an LLM backend.
type AIProvider string

// Supported providers.
const (
	AIProviderAnthropic AIProvider = "anthropic"
	AIProviderOpenAI    AIProvider = "openai"
)

// ValidAIProviders returns the providers the factory can build.
func ValidAIProviders() []AIProvider {
	return []AIProvider{AIProviderAnthropic, AIProviderOpenAI}
}

// IsValid reports whether p is a supported provider.
func (p AIProvider) IsValid() bool {
	for _, v := range ValidAIProviders() {
		if p == v {
			return true
		}
	}
	return false
}

// LLMSettings configures one LLM client.
type LLMSettings struct {
	Provider AIProvider
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// IsConfigured reports whether the settings name a provider and carry a key.
func (s *LLMSettings) IsConfigured() bool {
	return s != nil && s.Provider != "" && s.APIKey != ""
}
