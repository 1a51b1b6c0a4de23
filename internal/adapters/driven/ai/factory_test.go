package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Januuus/chatbot/internal/core/domain"
)

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.LLMSettings
		wantNil     bool
		wantErr     bool
		errContains string
	}{
		{
			name:     "nil settings returns nil",
			settings: nil,
			wantNil:  true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.LLMSettings{Provider: domain.AIProviderOpenAI},
			wantNil:  true,
		},
		{
			name: "openai provider creates service",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "gpt-4o-mini",
			},
		},
		{
			name: "anthropic provider creates service",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
			},
		},
		{
			name: "unknown provider returns error",
			settings: &domain.LLMSettings{
				Provider: "mystery",
				APIKey:   "test-key",
			},
			wantNil:     true,
			wantErr:     true,
			errContains: "unsupported LLM provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				require.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, svc)
			} else {
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestNewServices_SharesIdenticalClient(t *testing.T) {
	settings := &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"}
	copied := *settings

	svcs, err := NewServices(settings, &copied)
	require.NoError(t, err)
	defer svcs.Close()

	assert.Same(t, svcs.Answer, svcs.Selector)
}

func TestNewServices_SeparateSelector(t *testing.T) {
	svcs, err := NewServices(
		&domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "a"},
		&domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "o", Model: "gpt-test"},
	)
	require.NoError(t, err)
	defer svcs.Close()

	assert.NotSame(t, svcs.Answer, svcs.Selector)
	assert.Equal(t, "gpt-test", svcs.Selector.ModelName())
}

func TestNewServices_MissingAnswer(t *testing.T) {
	_, err := NewServices(&domain.LLMSettings{}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLLMUnavailable))
}

func TestNewServices_BadSelector(t *testing.T) {
	_, err := NewServices(
		&domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "a"},
		&domain.LLMSettings{Provider: "mystery", APIKey: "x"},
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLLMUnavailable))
}

func TestServices_Ping(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer down.Close()

	ok, err := NewServices(&domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k", BaseURL: up.URL}, nil)
	require.NoError(t, err)
	assert.NoError(t, ok.Ping(context.Background()))

	bad, err := NewServices(&domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k", BaseURL: down.URL}, nil)
	require.NoError(t, err)
	err = bad.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLLMUnavailable))
}

func TestAIProvider_IsValid(t *testing.T) {
	assert.True(t, domain.AIProviderOpenAI.IsValid())
	assert.True(t, domain.AIProviderAnthropic.IsValid())
	assert.False(t, domain.AIProvider("ollama").IsValid())
}
