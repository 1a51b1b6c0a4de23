package cli

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Januuus/chatbot/internal/adapters/driven/ai"
	"github.com/Januuus/chatbot/internal/adapters/driven/storage/memory"
	"github.com/Januuus/chatbot/internal/config"
	"github.com/Januuus/chatbot/internal/core/ports/driven"
	"github.com/Januuus/chatbot/internal/core/ports/driving"
)

type fakeLLM struct {
	mu       sync.Mutex
	messages []driven.ChatMessage
}

func (f *fakeLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (*driven.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = messages
	return &driven.ChatResponse{Text: "reply", InputTokens: 3, OutputTokens: 2}, nil
}

func (f *fakeLLM) ModelName() string            { return "fake" }
func (f *fakeLLM) Ping(_ context.Context) error { return nil }
func (f *fakeLLM) Close() error                 { return nil }

func TestRuntimeWire_UsesPromptDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat_system.txt"), []byte("Custom prompt."), 0o644))

	cfg := config.Default()
	cfg.Prompts.Dir = dir
	llm := &fakeLLM{}
	convs := memory.NewConversationStore()
	rt := &runtime{cfg: cfg}

	require.NoError(t, rt.wire(memory.NewDocumentStore(), convs, &ai.Services{Answer: llm, Selector: llm}))

	result, err := rt.chat.ProcessQuery(context.Background(), driving.ChatRequest{Query: "hi", IncludeContext: true})
	require.NoError(t, err)
	assert.Equal(t, "reply", result.Response)

	require.NotEmpty(t, llm.messages)
	assert.Equal(t, "Custom prompt.", llm.messages[0].Content)

	_, err = os.Stat(filepath.Join(dir, "selector_system.txt"))
	assert.NoError(t, err, "missing prompt files are created with defaults")

	history, err := rt.chat.History(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestRuntimeWire_WithoutModels(t *testing.T) {
	rt := &runtime{cfg: config.Default()}

	require.NoError(t, rt.wire(memory.NewDocumentStore(), memory.NewConversationStore(), nil))

	assert.Nil(t, rt.llm)
	assert.NotNil(t, rt.documents)
	assert.NotNil(t, rt.training)
	assert.NotNil(t, rt.chat)
}
