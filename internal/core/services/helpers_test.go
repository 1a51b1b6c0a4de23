package services

import (
	"context"
	"sync"
	"time"

	"github.com/Januuus/chatbot/internal/adapters/driven/storage/memory"
	"github.com/Januuus/chatbot/internal/core/ports/driven"
	"github.com/Januuus/chatbot/internal/extractors"
	"github.com/Januuus/chatbot/internal/postprocessors"
	"github.com/Januuus/chatbot/internal/postprocessors/chunker"
	"github.com/Januuus/chatbot/internal/postprocessors/metadata"
)

// fakeLLM records the last request and returns a canned reply.
type fakeLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	messages []driven.ChatMessage
	opts     driven.ChatOptions
}

func (f *fakeLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (*driven.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.messages = messages
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &driven.ChatResponse{Text: f.reply, InputTokens: 11, OutputTokens: 7}, nil
}

func (f *fakeLLM) ModelName() string            { return "fake-model" }
func (f *fakeLLM) Ping(_ context.Context) error { return nil }
func (f *fakeLLM) Close() error                 { return nil }

// fakeOracle returns fixed IDs and remembers the prompt.
type fakeOracle struct {
	ids    []string
	err    error
	calls  int
	prompt string
}

func (f *fakeOracle) SelectIDs(_ context.Context, prompt string) ([]string, error) {
	f.calls++
	f.prompt = prompt
	return f.ids, f.err
}

// countingRecorder tallies recorder calls.
type countingRecorder struct {
	mu         sync.Mutex
	ingested   map[string]int
	selections map[string]int
	chats      map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		ingested:   map[string]int{},
		selections: map[string]int{},
		chats:      map[string]int{},
	}
}

func (r *countingRecorder) DocumentIngested(kind, status string, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ingested[kind+"/"+status]++
}

func (r *countingRecorder) SelectionCompleted(outcome string, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selections[outcome]++
}

func (r *countingRecorder) ChatCompleted(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats[status]++
}

func newTestPipeline(chunkSize, overlap int) *postprocessors.Pipeline {
	return postprocessors.NewPipeline(
		chunker.New(chunker.WithChunkSize(chunkSize), chunker.WithOverlap(overlap)),
		metadata.New(),
	)
}

func newTestDocumentService(store *memory.DocumentStore, rec driven.Recorder) *DocumentService {
	return NewDocumentService(
		store,
		extractors.DefaultRegistry(),
		newTestPipeline(1000, 20),
		DocumentConfig{MaxFileSize: 1024},
		rec,
	)
}
