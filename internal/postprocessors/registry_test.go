package postprocessors

import (
	"context"
	"testing"

	"github.com/Januuus/chatbot/internal/core/domain"
	"github.com/Januuus/chatbot/internal/core/ports/driven"
)

// registryMockProcessor is a simple mock for testing registry functionality.
type registryMockProcessor struct {
	name string
}

func (m *registryMockProcessor) Name() string { return m.name }
func (m *registryMockProcessor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	return chunks, nil
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if len(r.builders) != 0 {
		t.Errorf("expected empty builders, got %d", len(r.builders))
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	builder := func(_ map[string]any) (driven.PostProcessor, error) {
		return &registryMockProcessor{name: "test"}, nil
	}

	r.Register("test", builder)

	if !r.Has("test") {
		t.Error("expected 'test' to be registered")
	}
}

func TestRegistry_Build_Success(t *testing.T) {
	r := NewRegistry()

	builder := func(cfg map[string]any) (driven.PostProcessor, error) {
		name := "default"
		if n, ok := cfg["name"].(string); ok {
			name = n
		}
		return &registryMockProcessor{name: name}, nil
	}

	r.Register("test", builder)

	proc, err := r.Build("test", map[string]any{"name": "custom"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if proc.Name() != "custom" {
		t.Errorf("expected name 'custom', got %q", proc.Name())
	}
}

func TestRegistry_Build_UnknownProcessor(t *testing.T) {
	r := NewRegistry()

	_, err := r.Build("unknown", nil)
	if err == nil {
		t.Error("expected error for unknown processor")
	}
}

func TestRegistry_Has(t *testing.T) {
	r := NewRegistry()

	if r.Has("nonexistent") {
		t.Error("expected Has to return false for nonexistent processor")
	}

	r.Register("exists", func(_ map[string]any) (driven.PostProcessor, error) {
		return &registryMockProcessor{name: "exists"}, nil
	})

	if !r.Has("exists") {
		t.Error("expected Has to return true for registered processor")
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()

	if names := r.Names(); len(names) != 0 {
		t.Errorf("expected 0 names, got %d", len(names))
	}

	r.Register("beta", func(_ map[string]any) (driven.PostProcessor, error) {
		return &registryMockProcessor{name: "beta"}, nil
	})
	r.Register("alpha", func(_ map[string]any) (driven.PostProcessor, error) {
		return &registryMockProcessor{name: "alpha"}, nil
	})

	names := r.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("expected sorted [alpha beta], got %v", names)
	}
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	for _, name := range DefaultPipelineNames {
		if !r.Has(name) {
			t.Errorf("expected %q to be registered after RegisterDefaults", name)
		}
	}
}

func TestBuildPipeline_Defaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	settings := map[string]map[string]any{
		"chunker": {"chunk_size": int64(40), "overlap_words": int64(0)},
	}
	p, err := r.BuildPipeline(DefaultPipelineNames, settings)
	if err != nil {
		t.Fatalf("BuildPipeline failed: %v", err)
	}
	if got := p.Names(); len(got) != 2 || got[0] != "chunker" || got[1] != "metadata" {
		t.Errorf("unexpected pipeline order %v", got)
	}

	doc := &domain.Document{
		ID:          "doc-1",
		Filename:    "notes.txt",
		Content:     "Alpha beta gamma delta. Epsilon zeta eta theta.",
		IsReference: true,
	}
	chunks, err := p.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[1].Content != "Epsilon zeta eta theta." {
		t.Errorf("overlap_words=0 not applied, got %q", chunks[1].Content)
	}
	if chunks[1].Metadata.ChunkNumber != 2 || chunks[1].Metadata.TotalChunks != 2 {
		t.Errorf("metadata not stamped: %+v", chunks[1].Metadata)
	}
	if chunks[0].Metadata.Filename != "notes.txt" || !chunks[0].Metadata.IsReference {
		t.Errorf("metadata not stamped: %+v", chunks[0].Metadata)
	}
}

func TestBuildPipeline_UnknownProcessor(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	if _, err := r.BuildPipeline([]string{"chunker", "stemmer"}, nil); err == nil {
		t.Error("expected error for unknown processor")
	}
}

func TestBuildChunker_WithNilConfig(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	proc, err := r.Build("chunker", nil)
	if err != nil {
		t.Fatalf("Build chunker with nil config failed: %v", err)
	}

	if proc.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got %q", proc.Name())
	}
}

func TestGetIntFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      map[string]any
		key      string
		expected int
		ok       bool
	}{
		{"int value", map[string]any{"size": 100}, "size", 100, true},
		{"int64 value", map[string]any{"size": int64(200)}, "size", 200, true},
		{"float64 value", map[string]any{"size": float64(300)}, "size", 300, true},
		{"zero value", map[string]any{"size": 0}, "size", 0, true},
		{"string value", map[string]any{"size": "400"}, "size", 0, false},
		{"missing key", map[string]any{"other": 100}, "size", 0, false},
		{"nil config", nil, "size", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := getIntFromConfig(tt.cfg, tt.key)
			if result != tt.expected || ok != tt.ok {
				t.Errorf("expected (%d, %v), got (%d, %v)", tt.expected, tt.ok, result, ok)
			}
		})
	}
}
