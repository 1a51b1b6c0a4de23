package extractors

import (
	"context"
	"fmt"
	"sync"

	"github.com/Januuus/chatbot/internal/core/domain"
	"github.com/Januuus/chatbot/internal/core/ports/driven"
	"github.com/Januuus/chatbot/internal/extractors/docx"
	"github.com/Januuus/chatbot/internal/extractors/image"
	"github.com/Januuus/chatbot/internal/extractors/pdf"
	"github.com/Januuus/chatbot/internal/extractors/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry holds one extractor per media kind.
type Registry struct {
	mu         sync.RWMutex
	extractors map[domain.MediaKind]driven.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[domain.MediaKind]driven.Extractor),
	}
}

// DefaultRegistry creates a registry with every built-in extractor.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(image.New())
	return r
}

// Register adds an extractor, replacing any previous one for its kind.
func (r *Registry) Register(e driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[e.Kind()] = e
}

// Extract converts data according to the declared mimeType.
func (r *Registry) Extract(ctx context.Context, data []byte, mimeType string) (string, error) {
	kind := domain.ParseMediaKind(mimeType)

	r.mu.RLock()
	e, ok := r.extractors[kind]
	r.mu.RUnlock()

	if kind == domain.MediaUnknown || !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedType, mimeType)
	}
	return e.Extract(ctx, data)
}

// Kinds returns the media kinds with a registered extractor.
func (r *Registry) Kinds() []domain.MediaKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.MediaKind, 0, len(r.extractors))
	for _, k := range []domain.MediaKind{domain.MediaPlainText, domain.MediaPDF, domain.MediaDOCX, domain.MediaImage} {
		if _, ok := r.extractors[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
