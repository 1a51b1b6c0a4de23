// Package image handles image uploads. Images carry no text; their bytes
// are kept by the ingestion service as vision input.
package image

import (
	"context"

	"github.com/Januuus/chatbot/internal/core/domain"
	"github.com/Januuus/chatbot/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor is the no-op extractor for images.
type Extractor struct{}

// New creates a new image extractor.
func New() *Extractor {
	return &Extractor{}
}

// Kind returns the media kind this extractor handles.
func (e *Extractor) Kind() domain.MediaKind {
	return domain.MediaImage
}

// Extract always returns empty text.
func (e *Extractor) Extract(_ context.Context, _ []byte) (string, error) {
	return "", nil
}
