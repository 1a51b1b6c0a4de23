package driven

import (
	"context"

	"github.com/Januuus/chatbot/internal/core/domain"
)

// Extractor converts the bytes of one media kind into plain text.
// Extractors are pure: they read the buffer and touch nothing else.
type Extractor interface {
	// Kind returns the media kind this extractor handles.
	Kind() domain.MediaKind

	// Extract returns the text content of data.
	// Structural failures are reported as domain.ErrExtraction.
	Extract(ctx context.Context, data []byte) (string, error)
}

// ExtractorRegistry dispatches on the declared MIME type.
type ExtractorRegistry interface {
	// Register adds an extractor, replacing any previous one for its kind.
	Register(e Extractor)

	// Extract converts data according to mimeType.
	// Unknown types are reported as domain.ErrUnsupportedType.
	Extract(ctx context.Context, data []byte, mimeType string) (string, error)
}
