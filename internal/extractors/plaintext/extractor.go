package plaintext

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/Januuus/chatbot/internal/core/domain"
	"github.com/Januuus/chatbot/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Kind returns the media kind this extractor handles.
func (e *Extractor) Kind() domain.MediaKind {
	return domain.MediaPlainText
}

// Extract decodes data as UTF-8. Invalid sequences become U+FFFD.
func (e *Extractor) Extract(_ context.Context, data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}
