// Package chunker provides a sentence-aligned text chunking processor.
package chunker

import (
	"context"

	"github.com/google/uuid"

	"github.com/Januuus/chatbot/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultOverlapWords is the default number of words carried between chunks.
const DefaultOverlapWords = 20

// Processor splits document content into sentence-aligned chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the number of words carried into the next chunk.
func WithOverlap(words int) Option {
	return func(p *Processor) {
		if words >= 0 {
			p.overlap = words
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlapWords,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
// Documents that are not reference material are split without overlap.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	overlap := p.overlap
	if !doc.IsReference {
		overlap = 0
	}

	segments := Split(doc.Content, p.chunkSize, overlap)
	if len(segments) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, len(segments))
	for i, seg := range segments {
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Index:      i,
			Content:    seg.Content,
		})
	}

	return chunks, nil
}
