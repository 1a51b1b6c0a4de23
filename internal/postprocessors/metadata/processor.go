// Package metadata stamps each chunk with a denormalised snapshot of its
// document so chunks can be displayed without a join.
package metadata

import (
	"context"

	"github.com/Januuus/chatbot/internal/core/domain"
)

// Processor fills in ChunkMetadata. It implements the PostProcessor interface.
type Processor struct{}

// New creates a new metadata processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "metadata"
}

// Process renumbers chunks from zero and records filename, position,
// total and the reference flag on each.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	total := len(chunks)
	for i := range chunks {
		chunks[i].Index = i
		chunks[i].DocumentID = doc.ID
		chunks[i].Metadata = domain.ChunkMetadata{
			Filename:    doc.Filename,
			ChunkNumber: i + 1,
			TotalChunks: total,
			IsReference: doc.IsReference,
		}
	}
	return chunks, nil
}
