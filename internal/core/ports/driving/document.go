package driving

import (
	"context"

	"github.com/Januuus/chatbot/internal/core/domain"
)

// DocumentService validates, ingests and looks up documents.
type DocumentService interface {
	// Validate checks an upload's size and type before any processing.
	Validate(upload *domain.Upload) error

	// Ingest extracts, chunks and stores an upload.
	Ingest(ctx context.Context, upload *domain.Upload, opts IngestOptions) (*IngestResult, error)

	// IngestBatch ingests each upload independently.
	// The result slice is parallel to uploads.
	IngestBatch(ctx context.Context, uploads []*domain.Upload, opts IngestOptions) []IngestOutcome

	// Get retrieves a document by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Chunks returns the chunks of a document in index order.
	Chunks(ctx context.Context, id string) ([]domain.Chunk, error)

	// Search returns documents whose filename or content contains term.
	Search(ctx context.Context, term string, limit int) ([]domain.DocumentSummary, error)

	// Delete removes a document and its chunks.
	Delete(ctx context.Context, id string) error

	// ImageData returns the stored image of an image document.
	ImageData(ctx context.Context, id string) (*domain.ImageData, error)
}

// IngestOptions controls how an upload is stored.
type IngestOptions struct {
	// ID overwrites an existing document when set. A new ID is generated otherwise.
	ID string

	// IsReference stores the document as training material.
	IsReference bool
}

// IngestResult is a stored document and its chunks.
type IngestResult struct {
	Document *domain.Document
	Chunks   []domain.Chunk
}

// IngestOutcome is the result of one upload in a batch.
type IngestOutcome struct {
	Filename string
	Result   *IngestResult
	Err      error
}
