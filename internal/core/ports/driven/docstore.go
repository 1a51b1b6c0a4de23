package driven

import (
	"context"

	"github.com/Januuus/chatbot/internal/core/domain"
)

// DocumentStore persists documents and chunks.
// Failures of the backing store are reported as domain.ErrStorage.
type DocumentStore interface {
	// PutDocument upserts a document by ID. On conflict the content, type,
	// size, reference flag and original content are overwritten and
	// UpdatedAt is bumped. Filename and CreatedAt are kept.
	PutDocument(ctx context.Context, doc *domain.Document) error

	// PutChunks replaces all chunks of a document in one atomic step.
	// Indices are assigned sequentially from zero in slice order.
	PutChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID. Returns domain.ErrNotFound.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunks returns a document's chunks in index order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// SearchDocuments returns documents whose filename or content contains
	// term, case-insensitively, ordered by filename then ID.
	SearchDocuments(ctx context.Context, term string, limit int) ([]domain.DocumentSummary, error)

	// GetAllChunks returns chunks joined with their document's filename,
	// ordered by filename, document ID, then chunk index.
	GetAllChunks(ctx context.Context, referenceOnly bool) ([]domain.SourcedChunk, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error
}

// ConversationStore persists chat history.
type ConversationStore interface {
	// SaveConversation stores a conversation record.
	SaveConversation(ctx context.Context, conv *domain.Conversation) error

	// ListConversations returns the most recent conversations, newest first.
	ListConversations(ctx context.Context, limit int) ([]domain.Conversation, error)
}
