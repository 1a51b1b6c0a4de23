package driving

import (
	"context"

	"github.com/Januuus/chatbot/internal/core/domain"
)

// ChatService answers queries using stored reference material.
type ChatService interface {
	// ProcessQuery answers a query and records the exchange.
	ProcessQuery(ctx context.Context, req ChatRequest) (*ChatResult, error)

	// History returns recent conversations, newest first.
	History(ctx context.Context, limit int) ([]domain.Conversation, error)
}

// ChatRequest is one user query.
type ChatRequest struct {
	// Query is the user's question.
	Query string

	// IncludeContext enables reference chunk selection.
	IncludeContext bool

	// Image is an image uploaded with the query.
	Image *domain.ImageData

	// ImageID refers to a previously uploaded image document.
	// Ignored when Image is set.
	ImageID string

	// Attachment is a document uploaded with the query.
	Attachment *domain.Upload
}

// ChatResult is the model's answer.
type ChatResult struct {
	ConversationID string
	Response       string
	HasImage       bool
	ContextChunks  int
	InputTokens    int
	OutputTokens   int
}

// ChunkSelector picks the reference chunks relevant to a query.
type ChunkSelector interface {
	// Select loads all reference chunks and returns the relevant subset.
	Select(ctx context.Context, query string) ([]domain.SourcedChunk, error)

	// SelectFrom returns the subset of chunks relevant to query.
	SelectFrom(ctx context.Context, query string, chunks []domain.SourcedChunk) ([]domain.SourcedChunk, error)
}
