// Package memory provides in-memory implementations of the store ports.
// They follow the same ordering and upsert rules as the SQL store and are
// used by tests and by the serve command's --memory mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Januuus/chatbot/internal/core/domain"
	"github.com/Januuus/chatbot/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

const defaultSearchLimit = 10

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
	}
}

// PutDocument upserts a document, keeping filename and creation time.
func (s *DocumentStore) PutDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	stored := *doc
	if existing, ok := s.documents[doc.ID]; ok {
		stored.Filename = existing.Filename
		stored.CreatedAt = existing.CreatedAt
	}
	s.documents[doc.ID] = stored
	return nil
}

// PutChunks replaces the chunks of a document.
func (s *DocumentStore) PutChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[documentID]; !ok {
		return fmt.Errorf("%w: document %s does not exist", domain.ErrStorage, documentID)
	}

	now := time.Now().UTC()
	stored := make([]domain.Chunk, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		c.DocumentID = documentID
		c.Index = i
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		stored[i] = *c
	}
	s.chunks[documentID] = stored
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetChunks retrieves all chunks for a document in index order.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Chunk(nil), s.chunks[documentID]...), nil
}

// SearchDocuments matches term as a case-insensitive substring of the
// filename or content, ordered by filename then ID.
func (s *DocumentStore) SearchDocuments(_ context.Context, term string, limit int) ([]domain.DocumentSummary, error) {
	term = domain.SearchKey(strings.TrimSpace(term))
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []domain.DocumentSummary
	for _, doc := range s.documents {
		if strings.Contains(domain.SearchKey(doc.Filename), term) ||
			strings.Contains(domain.SearchKey(doc.Content), term) {
			results = append(results, doc.Summary())
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Filename != results[j].Filename {
			return results[i].Filename < results[j].Filename
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// GetAllChunks returns chunks ordered by filename, document ID, then index.
func (s *DocumentStore) GetAllChunks(_ context.Context, referenceOnly bool) ([]domain.SourcedChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		if referenceOnly && !doc.IsReference {
			continue
		}
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Filename != docs[j].Filename {
			return docs[i].Filename < docs[j].Filename
		}
		return docs[i].ID < docs[j].ID
	})

	var all []domain.SourcedChunk
	for _, doc := range docs {
		for _, c := range s.chunks[doc.ID] {
			all = append(all, domain.SourcedChunk{Chunk: c, Filename: doc.Filename})
		}
	}
	return all, nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	delete(s.chunks, id)
	return nil
}
