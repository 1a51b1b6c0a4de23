package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Januuus/chatbot/internal/core/domain"
	"github.com/Januuus/chatbot/internal/core/ports/driven"
)

// Search limits.
const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 100
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

type documentRow struct {
	ID              string         `db:"id"`
	Filename        string         `db:"filename"`
	Content         string         `db:"content"`
	MimeType        string         `db:"mime_type"`
	FileSize        int64          `db:"file_size"`
	IsReference     bool           `db:"is_reference"`
	OriginalContent sql.NullString `db:"original_content"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r documentRow) toDomain() *domain.Document {
	return &domain.Document{
		ID:              r.ID,
		Filename:        r.Filename,
		Content:         r.Content,
		MimeType:        r.MimeType,
		FileSize:        r.FileSize,
		IsReference:     r.IsReference,
		OriginalContent: r.OriginalContent.String,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type chunkRow struct {
	ID         string    `db:"id"`
	DocumentID string    `db:"document_id"`
	Index      int       `db:"chunk_index"`
	Content    string    `db:"content"`
	Metadata   string    `db:"metadata"`
	CreatedAt  time.Time `db:"created_at"`
	Filename   string    `db:"filename"`
}

func (r chunkRow) toDomain() (domain.Chunk, error) {
	c := domain.Chunk{
		ID:         r.ID,
		DocumentID: r.DocumentID,
		Index:      r.Index,
		Content:    r.Content,
		CreatedAt:  r.CreatedAt,
	}
	if r.Metadata != "" {
		if err := json.Unmarshal([]byte(r.Metadata), &c.Metadata); err != nil {
			return c, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
	}
	return c, nil
}

// PutDocument upserts a document by ID.
func (s *documentStore) PutDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, s.store.db.Rebind(`
		INSERT INTO documents (id, filename, content, mime_type, file_size, is_reference, original_content,
			filename_key, content_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			content_key = excluded.content_key,
			mime_type = excluded.mime_type,
			file_size = excluded.file_size,
			is_reference = excluded.is_reference,
			original_content = excluded.original_content,
			updated_at = excluded.updated_at
	`), doc.ID, doc.Filename, doc.Content, doc.MimeType, doc.FileSize, doc.IsReference,
		nullString(doc.OriginalContent), domain.SearchKey(doc.Filename), domain.SearchKey(doc.Content),
		doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return storageErr("saving document", err)
	}
	return nil
}

// PutChunks replaces all chunks of a document inside one transaction, so
// readers see either the old set or the new set.
func (s *documentStore) PutChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM chunks WHERE document_id = ?"), documentID); err != nil {
		return storageErr("clearing chunks", err)
	}

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
		INSERT INTO chunks (id, document_id, chunk_index, content, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return storageErr("preparing statement", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
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

		metadataJSON, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Index, c.Content,
			string(metadataJSON), c.CreatedAt); err != nil {
			return storageErr("saving chunk", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("committing chunks", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	var row documentRow
	err := s.store.db.GetContext(ctx, &row, s.store.db.Rebind(`
		SELECT id, filename, content, mime_type, file_size, is_reference, original_content, created_at, updated_at
		FROM documents WHERE id = ?
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("getting document", err)
	}
	return row.toDomain(), nil
}

// GetChunks retrieves all chunks for a document in index order.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	var rows []chunkRow
	err := s.store.db.SelectContext(ctx, &rows, s.store.db.Rebind(`
		SELECT id, document_id, chunk_index, content, metadata, created_at
		FROM chunks WHERE document_id = ?
		ORDER BY chunk_index
	`), documentID)
	if err != nil {
		return nil, storageErr("querying chunks", err)
	}

	chunks := make([]domain.Chunk, 0, len(rows))
	for _, r := range rows {
		c, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// SearchDocuments matches term as a case-insensitive substring of the
// filename or content, ordered by filename then ID.
func (s *documentStore) SearchDocuments(ctx context.Context, term string, limit int) ([]domain.DocumentSummary, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", domain.ErrInvalidInput)
	}
	limit = clampLimit(limit)
	pattern := "%" + escapeLike(domain.SearchKey(term)) + "%"

	var rows []documentRow
	err := s.store.db.SelectContext(ctx, &rows, s.store.db.Rebind(`
		SELECT id, filename, mime_type, file_size, is_reference, created_at, updated_at
		FROM documents
		WHERE filename_key LIKE ? ESCAPE '\' OR content_key LIKE ? ESCAPE '\'
		ORDER BY filename`+s.store.collate+`, id
		LIMIT ?
	`), pattern, pattern, limit)
	if err != nil {
		return nil, storageErr("searching documents", err)
	}

	results := make([]domain.DocumentSummary, 0, len(rows))
	for _, r := range rows {
		results = append(results, r.toDomain().Summary())
	}
	return results, nil
}

// GetAllChunks returns chunks joined with their document's filename.
func (s *documentStore) GetAllChunks(ctx context.Context, referenceOnly bool) ([]domain.SourcedChunk, error) {
	query := `
		SELECT c.id, c.document_id, c.chunk_index, c.content, c.metadata, c.created_at, d.filename
		FROM chunks c
		JOIN documents d ON d.id = c.document_id`
	var args []any
	if referenceOnly {
		query += `
		WHERE d.is_reference = ?`
		args = append(args, true)
	}
	query += `
		ORDER BY d.filename` + s.store.collate + `, d.id, c.chunk_index`

	var rows []chunkRow
	if err := s.store.db.SelectContext(ctx, &rows, s.store.db.Rebind(query), args...); err != nil {
		return nil, storageErr("querying all chunks", err)
	}

	chunks := make([]domain.SourcedChunk, 0, len(rows))
	for _, r := range rows {
		c, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, domain.SourcedChunk{Chunk: c, Filename: r.Filename})
	}
	return chunks, nil
}

// DeleteDocument removes a document and its chunks.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM chunks WHERE document_id = ?"), id); err != nil {
		return storageErr("deleting chunks", err)
	}
	res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM documents WHERE id = ?"), id)
	if err != nil {
		return storageErr("deleting document", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return storageErr("committing delete", err)
	}
	return nil
}

// escapeLike escapes LIKE wildcards so the term matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return limit
}

// nullString converts empty string to nil for nullable columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
