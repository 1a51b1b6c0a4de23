package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Januuus/chatbot/internal/core/domain"
	"github.com/Januuus/chatbot/internal/core/ports/driven"
	"github.com/Januuus/chatbot/internal/core/ports/driving"
	"github.com/Januuus/chatbot/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DefaultMaxFileSize is the upload limit when none is configured.
const DefaultMaxFileSize int64 = 10 << 20

// DocumentConfig holds upload limits.
type DocumentConfig struct {
	// MaxFileSize is the largest accepted upload in bytes.
	MaxFileSize int64

	// AllowedTypes is the MIME allow-list. Empty means domain.DefaultAllowedTypes.
	AllowedTypes []string
}

// DocumentService validates, extracts, chunks and stores documents.
type DocumentService struct {
	store       driven.DocumentStore
	extractors  driven.ExtractorRegistry
	pipeline    driven.PostProcessorPipeline
	recorder    driven.Recorder
	maxFileSize int64
	allowed     map[string]bool
}

// NewDocumentService creates a new document service.
// The recorder may be nil.
func NewDocumentService(
	store driven.DocumentStore,
	extractors driven.ExtractorRegistry,
	pipeline driven.PostProcessorPipeline,
	cfg DocumentConfig,
	recorder driven.Recorder,
) *DocumentService {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	types := cfg.AllowedTypes
	if len(types) == 0 {
		types = domain.DefaultAllowedTypes()
	}
	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		allowed[normaliseMIME(t)] = true
	}
	if recorder == nil {
		recorder = driven.NopRecorder{}
	}

	return &DocumentService{
		store:       store,
		extractors:  extractors,
		pipeline:    pipeline,
		recorder:    recorder,
		maxFileSize: cfg.MaxFileSize,
		allowed:     allowed,
	}
}

// MaxFileSize returns the configured upload limit.
func (s *DocumentService) MaxFileSize() int64 {
	return s.maxFileSize
}

// Validate checks presence, size and declared type of an upload.
func (s *DocumentService) Validate(upload *domain.Upload) error {
	if upload == nil || len(upload.Data) == 0 {
		return fmt.Errorf("%w: no file uploaded", domain.ErrInvalidInput)
	}

	size := upload.Size
	if n := int64(len(upload.Data)); n > size {
		size = n
	}
	if size > s.maxFileSize {
		return fmt.Errorf("%w: %s is %d bytes, limit is %d", domain.ErrFileTooLarge, upload.Filename, size, s.maxFileSize)
	}

	mt := normaliseMIME(upload.MimeType)
	if !s.allowed[mt] || domain.ParseMediaKind(mt) == domain.MediaUnknown {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedType, upload.MimeType)
	}
	return nil
}

// Ingest validates, extracts, chunks and stores one upload.
func (s *DocumentService) Ingest(ctx context.Context, upload *domain.Upload, opts driving.IngestOptions) (*driving.IngestResult, error) {
	kind := domain.MediaUnknown
	if upload != nil {
		kind = domain.ParseMediaKind(upload.MimeType)
	}

	result, err := s.ingest(ctx, upload, kind, opts)
	if err != nil {
		s.recorder.DocumentIngested(kind.String(), ingestStatus(err), 0)
		return nil, err
	}

	s.recorder.DocumentIngested(kind.String(), "success", len(result.Chunks))
	logger.Info("Ingested %s (%s) as %s: %d chunks", result.Document.Filename, kind, result.Document.ID, len(result.Chunks))
	return result, nil
}

func (s *DocumentService) ingest(ctx context.Context, upload *domain.Upload, kind domain.MediaKind, opts driving.IngestOptions) (*driving.IngestResult, error) {
	if err := s.Validate(upload); err != nil {
		return nil, err
	}

	text, err := s.extractors.Extract(ctx, upload.Data, upload.MimeType)
	if err != nil {
		if !errors.Is(err, domain.ErrExtraction) && !errors.Is(err, domain.ErrUnsupportedType) {
			err = fmt.Errorf("%w: %s: %w", domain.ErrExtraction, upload.Filename, err)
		}
		return nil, err
	}

	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}

	size := upload.Size
	if size == 0 {
		size = int64(len(upload.Data))
	}

	doc := &domain.Document{
		ID:          id,
		Filename:    upload.Filename,
		Content:     text,
		MimeType:    upload.MimeType,
		FileSize:    size,
		IsReference: opts.IsReference,
	}
	if kind == domain.MediaImage {
		doc.OriginalContent = base64.StdEncoding.EncodeToString(upload.Data)
	}

	// Stores keep the original filename and creation time on upsert.
	if opts.ID != "" {
		existing, err := s.store.GetDocument(ctx, id)
		switch {
		case err == nil:
			doc.Filename = existing.Filename
			doc.CreatedAt = existing.CreatedAt
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", upload.Filename, err)
	}

	if err := s.store.PutDocument(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.store.PutChunks(ctx, doc.ID, chunks); err != nil {
		return nil, err
	}

	return &driving.IngestResult{Document: doc, Chunks: chunks}, nil
}

// IngestBatch ingests each upload on its own. A failure is reported in
// its outcome and does not stop the remaining uploads.
func (s *DocumentService) IngestBatch(ctx context.Context, uploads []*domain.Upload, opts driving.IngestOptions) []driving.IngestOutcome {
	outcomes := make([]driving.IngestOutcome, len(uploads))
	for i, upload := range uploads {
		if upload != nil {
			outcomes[i].Filename = upload.Filename
		}
		// A fixed ID would make every upload overwrite the same document.
		perUpload := driving.IngestOptions{IsReference: opts.IsReference}
		result, err := s.Ingest(ctx, upload, perUpload)
		if err != nil {
			logger.Warn("Failed to ingest %s: %v", outcomes[i].Filename, err)
		}
		outcomes[i].Result = result
		outcomes[i].Err = err
	}
	return outcomes
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	return s.store.GetDocument(ctx, id)
}

// Chunks returns the chunks of an existing document in index order.
func (s *DocumentService) Chunks(ctx context.Context, id string) ([]domain.Chunk, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.GetChunks(ctx, id)
}

// Search returns documents whose filename or content contains term.
func (s *DocumentService) Search(ctx context.Context, term string, limit int) ([]domain.DocumentSummary, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", domain.ErrInvalidInput)
	}
	return s.store.SearchDocuments(ctx, term, limit)
}

// Delete removes a document and its chunks.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return err
	}
	logger.Info("Deleted document %s", id)
	return nil
}

// ImageData returns the stored image of an image document.
func (s *DocumentService) ImageData(ctx context.Context, id string) (*domain.ImageData, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Kind() != domain.MediaImage || doc.OriginalContent == "" {
		return nil, fmt.Errorf("%w: document %s is not an image", domain.ErrInvalidInput, id)
	}
	return &domain.ImageData{
		MimeType: normaliseMIME(doc.MimeType),
		Base64:   doc.OriginalContent,
	}, nil
}

func normaliseMIME(mt string) string {
	mt = strings.ToLower(strings.TrimSpace(mt))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

func ingestStatus(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrFileTooLarge),
		errors.Is(err, domain.ErrUnsupportedType):
		return "rejected"
	case errors.Is(err, domain.ErrExtraction):
		return "extraction_failed"
	default:
		return "failed"
	}
}
