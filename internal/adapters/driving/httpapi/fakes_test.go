package httpapi

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Januuus/chatbot/internal/core/domain"
	"github.com/Januuus/chatbot/internal/core/ports/driving"
)

type fakeDocuments struct {
	mu       sync.Mutex
	docs     map[string]*domain.Document
	chunks   map[string][]domain.Chunk
	lastOpts driving.IngestOptions
	maxSize  int64
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{
		docs:    make(map[string]*domain.Document),
		chunks:  make(map[string][]domain.Chunk),
		maxSize: 1024,
	}
}

func (f *fakeDocuments) Validate(upload *domain.Upload) error {
	if upload == nil || len(upload.Data) == 0 {
		return fmt.Errorf("%w: empty upload", domain.ErrInvalidInput)
	}
	if int64(len(upload.Data)) > f.maxSize {
		return fmt.Errorf("%w: %d bytes", domain.ErrFileTooLarge, len(upload.Data))
	}
	if domain.ParseMediaKind(upload.MimeType) == domain.MediaUnknown {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedType, upload.MimeType)
	}
	return nil
}

func (f *fakeDocuments) Ingest(_ context.Context, upload *domain.Upload, opts driving.IngestOptions) (*driving.IngestResult, error) {
	if err := f.Validate(upload); err != nil {
		return nil, err
	}
	if strings.Contains(string(upload.Data), "corrupt") {
		return nil, fmt.Errorf("%w: unreadable", domain.ErrExtraction)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastOpts = opts

	id := opts.ID
	if id == "" {
		id = fmt.Sprintf("doc-%d", len(f.docs)+1)
	}
	doc := &domain.Document{
		ID:          id,
		Filename:    upload.Filename,
		Content:     string(upload.Data),
		MimeType:    upload.MimeType,
		FileSize:    int64(len(upload.Data)),
		IsReference: opts.IsReference,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	chunks := []domain.Chunk{{
		ID:         id + "-0",
		DocumentID: id,
		Content:    doc.Content,
		Metadata:   domain.ChunkMetadata{Filename: doc.Filename, ChunkNumber: 1, TotalChunks: 1},
	}}
	f.docs[id] = doc
	f.chunks[id] = chunks
	return &driving.IngestResult{Document: doc, Chunks: chunks}, nil
}

func (f *fakeDocuments) IngestBatch(ctx context.Context, uploads []*domain.Upload, opts driving.IngestOptions) []driving.IngestOutcome {
	out := make([]driving.IngestOutcome, 0, len(uploads))
	for _, u := range uploads {
		res, err := f.Ingest(ctx, u, driving.IngestOptions{IsReference: opts.IsReference})
		out = append(out, driving.IngestOutcome{Filename: u.Filename, Result: res, Err: err})
	}
	return out
}

func (f *fakeDocuments) Get(_ context.Context, id string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	return doc, nil
}

func (f *fakeDocuments) Chunks(ctx context.Context, id string) ([]domain.Chunk, error) {
	if _, err := f.Get(ctx, id); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chunks[id], nil
}

func (f *fakeDocuments) Search(_ context.Context, term string, _ int) ([]domain.DocumentSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.DocumentSummary
	for _, d := range f.docs {
		if strings.Contains(strings.ToLower(d.Filename+d.Content), strings.ToLower(term)) {
			out = append(out, d.Summary())
		}
	}
	return out, nil
}

func (f *fakeDocuments) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	delete(f.docs, id)
	delete(f.chunks, id)
	return nil
}

func (f *fakeDocuments) ImageData(ctx context.Context, id string) (*domain.ImageData, error) {
	doc, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.ImageData{MimeType: doc.MimeType, Base64: doc.OriginalContent}, nil
}

type fakeChat struct {
	mu      sync.Mutex
	last    driving.ChatRequest
	err     error
	history []domain.Conversation
}

func (f *fakeChat) ProcessQuery(_ context.Context, req driving.ChatRequest) (*driving.ChatResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	return &driving.ChatResult{
		ConversationID: "conv-1",
		Response:       "answer to " + req.Query,
		HasImage:       req.Image != nil,
		ContextChunks:  2,
		InputTokens:    10,
		OutputTokens:   5,
	}, nil
}

func (f *fakeChat) History(_ context.Context, limit int) ([]domain.Conversation, error) {
	if limit > 0 && limit < len(f.history) {
		return f.history[:limit], nil
	}
	return f.history, nil
}

func (f *fakeChat) lastRequest() driving.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

type fakeTraining struct {
	results []driving.TrainingResult
	err     error
	dir     string
}

func (f *fakeTraining) ProcessDirectory(_ context.Context, dir string) ([]driving.TrainingResult, error) {
	f.dir = dir
	return f.results, f.err
}

func (f *fakeTraining) ProcessFile(_ context.Context, _, path string) driving.TrainingResult {
	return driving.TrainingResult{Filename: path}
}

type fakeRecorder struct {
	mu     sync.Mutex
	routes []string
}

func (r *fakeRecorder) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, fmt.Sprintf("%s %s %d", method, route, status))
}
