package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Januuus/chatbot/internal/core/domain"
	"github.com/Januuus/chatbot/internal/core/ports/driving"
	"github.com/Januuus/chatbot/internal/logger"
)

// Ensure TrainingService implements the interface.
var _ driving.TrainingService = (*TrainingService)(nil)

// DefaultTrainingDir is scanned when no directory is given.
const DefaultTrainingDir = "training-docs"

// trainingNamespace seeds the deterministic IDs of training documents.
var trainingNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("chatbot:training-docs"))

// TrainingService ingests a directory of reference documents.
type TrainingService struct {
	documents driving.DocumentService
}

// NewTrainingService creates a training service.
func NewTrainingService(documents driving.DocumentService) *TrainingService {
	return &TrainingService{documents: documents}
}

// TrainingDocumentID returns the stable document ID for a path relative
// to the training directory, so re-ingesting a file overwrites it.
func TrainingDocumentID(rel string) string {
	return uuid.NewSHA1(trainingNamespace, []byte(filepath.ToSlash(filepath.Clean(rel)))).String()
}

// ProcessDirectory ingests every file with a known extension under dir.
// Hidden entries are skipped.
func (s *TrainingService) ProcessDirectory(ctx context.Context, dir string) ([]driving.TrainingResult, error) {
	if dir == "" {
		dir = DefaultTrainingDir
	}

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: training directory %s", domain.ErrNotFound, dir)
		}
		return nil, fmt.Errorf("stat training directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	logger.Section("Training")
	logger.Info("Processing training documents in %s", dir)

	var results []driving.TrainingResult
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := d.Name()
		if path != dir && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if domain.MIMETypeForPath(path) == "" {
			logger.Debug("Skipping %s: unsupported extension", path)
			return nil
		}
		results = append(results, s.ProcessFile(ctx, dir, path))
		return nil
	})
	if err != nil {
		return results, fmt.Errorf("walk %s: %w", dir, err)
	}

	succeeded := 0
	for _, r := range results {
		if r.OK() {
			succeeded++
		}
	}
	logger.Info("Training complete: %d of %d files ingested", succeeded, len(results))
	return results, nil
}

// ProcessFile ingests one file as a reference document. path is either
// absolute or relative to dir.
func (s *TrainingService) ProcessFile(ctx context.Context, dir, path string) driving.TrainingResult {
	if dir == "" {
		dir = DefaultTrainingDir
	}
	full := path
	if !filepath.IsAbs(full) && !strings.HasPrefix(filepath.Clean(full), filepath.Clean(dir)+string(filepath.Separator)) {
		full = filepath.Join(dir, path)
	}

	rel, err := filepath.Rel(dir, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(full)
	}
	rel = filepath.ToSlash(rel)
	result := driving.TrainingResult{Filename: rel}

	mimeType := domain.MIMETypeForPath(full)
	if mimeType == "" {
		result.Err = fmt.Errorf("%w: %s", domain.ErrUnsupportedType, filepath.Ext(full))
		return result
	}

	data, err := os.ReadFile(full)
	if err != nil {
		result.Err = fmt.Errorf("read %s: %w", rel, err)
		return result
	}

	ingested, err := s.documents.Ingest(ctx, &domain.Upload{
		Filename: rel,
		MimeType: mimeType,
		Size:     int64(len(data)),
		Data:     data,
	}, driving.IngestOptions{
		ID:          TrainingDocumentID(rel),
		IsReference: true,
	})
	if err != nil {
		result.Err = err
		return result
	}

	result.DocumentID = ingested.Document.ID
	result.Chunks = len(ingested.Chunks)
	return result
}
