package driving

import "context"

// TrainingService ingests a directory of reference documents.
type TrainingService interface {
	// ProcessDirectory ingests every supported file under dir.
	// Per-file failures are reported in the results, not returned.
	ProcessDirectory(ctx context.Context, dir string) ([]TrainingResult, error)

	// ProcessFile ingests one file relative to dir.
	ProcessFile(ctx context.Context, dir, path string) TrainingResult
}

// TrainingResult reports the outcome for one training file.
type TrainingResult struct {
	Filename   string `json:"filename"`
	DocumentID string `json:"documentId,omitempty"`
	Chunks     int    `json:"chunks"`
	Err        error  `json:"-"`
}

// OK reports whether the file was ingested.
func (r TrainingResult) OK() bool {
	return r.Err == nil
}
