package driven

import "time"

// Recorder receives operational measurements from core services.
type Recorder interface {
	// DocumentIngested records one ingestion attempt.
	DocumentIngested(kind, status string, chunks int)

	// SelectionCompleted records one relevance selection.
	SelectionCompleted(outcome string, selected int, elapsed time.Duration)

	// ChatCompleted records one chat request.
	ChatCompleted(status string)
}

// NopRecorder discards all measurements.
type NopRecorder struct{}

func (NopRecorder) DocumentIngested(string, string, int)          {}
func (NopRecorder) SelectionCompleted(string, int, time.Duration) {}
func (NopRecorder) ChatCompleted(string)                          {}

var _ Recorder = NopRecorder{}
