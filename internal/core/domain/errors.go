package domain

import "errors"

// Domain errors represent business logic failures.
// Adapters wrap them with fmt.Errorf("%w: ...") and callers test with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an upload whose declared media type has
	// no extractor or is not in the allow-list. Rejected before persistence.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrFileTooLarge indicates an upload above the configured maximum size.
	ErrFileTooLarge = errors.New("file too large")

	// ErrExtraction indicates text could not be extracted from a file.
	// It is local to one document and never aborts a batch.
	ErrExtraction = errors.New("extraction failed")

	// ErrStorage indicates the persistence layer failed.
	ErrStorage = errors.New("storage error")

	// ErrSelection indicates the relevance oracle could not be reached.
	// Callers answer without reference context.
	ErrSelection = errors.New("chunk selection failed")

	// ErrLLMUnavailable indicates the answer model is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
