// Package domain defines the core business entities for the chatbot.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded file with its extracted text
//   - Chunk: A bounded segment of a document used for retrieval
//   - Conversation: A persisted question and answer exchange
//   - MediaKind: The closed set of media types the extractor understands
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
