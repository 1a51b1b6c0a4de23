package domain

import (
	"strings"
	"time"
)

// Document represents an uploaded file after extraction.
// It is upserted by ID: re-uploading under the same ID overwrites the
// content but keeps the original filename and creation time.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Filename is the original upload name. Display only.
	Filename string

	// Content is the full extracted text. Empty for images.
	Content string

	// MimeType is the declared media type that drove extraction.
	MimeType string

	// FileSize is the byte length of the upload.
	FileSize int64

	// IsReference marks long-lived training material, as opposed to a
	// document uploaded alongside a single query.
	IsReference bool

	// OriginalContent holds the base64 encoded bytes of image uploads
	// so they can be replayed as vision input. Empty for text documents.
	OriginalContent string

	// CreatedAt is when the document was first stored.
	CreatedAt time.Time

	// UpdatedAt is when the document was last overwritten.
	UpdatedAt time.Time
}

// Kind returns the media kind of the document's declared type.
func (d *Document) Kind() MediaKind {
	return ParseMediaKind(d.MimeType)
}

// Summary returns the search listing view of the document.
func (d *Document) Summary() DocumentSummary {
	return DocumentSummary{
		ID:          d.ID,
		Filename:    d.Filename,
		MimeType:    d.MimeType,
		FileSize:    d.FileSize,
		IsReference: d.IsReference,
		CreatedAt:   d.CreatedAt,
	}
}

// SearchKey folds s for case-insensitive substring search. Every store
// compares folded terms against folded text so matching is identical
// across backends.
func SearchKey(s string) string {
	return strings.ToLower(s)
}

// DocumentSummary is a document without its content, returned by search.
type DocumentSummary struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	MimeType    string    `json:"mimeType"`
	FileSize    int64     `json:"fileSize"`
	IsReference bool      `json:"isReference"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Chunk represents a bounded segment of a document's text.
// Chunks are created in one batch per document and never mutated.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Index is the zero-based position within the document.
	// Indices are contiguous per document.
	Index int

	// Content is the text segment.
	Content string

	// Metadata is a denormalised snapshot for display without a join.
	Metadata ChunkMetadata

	// CreatedAt is when the chunk was stored.
	CreatedAt time.Time
}

// ChunkMetadata is stored alongside each chunk.
type ChunkMetadata struct {
	Filename    string `json:"filename"`
	ChunkNumber int    `json:"chunkNumber"`
	TotalChunks int    `json:"totalChunks"`
	IsReference bool   `json:"isReference"`
}

// SourcedChunk is a chunk joined with the filename of its document.
type SourcedChunk struct {
	Chunk

	// Filename is read from the owning document, not the snapshot.
	Filename string
}

// Position returns the one-based part number and the part count,
// falling back to the index when the snapshot is missing.
func (c SourcedChunk) Position() (part, total int) {
	part = c.Metadata.ChunkNumber
	if part == 0 {
		part = c.Index + 1
	}
	total = c.Metadata.TotalChunks
	if total < part {
		total = part
	}
	return part, total
}

// Upload is a file delivered by the upload boundary before extraction.
type Upload struct {
	Filename string
	MimeType string
	Size     int64
	Data     []byte
}

// ImageData is an image ready to be sent to a vision capable model.
type ImageData struct {
	// MimeType is the image media type, e.g. image/png.
	MimeType string

	// Base64 is the standard base64 encoding of the image bytes.
	Base64 string
}
