package domain

import (
	"path/filepath"
	"strings"
)

// MediaKind is the closed set of media types the extractor dispatches on.
type MediaKind int

const (
	// MediaUnknown is any declared type without a handler.
	MediaUnknown MediaKind = iota
	// MediaPlainText is UTF-8 text.
	MediaPlainText
	// MediaPDF is a PDF document.
	MediaPDF
	// MediaDOCX is an Office Open XML word-processing document.
	MediaDOCX
	// MediaImage is any image type accepted as vision input.
	MediaImage
)

// MIME types understood by the extractors.
const (
	MIMEPlainText = "text/plain"
	MIMEMarkdown  = "text/markdown"
	MIMEPDF       = "application/pdf"
	MIMEDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEJPEG      = "image/jpeg"
	MIMEPNG       = "image/png"
	MIMEWebP      = "image/webp"
	MIMEGIF       = "image/gif"
)

// String returns a short name for the kind.
func (k MediaKind) String() string {
	switch k {
	case MediaPlainText:
		return "text"
	case MediaPDF:
		return "pdf"
	case MediaDOCX:
		return "docx"
	case MediaImage:
		return "image"
	default:
		return "unknown"
	}
}

// ParseMediaKind maps a declared MIME type to its kind.
// Parameters such as "; charset=utf-8" are ignored.
func ParseMediaKind(mimeType string) MediaKind {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}

	switch mt {
	case MIMEPlainText, MIMEMarkdown:
		return MediaPlainText
	case MIMEPDF:
		return MediaPDF
	case MIMEDOCX:
		return MediaDOCX
	case MIMEJPEG, MIMEPNG, MIMEWebP, MIMEGIF:
		return MediaImage
	}
	if strings.HasPrefix(mt, "image/") && len(mt) > len("image/") {
		return MediaImage
	}
	return MediaUnknown
}

// MIMETypeForPath returns the MIME type for a training file by extension,
// or "" if the extension is not ingestible.
func MIMETypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return MIMEPlainText
	case ".md", ".markdown":
		return MIMEMarkdown
	case ".pdf":
		return MIMEPDF
	case ".docx":
		return MIMEDOCX
	default:
		return ""
	}
}

// DefaultAllowedTypes are the MIME types accepted for upload by default.
func DefaultAllowedTypes() []string {
	return []string{
		MIMEPDF,
		MIMEDOCX,
		MIMEPlainText,
		MIMEMarkdown,
		MIMEJPEG,
		MIMEPNG,
		MIMEWebP,
		MIMEGIF,
	}
}
