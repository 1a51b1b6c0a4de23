// Package docx extracts raw text from Office Open XML word-processing files.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Januuus/chatbot/internal/core/domain"
	"github.com/Januuus/chatbot/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const documentPart = "word/document.xml"

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Kind returns the media kind this extractor handles.
func (e *Extractor) Kind() domain.MediaKind {
	return domain.MediaDOCX
}

// Extract unwraps every text run of the main document part in document
// order, including runs inside tables. Paragraphs end with a newline.
func (e *Extractor) Extract(_ context.Context, data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: opening docx archive: %w", domain.ErrExtraction, err)
	}

	for _, file := range reader.File {
		if file.Name != documentPart {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: opening %s: %w", domain.ErrExtraction, documentPart, err)
		}
		defer rc.Close()

		text, err := parseDocumentXML(rc)
		if err != nil {
			return "", fmt.Errorf("%w: parsing %s: %w", domain.ErrExtraction, documentPart, err)
		}
		return text, nil
	}

	return "", fmt.Errorf("%w: %s not found", domain.ErrExtraction, documentPart)
}

// parseDocumentXML walks the token stream collecting w:t character data.
// w:tab and w:br become whitespace, w:p closes a line.
func parseDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		sb     strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteString("\t")
			case "br", "cr":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return strings.TrimSpace(sb.String()), nil
}
