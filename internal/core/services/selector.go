package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Januuus/chatbot/internal/core/domain"
	"github.com/Januuus/chatbot/internal/core/ports/driven"
	"github.com/Januuus/chatbot/internal/core/ports/driving"
	"github.com/Januuus/chatbot/internal/logger"
)

// Ensure RelevanceSelector implements the interface.
var _ driving.ChunkSelector = (*RelevanceSelector)(nil)

// Selection outcomes reported to the recorder.
const (
	SelectionSelected = "selected"
	SelectionEmpty    = "empty"
	SelectionError    = "error"
)

// RelevanceSelector asks an oracle which reference chunks answer a query.
type RelevanceSelector struct {
	store    driven.DocumentStore
	oracle   driven.SelectionOracle
	recorder driven.Recorder
}

// NewRelevanceSelector creates a selector. The recorder may be nil.
func NewRelevanceSelector(store driven.DocumentStore, oracle driven.SelectionOracle, recorder driven.Recorder) *RelevanceSelector {
	if recorder == nil {
		recorder = driven.NopRecorder{}
	}
	return &RelevanceSelector{store: store, oracle: oracle, recorder: recorder}
}

// Select loads every reference chunk and returns the relevant subset.
func (s *RelevanceSelector) Select(ctx context.Context, query string) ([]domain.SourcedChunk, error) {
	chunks, err := s.store.GetAllChunks(ctx, true)
	if err != nil {
		s.recorder.SelectionCompleted(SelectionError, 0, 0)
		return nil, fmt.Errorf("%w: loading reference chunks: %w", domain.ErrSelection, err)
	}
	return s.SelectFrom(ctx, query, chunks)
}

// SelectFrom returns the chunks the oracle picked, in the oracle's
// order. IDs outside chunks and repeated IDs are dropped. An empty
// candidate set returns without consulting the oracle.
func (s *RelevanceSelector) SelectFrom(ctx context.Context, query string, chunks []domain.SourcedChunk) ([]domain.SourcedChunk, error) {
	if len(chunks) == 0 {
		s.recorder.SelectionCompleted(SelectionEmpty, 0, 0)
		return []domain.SourcedChunk{}, nil
	}

	prompt := BuildSelectionPrompt(query, chunks)

	start := time.Now()
	ids, err := s.oracle.SelectIDs(ctx, prompt)
	elapsed := time.Since(start)
	if err != nil {
		s.recorder.SelectionCompleted(SelectionError, 0, elapsed)
		return nil, fmt.Errorf("%w: %w", domain.ErrSelection, err)
	}

	byID := make(map[string]int, len(chunks))
	for i := range chunks {
		byID[chunks[i].ID] = i
	}

	selected := make([]domain.SourcedChunk, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		i, ok := byID[id]
		if !ok {
			logger.Debug("Selector returned unknown chunk id %q", id)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		selected = append(selected, chunks[i])
	}

	outcome := SelectionSelected
	if len(selected) == 0 {
		outcome = SelectionEmpty
	}
	s.recorder.SelectionCompleted(outcome, len(selected), elapsed)
	logger.Debug("Selected %d of %d chunks in %s", len(selected), len(chunks), elapsed)

	return selected, nil
}

// BuildSelectionPrompt lists every candidate chunk with its ID, source
// and content, then asks for the relevant IDs between the
// CHUNKS_START and CHUNKS_END markers.
func BuildSelectionPrompt(query string, chunks []domain.SourcedChunk) string {
	var b strings.Builder
	b.WriteString("You are a document chunk selector for a teaching AI assistant. Your task is to:\n")
	b.WriteString("1. Read the user's query\n")
	b.WriteString("2. Review all available document chunks\n")
	b.WriteString("3. Select ONLY the chunk IDs that contain information relevant to answering the query\n")
	b.WriteString("4. Return ONLY the chunk IDs, nothing else\n\n")
	b.WriteString("User Query: ")
	b.WriteString(query)
	b.WriteString("\n\nAvailable Chunks:\n")

	for _, c := range chunks {
		part, total := c.Position()
		fmt.Fprintf(&b, "ID: %s\nFrom: %s (Part %d of %d)\nContent: %s\n---\n", c.ID, c.Filename, part, total, c.Content)
	}

	b.WriteString("\nReturn your selection as:\n")
	b.WriteString("CHUNKS_START\n[chunk_id_1]\n[chunk_id_2]\nCHUNKS_END")
	return b.String()
}
