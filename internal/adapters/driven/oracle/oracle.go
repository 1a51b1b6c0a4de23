// Package oracle implements the chunk selection oracle on top of an LLM.
package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/Januuus/chatbot/internal/core/ports/driven"
	"github.com/Januuus/chatbot/internal/logger"
)

// Ensure Oracle implements the interface.
var _ driven.SelectionOracle = (*Oracle)(nil)

// Markers delimiting the id list in the model reply.
const (
	StartMarker = "CHUNKS_START"
	EndMarker   = "CHUNKS_END"
)

// SystemPrompt instructs the model to answer with ids only.
const SystemPrompt = "You are a precise document chunk selector. " +
	"Return only the IDs of the most relevant chunks, nothing else."

// DefaultMaxTokens bounds the selection reply.
const DefaultMaxTokens = 1024

// Oracle asks an LLM which chunks are relevant.
type Oracle struct {
	llm          driven.LLMService
	maxTokens    int
	systemPrompt string
}

// Option configures an Oracle.
type Option func(*Oracle)

// WithSystemPrompt replaces SystemPrompt. Empty values are ignored.
func WithSystemPrompt(prompt string) Option {
	return func(o *Oracle) {
		if prompt != "" {
			o.systemPrompt = prompt
		}
	}
}

// New creates an oracle backed by llm.
func New(llm driven.LLMService, opts ...Option) *Oracle {
	o := &Oracle{llm: llm, maxTokens: DefaultMaxTokens, systemPrompt: SystemPrompt}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SelectIDs sends the prompt at temperature 0 and parses the marked id
// list. A reply without a usable marker pair yields no ids.
func (o *Oracle) SelectIDs(ctx context.Context, prompt string) ([]string, error) {
	resp, err := o.llm.Chat(ctx, []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: o.systemPrompt},
		{Role: driven.RoleUser, Content: prompt},
	}, driven.ChatOptions{
		MaxTokens:   o.maxTokens,
		Temperature: driven.Temperature(0),
	})
	if err != nil {
		return nil, fmt.Errorf("oracle %s: %w", o.llm.ModelName(), err)
	}

	ids, ok := ParseSelection(resp.Text)
	if !ok {
		logger.Warn("oracle: reply from %s has no %s/%s markers", o.llm.ModelName(), StartMarker, EndMarker)
		return nil, nil
	}
	return ids, nil
}

// ParseSelection extracts ids between the first StartMarker and the
// following EndMarker. Lines are trimmed, surrounding brackets are
// stripped and blank lines dropped. ok is false when either marker is
// missing or the end precedes the start.
func ParseSelection(text string) (ids []string, ok bool) {
	start := strings.Index(text, StartMarker)
	if start < 0 {
		return nil, false
	}
	rest := text[start+len(StartMarker):]
	end := strings.Index(rest, EndMarker)
	if end < 0 {
		return nil, false
	}

	ids = []string{}
	for _, line := range strings.Split(rest[:end], "\n") {
		id := strings.TrimSpace(line)
		id = strings.TrimPrefix(id, "[")
		id = strings.TrimSuffix(id, "]")
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	return ids, true
}
