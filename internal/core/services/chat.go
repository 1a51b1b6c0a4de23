package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Januuus/chatbot/internal/core/domain"
	"github.com/Januuus/chatbot/internal/core/ports/driven"
	"github.com/Januuus/chatbot/internal/core/ports/driving"
	"github.com/Januuus/chatbot/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// Chat defaults.
const (
	MaxQueryLength      = 4000
	DefaultMaxTokens    = 4096
	DefaultTemperature  = 0.7
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// ChatSystemPrompt is sent with every answer request.
const ChatSystemPrompt = "You are a helpful assistant. Answer the question based on the provided context if available."

// ChatConfig holds answer model parameters.
type ChatConfig struct {
	MaxTokens   int
	Temperature *float64

	// SystemPrompt defaults to ChatSystemPrompt.
	SystemPrompt string
}

// ChatService answers queries with the answer model and records each exchange.
type ChatService struct {
	llm           driven.LLMService
	selector      driving.ChunkSelector
	documents     driving.DocumentService
	conversations driven.ConversationStore
	recorder      driven.Recorder
	cfg           ChatConfig
}

// NewChatService creates a chat service. The selector may be nil, in
// which case queries are answered without reference context.
func NewChatService(
	llm driven.LLMService,
	selector driving.ChunkSelector,
	documents driving.DocumentService,
	conversations driven.ConversationStore,
	cfg ChatConfig,
	recorder driven.Recorder,
) *ChatService {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature == nil {
		cfg.Temperature = driven.Temperature(DefaultTemperature)
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = ChatSystemPrompt
	}
	if recorder == nil {
		recorder = driven.NopRecorder{}
	}
	return &ChatService{
		llm:           llm,
		selector:      selector,
		documents:     documents,
		conversations: conversations,
		recorder:      recorder,
		cfg:           cfg,
	}
}

// ValidateQuery trims a query and checks it is non-empty and short enough.
func ValidateQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("%w: query cannot be empty", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return "", fmt.Errorf("%w: query too long, maximum length is %d characters", domain.ErrInvalidInput, MaxQueryLength)
	}
	return query, nil
}

// ProcessQuery answers one query.
func (s *ChatService) ProcessQuery(ctx context.Context, req driving.ChatRequest) (*driving.ChatResult, error) {
	result, err := s.processQuery(ctx, req)
	if err != nil {
		s.recorder.ChatCompleted(chatStatus(err))
		return nil, err
	}
	s.recorder.ChatCompleted("success")
	return result, nil
}

func (s *ChatService) processQuery(ctx context.Context, req driving.ChatRequest) (*driving.ChatResult, error) {
	query, err := ValidateQuery(req.Query)
	if err != nil {
		return nil, err
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	logger.Section("Chat")
	logger.Debug("Query: %q", query)

	image := s.resolveImage(ctx, req)

	var attachment *driving.IngestResult
	if req.Attachment != nil {
		attachment, err = s.documents.Ingest(ctx, req.Attachment, driving.IngestOptions{IsReference: false})
		if err != nil {
			return nil, err
		}
		if attachment.Document.Kind() == domain.MediaImage && image == nil {
			image = &domain.ImageData{
				MimeType: normaliseMIME(attachment.Document.MimeType),
				Base64:   attachment.Document.OriginalContent,
			}
			attachment = nil
		}
	}

	var refs []domain.SourcedChunk
	if req.IncludeContext && s.selector != nil {
		refs, err = s.selector.Select(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			logger.Warn("Chunk selection failed, answering without context: %v", err)
			refs = nil
		}
	}

	msg := driven.ChatMessage{
		Role:    driven.RoleUser,
		Content: BuildUserMessage(query, refs, attachment),
	}
	if image != nil {
		msg.Images = []domain.ImageData{*image}
	}

	resp, err := s.llm.Chat(ctx, []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: s.cfg.SystemPrompt},
		msg,
	}, driven.ChatOptions{
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.llm.ModelName(), err)
	}

	result := &driving.ChatResult{
		ConversationID: uuid.NewString(),
		Response:       resp.Text,
		HasImage:       image != nil,
		ContextChunks:  len(refs),
		InputTokens:    resp.InputTokens,
		OutputTokens:   resp.OutputTokens,
	}

	now := time.Now().UTC()
	conv := &domain.Conversation{
		ID:          result.ConversationID,
		UserMessage: query,
		BotResponse: resp.Text,
		Metadata: domain.ConversationMetadata{
			HasImage:      result.HasImage,
			InputTokens:   resp.InputTokens,
			OutputTokens:  resp.OutputTokens,
			ContextChunks: result.ContextChunks,
			Timestamp:     now,
		},
		CreatedAt: now,
	}
	if err := s.conversations.SaveConversation(ctx, conv); err != nil {
		logger.Error("Failed to save conversation %s: %v", conv.ID, err)
	}

	return result, nil
}

// resolveImage returns the inline image, or loads the one named by
// ImageID. A failed lookup is logged and the query proceeds without it.
func (s *ChatService) resolveImage(ctx context.Context, req driving.ChatRequest) *domain.ImageData {
	if req.Image != nil {
		return req.Image
	}
	if req.ImageID == "" {
		return nil
	}
	img, err := s.documents.ImageData(ctx, req.ImageID)
	if err != nil {
		logger.Warn("Failed to get image data for %s: %v", req.ImageID, err)
		return nil
	}
	return img
}

// History returns recent conversations, newest first.
func (s *ChatService) History(ctx context.Context, limit int) ([]domain.Conversation, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.conversations.ListConversations(ctx, limit)
}

// BuildUserMessage places the selected context and any attached document
// ahead of the question.
func BuildUserMessage(query string, refs []domain.SourcedChunk, attachment *driving.IngestResult) string {
	if len(refs) == 0 && (attachment == nil || attachment.Document.Content == "") {
		return query
	}

	var b strings.Builder
	if len(refs) > 0 {
		b.WriteString("Context:\n")
		for _, c := range refs {
			part, total := c.Position()
			fmt.Fprintf(&b, "[From %s (Part %d of %d)]\n%s\n\n", c.Filename, part, total, strings.TrimSpace(c.Content))
		}
	}
	if attachment != nil && attachment.Document.Content != "" {
		fmt.Fprintf(&b, "Attached document (%s):\n%s\n\n", attachment.Document.Filename, attachment.Document.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}

func chatStatus(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrFileTooLarge),
		errors.Is(err, domain.ErrUnsupportedType):
		return "rejected"
	default:
		return "error"
	}
}
