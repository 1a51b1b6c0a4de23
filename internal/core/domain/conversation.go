package domain

import "time"

// Conversation is a persisted question and answer exchange. Write-once.
type Conversation struct {
	ID          string               `json:"id"`
	UserMessage string               `json:"userMessage"`
	BotResponse string               `json:"botResponse"`
	Metadata    ConversationMetadata `json:"metadata"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// ConversationMetadata records how an answer was produced.
type ConversationMetadata struct {
	HasImage      bool      `json:"hasImage"`
	InputTokens   int       `json:"inputTokens"`
	OutputTokens  int       `json:"outputTokens"`
	ContextChunks int       `json:"contextChunks"`
	Timestamp     time.Time `json:"timestamp"`
}
