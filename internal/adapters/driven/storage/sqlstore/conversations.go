package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Januuus/chatbot/internal/core/domain"
	"github.com/Januuus/chatbot/internal/core/ports/driven"
)

// conversationStore implements driven.ConversationStore.
type conversationStore struct {
	store *Store
}

var _ driven.ConversationStore = (*conversationStore)(nil)

type conversationRow struct {
	ID          string    `db:"id"`
	UserMessage string    `db:"user_message"`
	BotResponse string    `db:"bot_response"`
	Metadata    string    `db:"metadata"`
	CreatedAt   time.Time `db:"created_at"`
}

// SaveConversation stores a conversation record.
func (s *conversationStore) SaveConversation(ctx context.Context, conv *domain.Conversation) error {
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now().UTC()
	}

	metadataJSON, err := json.Marshal(conv.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling conversation metadata: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, s.store.db.Rebind(`
		INSERT INTO conversations (id, user_message, bot_response, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), conv.ID, conv.UserMessage, conv.BotResponse, string(metadataJSON), conv.CreatedAt)
	if err != nil {
		return storageErr("saving conversation", err)
	}
	return nil
}

// ListConversations returns the most recent conversations, newest first.
func (s *conversationStore) ListConversations(ctx context.Context, limit int) ([]domain.Conversation, error) {
	var rows []conversationRow
	err := s.store.db.SelectContext(ctx, &rows, s.store.db.Rebind(`
		SELECT id, user_message, bot_response, metadata, created_at
		FROM conversations
		ORDER BY created_at DESC, id
		LIMIT ?
	`), clampLimit(limit))
	if err != nil {
		return nil, storageErr("listing conversations", err)
	}

	convs := make([]domain.Conversation, 0, len(rows))
	for _, r := range rows {
		conv := domain.Conversation{
			ID:          r.ID,
			UserMessage: r.UserMessage,
			BotResponse: r.BotResponse,
			CreatedAt:   r.CreatedAt,
		}
		if err := json.Unmarshal([]byte(r.Metadata), &conv.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling conversation metadata: %w", err)
		}
		convs = append(convs, conv)
	}
	return convs, nil
}
