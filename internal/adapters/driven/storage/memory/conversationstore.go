package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Januuus/chatbot/internal/core/domain"
	"github.com/Januuus/chatbot/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore is an in-memory implementation of driven.ConversationStore.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations []domain.Conversation
}

// NewConversationStore creates a new in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{}
}

// SaveConversation stores a conversation record.
func (s *ConversationStore) SaveConversation(_ context.Context, conv *domain.Conversation) error {
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = append(s.conversations, *conv)
	return nil
}

// ListConversations returns the most recent conversations, newest first.
func (s *ConversationStore) ListConversations(_ context.Context, limit int) ([]domain.Conversation, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	s.mu.RLock()
	out := append([]domain.Conversation(nil), s.conversations...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
