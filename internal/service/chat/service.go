package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/renzhou/botdeck/backend/internal/model/chat"
)

var (
	ErrBotRequired          = errors.New("bot id is required")
	ErrConversationNotFound = errors.New("conversation not found")
)

// Service records embedded-widget conversations in memory so the dashboard
// can show per-bot transcripts. The widget itself never reads this state; it
// keeps its own message list for the lifetime of the iframe.
type Service struct {
	mu            sync.RWMutex
	conversations map[string]chat.Conversation
	messages      map[string][]chat.Message
	byBot         map[string][]string
}

// NewService bootstraps the in-memory transcript recorder.
func NewService() *Service {
	return &Service{
		conversations: make(map[string]chat.Conversation),
		messages:      make(map[string][]chat.Message),
		byBot:         make(map[string][]string),
	}
}

// CreateConversation provisions an anonymous conversation bound to a bot.
func (s *Service) CreateConversation(_ context.Context, botID string) (chat.Conversation, error) {
	if botID == "" {
		return chat.Conversation{}, ErrBotRequired
	}

	conv := chat.Conversation{
		ID:        uuid.NewString(),
		BotID:     botID,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.conversations[conv.ID] = conv
	s.messages[conv.ID] = make([]chat.Message, 0, 16)
	s.byBot[botID] = append(s.byBot[botID], conv.ID)
	s.mu.Unlock()

	return conv, nil
}

// Append records one turn at the end of a conversation.
func (s *Service) Append(_ context.Context, conversationID, sender, text string) (chat.Message, error) {
	if conversationID == "" {
		return chat.Message{}, ErrConversationNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return chat.Message{}, ErrConversationNotFound
	}

	message := chat.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Sender:         sender,
		Text:           text,
		CreatedAt:      time.Now().UTC(),
	}

	s.messages[conversationID] = append(s.messages[conversationID], message)
	return message, nil
}

// Get retrieves a conversation by identifier.
func (s *Service) Get(_ context.Context, conversationID string) (chat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return chat.Conversation{}, ErrConversationNotFound
	}
	return conv, nil
}

// Transcript returns the recorded messages for a conversation in append order.
func (s *Service) Transcript(_ context.Context, conversationID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[conversationID]
	if !ok {
		return nil, ErrConversationNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// ListByBot returns every conversation recorded for a bot, oldest first.
func (s *Service) ListByBot(_ context.Context, botID string) ([]chat.Conversation, error) {
	if botID == "" {
		return nil, ErrBotRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byBot[botID]
	conversations := make([]chat.Conversation, 0, len(ids))
	for _, id := range ids {
		if conv, ok := s.conversations[id]; ok {
			conversations = append(conversations, conv)
		}
	}
	return conversations, nil
}
