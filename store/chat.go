package store

import (
	"context"
	"fmt"
	"time"

	"chatrelay/model"
	"chatrelay/service"

	"gorm.io/gorm"
)

// ChatStore is the gorm-backed persistence port for conversations and
// messages.
type ChatStore struct {
	db *gorm.DB
}

func NewChatStore(db *gorm.DB) *ChatStore {
	return &ChatStore{db: db}
}

func (s *ChatStore) CreateConversation(ctx context.Context, userID uint, title string) (string, error) {
	conversation := &model.Conversation{
		UserID: userID,
		Title:  title,
	}
	if err := s.db.WithContext(ctx).Create(conversation).Error; err != nil {
		return "", fmt.Errorf("creating conversation: %w", err)
	}
	return conversation.ID, nil
}

func (s *ChatStore) SaveMessage(ctx context.Context, conversationID, role, content string) error {
	message := &model.Message{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
	}
	if err := s.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("saving message: %w", err)
	}
	return nil
}

func (s *ChatStore) TouchConversation(ctx context.Context, conversationID string) error {
	err := s.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Where("id = ?", conversationID).
		Update("updated_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("touching conversation: %w", err)
	}
	return nil
}

// LoadRecentMessages fetches the newest limit messages by creation time and
// returns them oldest-first. Descending fetch plus reverse keeps long
// conversations from being scanned end to end.
func (s *ChatStore) LoadRecentMessages(ctx context.Context, conversationID string, limit int) ([]service.ChatMessage, error) {
	var rows []model.Message
	err := s.db.WithContext(ctx).
		Select("role", "content").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("loading recent messages: %w", err)
	}

	messages := make([]service.ChatMessage, len(rows))
	for i, row := range rows {
		messages[len(rows)-1-i] = service.ChatMessage{
			Role:    row.Role,
			Content: row.Content,
		}
	}
	return messages, nil
}
