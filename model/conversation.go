package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation is one chat thread owned by a single user. Guest sessions are
// transient and never create a row.
type Conversation struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	IsActive  bool      `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Messages  []Message `gorm:"foreignKey:ConversationID;references:ID" json:"messages,omitempty"`
}

// BeforeCreate mints the conversation id.
func (c *Conversation) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

const titleMaxLen = 40

// DeriveTitle builds a conversation title from its first message, collapsing
// newlines and truncating to 40 characters with an ellipsis.
func DeriveTitle(firstMessage string) string {
	cleaned := strings.ReplaceAll(strings.TrimSpace(firstMessage), "\n", " ")
	runes := []rune(cleaned)
	if len(runes) <= titleMaxLen {
		return cleaned
	}
	return string(runes[:titleMaxLen]) + "..."
}
