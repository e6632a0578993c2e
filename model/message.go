package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleSystem    = "system"
	RoleUserMsg   = "user"
	RoleAssistant = "assistant"
)

// Message is one persisted chat turn. Streaming state never reaches this
// table: a message is written only once its content is final.
type Message struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ConversationID string    `gorm:"type:varchar(36);index:idx_conversation_id_created_at" json:"conversation_id"`
	Role           string    `gorm:"type:varchar(64)" json:"role"`
	Content        string    `gorm:"type:text" json:"content"`
	CreatedAt      time.Time `gorm:"index:idx_conversation_id_created_at" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BeforeCreate mints the message id.
func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}
