package service

import (
	"context"
	"time"

	"chatrelay/model"

	"github.com/sirupsen/logrus"
)

// ChatMessage is one prompt turn, detached from persistence concerns.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatStore persists conversations and messages.
type ChatStore interface {
	CreateConversation(ctx context.Context, userID uint, title string) (string, error)
	SaveMessage(ctx context.Context, conversationID, role, content string) error
	TouchConversation(ctx context.Context, conversationID string) error
	// LoadRecentMessages returns at most limit of the newest messages, in
	// chronological order.
	LoadRecentMessages(ctx context.Context, conversationID string, limit int) ([]ChatMessage, error)
}

// QuotaStore keeps guest quota records. Find returns (nil, nil) when no
// record exists for the key.
type QuotaStore interface {
	Find(ctx context.Context, guestID string) (*model.GuestQuota, error)
	Create(ctx context.Context, rec *model.GuestQuota) error
	Update(ctx context.Context, rec *model.GuestQuota) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// SettingStore keeps per-user settings. APIKey returns the encrypted value,
// or "" when the user has none stored.
type SettingStore interface {
	APIKey(ctx context.Context, userID uint) (string, error)
	Save(ctx context.Context, setting *model.Setting) error
}

// UserStore keeps account records.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Exists(ctx context.Context, username, email string) (bool, error)
}

// ErrorReporter receives failures from detached background work, which has
// no caller left to return an error to.
type ErrorReporter interface {
	Report(op string, err error)
}

// LogReporter is the production ErrorReporter, backed by the app logger.
type LogReporter struct {
	Logger *logrus.Logger
}

func (r *LogReporter) Report(op string, err error) {
	r.Logger.Warnf("%s: %v", op, err)
}
