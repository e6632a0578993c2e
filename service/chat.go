package service

import (
	"context"
	"fmt"
	"strings"

	"chatrelay/config"
	"chatrelay/model"
	"chatrelay/platform"

	"github.com/openai/openai-go"
	"github.com/sirupsen/logrus"
)

// maxContextMessages bounds how much history is sent upstream, capping token
// cost and latency regardless of conversation age.
const maxContextMessages = 20

// DefaultTemperature and DefaultMaxTokens apply when a caller omits the
// tuning fields. The facade endpoint shares them.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
)

// ChatRequest is the gateway's chat endpoint body.
type ChatRequest struct {
	Message           string   `json:"message"`
	ModelID           string   `json:"modelId"`
	Temperature       *float64 `json:"temperature,omitempty"`
	MaxTokens         *int     `json:"maxTokens,omitempty"`
	APIKey            string   `json:"apiKey,omitempty"`
	Stream            bool     `json:"stream,omitempty"`
	Fingerprint       string   `json:"fingerprint,omitempty"`
	ConversationID    string   `json:"conversationId,omitempty"`
	SystemInstruction string   `json:"systemInstruction,omitempty"`
}

// Identity is the resolved caller: an authenticated user or a guest known
// only by client IP (plus optional fingerprint in the request).
type Identity struct {
	Authenticated bool
	UserID        uint
	ClientIP      string
}

// PreparedChat is the outcome of the pre-upstream pipeline: quota passed,
// input validated, credentials resolved, conversation materialized, prompt
// assembled.
type PreparedChat struct {
	ConversationID string
	Messages       []ChatMessage
	AI             config.AIConfig
	Temperature    float64
	MaxTokens      int

	authenticated bool
}

// ChatService is the streaming relay engine. All collaborators are injected;
// the service holds no hidden global state.
type ChatService struct {
	cfg      *config.Config
	store    ChatStore
	quota    *GuestQuotaService
	settings SettingStore
	cipher   *platform.Cipher
	reporter ErrorReporter
	logger   *logrus.Logger
}

func NewChatService(
	cfg *config.Config,
	store ChatStore,
	quota *GuestQuotaService,
	settings SettingStore,
	cipher *platform.Cipher,
	reporter ErrorReporter,
	logger *logrus.Logger,
) *ChatService {
	return &ChatService{
		cfg:      cfg,
		store:    store,
		quota:    quota,
		settings: settings,
		cipher:   cipher,
		reporter: reporter,
		logger:   logger,
	}
}

// Prepare runs every step that must complete before the upstream call:
// quota gate, validation, key resolution, conversation materialization and
// prompt assembly. The user message is queued for persistence before Prepare
// returns, so a crash mid-stream can lose at most the assistant reply.
func (s *ChatService) Prepare(ctx context.Context, req ChatRequest, id Identity) (*PreparedChat, error) {
	var guestID string
	if !id.Authenticated {
		guestID = GuestKey(id.ClientIP, req.Fingerprint)
		ok, err := s.quota.CanSend(ctx, guestID)
		if err != nil {
			// A broken quota store must not break chat; let the request
			// through and report it.
			s.reporter.Report("guest quota check", err)
			ok = true
		}
		if !ok {
			return nil, ErrGuestLimitReached
		}
	}

	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}

	if !id.Authenticated {
		go func() {
			if err := s.quota.Increment(context.Background(), guestID); err != nil {
				s.reporter.Report("guest quota increment", err)
			}
		}()
	}

	userAPIKey := req.APIKey
	if id.Authenticated && userAPIKey == "" {
		userAPIKey = s.storedAPIKey(ctx, id.UserID)
	}

	ai := config.ResolveAIConfig(s.cfg, req.ModelID, userAPIKey)
	if ai.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	conversationID := req.ConversationID
	var history []ChatMessage
	if id.Authenticated {
		if conversationID == "" {
			// The id goes back to the caller in a response header, so the
			// conversation is created synchronously before calling upstream.
			cid, err := s.store.CreateConversation(ctx, id.UserID, model.DeriveTitle(req.Message))
			if err != nil {
				return nil, fmt.Errorf("creating conversation: %w", err)
			}
			conversationID = cid
		} else {
			loaded, err := s.store.LoadRecentMessages(ctx, conversationID, maxContextMessages)
			if err != nil {
				// Degraded history, not a broken chat.
				s.reporter.Report("load conversation history", err)
			} else {
				history = loaded
			}
		}

		go s.persistMessage(conversationID, model.RoleUserMsg, req.Message)
	}

	systemContent := DefaultSystemInstruction
	if override := strings.TrimSpace(req.SystemInstruction); override != "" {
		systemContent += "\n\n" + override
	}

	messages := make([]ChatMessage, 0, len(history)+2)
	messages = append(messages, ChatMessage{Role: model.RoleSystem, Content: systemContent})
	messages = append(messages, history...)
	messages = append(messages, ChatMessage{Role: model.RoleUserMsg, Content: req.Message})

	temperature := DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := DefaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	return &PreparedChat{
		ConversationID: conversationID,
		Messages:       messages,
		AI:             ai,
		Temperature:    temperature,
		MaxTokens:      maxTokens,
		authenticated:  id.Authenticated,
	}, nil
}

// storedAPIKey loads and decrypts the user's saved provider key. Any failure
// is reported and treated as "no stored key".
func (s *ChatService) storedAPIKey(ctx context.Context, userID uint) string {
	encrypted, err := s.settings.APIKey(ctx, userID)
	if err != nil {
		s.reporter.Report("load user api key", err)
		return ""
	}
	if encrypted == "" {
		return ""
	}
	key, err := s.cipher.Decrypt(encrypted)
	if err != nil {
		s.reporter.Report("decrypt user api key", err)
		return ""
	}
	return key
}

// Complete runs the non-streaming branch and queues the assistant message for
// persistence.
func (s *ChatService) Complete(ctx context.Context, prep *PreparedChat) (string, error) {
	client := NewLLMClient(prep.AI)
	params := BuildCompletionParams(prep.AI.ModelID, prep.Messages, prep.Temperature, prep.MaxTokens)

	content, err := CompleteChat(ctx, client, params)
	if err != nil {
		return "", err
	}

	if prep.authenticated && prep.ConversationID != "" {
		go s.persistMessage(prep.ConversationID, model.RoleAssistant, content)
	}
	return content, nil
}

// Stream runs the streaming branch, forwarding each chunk through onChunk as
// it arrives. On natural completion the accumulated assistant text is queued
// for persistence without blocking the caller's stream terminator.
func (s *ChatService) Stream(ctx context.Context, prep *PreparedChat, onChunk func(chunk openai.ChatCompletionChunk) error) error {
	client := NewLLMClient(prep.AI)
	params := BuildCompletionParams(prep.AI.ModelID, prep.Messages, prep.Temperature, prep.MaxTokens)

	content, err := StreamChat(ctx, client, params, onChunk)
	if err != nil {
		return err
	}

	if prep.authenticated && prep.ConversationID != "" && content != "" {
		go s.persistMessage(prep.ConversationID, model.RoleAssistant, content)
	}
	return nil
}

// persistMessage writes one message and bumps the conversation timestamp.
// Callers run it detached; failures reach the reporter only, never the chat
// response. Uses a background context because the request may already be
// gone.
func (s *ChatService) persistMessage(conversationID, role, content string) {
	ctx := context.Background()
	if err := s.store.SaveMessage(ctx, conversationID, role, content); err != nil {
		s.reporter.Report("save "+role+" message", err)
		return
	}
	if err := s.store.TouchConversation(ctx, conversationID); err != nil {
		s.reporter.Report("touch conversation", err)
	}
}
