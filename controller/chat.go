package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"chatrelay/service"

	"github.com/gin-gonic/gin"
	"github.com/openai/openai-go"
	"github.com/sirupsen/logrus"
)

// ChatController exposes the streaming relay over HTTP.
type ChatController struct {
	chat   *service.ChatService
	quota  *service.GuestQuotaService
	logger *logrus.Logger
}

func NewChatController(chat *service.ChatService, quota *service.GuestQuotaService, logger *logrus.Logger) *ChatController {
	return &ChatController{chat: chat, quota: quota, logger: logger}
}

// Chat handles POST /v1/chat in both sync and streaming modes.
func (ctrl *ChatController) Chat(c *gin.Context) {
	var req service.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.logger.Warnf("[%s] Invalid input, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	identity := identityFromContext(c)

	prep, err := ctrl.chat.Prepare(c.Request.Context(), req, identity)
	if err != nil {
		ctrl.respondPrepareError(c, err)
		return
	}

	if !req.Stream {
		content, err := ctrl.chat.Complete(c.Request.Context(), prep)
		if err != nil {
			ctrl.logger.Warnf("[%s] completion error, %s", c.GetString("requestId"), err)
			if errors.Is(err, service.ErrEmptyCompletion) {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Empty response from the API"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"content": content, "conversationId": prep.ConversationID})
		return
	}

	w := c.Writer
	flusher, ok := w.(http.Flusher)
	if !ok {
		ctrl.logger.Warnf("[%s] get Writer flusher error", c.GetString("requestId"))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming unsupported"})
		return
	}

	// The conversation id may be freshly minted; the caller needs it before
	// the body is fully read, so it travels in a header.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Conversation-Id", prep.ConversationID)

	err = ctrl.chat.Stream(c.Request.Context(), prep, func(chunk openai.ChatCompletionChunk) error {
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			return nil
		}
		payload, err := json.Marshal(gin.H{"content": chunk.Choices[0].Delta.Content})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		ctrl.logger.Warnf("[%s] stream error, %s", c.GetString("requestId"), err)
		var upstream *service.UpstreamError
		if errors.As(err, &upstream) {
			if payload, merr := json.Marshal(gin.H{"error": upstream.Err.Error()}); merr == nil {
				fmt.Fprintf(w, "data: %s\n\n", payload)
				flusher.Flush()
			}
		}
		// A write failure means the client is gone; nothing left to send.
		return
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func (ctrl *ChatController) respondPrepareError(c *gin.Context, err error) {
	requestID := c.GetString("requestId")
	switch {
	case errors.Is(err, service.ErrGuestLimitReached):
		ctrl.logger.Infof("[%s] guest limit reached for %s", requestID, c.ClientIP())
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":   "GUEST_LIMIT_REACHED",
			"message": "You have reached the daily message limit. Sign in to keep chatting without restriction.",
		})
	case errors.Is(err, service.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty message"})
	case errors.Is(err, service.ErrNoAPIKey):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "No API key configured for this provider. Set your key in the settings or contact the administrator.",
		})
	default:
		ctrl.logger.Warnf("[%s] chat prepare error, %s", requestID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Quota handles GET /v1/chat/quota, reporting how many guest messages remain
// for the caller's identity.
func (ctrl *ChatController) Quota(c *gin.Context) {
	guestID := service.GuestKey(c.ClientIP(), c.Query("fingerprint"))
	remaining, err := ctrl.quota.Remaining(c.Request.Context(), guestID)
	if err != nil {
		ctrl.logger.Warnf("[%s] quota lookup error, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up quota"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"remaining": remaining})
}
