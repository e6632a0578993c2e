package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"chatrelay/config"
	"chatrelay/model"
	"chatrelay/platform"
	"chatrelay/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// =========================================================================
// IN-MEMORY PORTS
// =========================================================================

type memChatStore struct {
	mu       sync.Mutex
	titles   map[string]string
	messages map[string][]service.ChatMessage
	nextID   int
}

func newMemChatStore() *memChatStore {
	return &memChatStore{
		titles:   map[string]string{},
		messages: map[string][]service.ChatMessage{},
	}
}

func (s *memChatStore) CreateConversation(ctx context.Context, userID uint, title string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("conv-%d", s.nextID)
	s.titles[id] = title
	return id, nil
}

func (s *memChatStore) SaveMessage(ctx context.Context, conversationID, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[conversationID] = append(s.messages[conversationID], service.ChatMessage{Role: role, Content: content})
	return nil
}

func (s *memChatStore) TouchConversation(ctx context.Context, conversationID string) error {
	return nil
}

func (s *memChatStore) LoadRecentMessages(ctx context.Context, conversationID string, limit int) ([]service.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[conversationID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]service.ChatMessage(nil), msgs...), nil
}

func (s *memChatStore) savedMessages(conversationID string) []service.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]service.ChatMessage(nil), s.messages[conversationID]...)
}

type memQuotaStore struct {
	mu      sync.Mutex
	records map[string]model.GuestQuota
}

func newMemQuotaStore() *memQuotaStore {
	return &memQuotaStore{records: map[string]model.GuestQuota{}}
}

func (s *memQuotaStore) Find(ctx context.Context, guestID string) (*model.GuestQuota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[guestID]
	if !ok {
		return nil, nil
	}
	copied := rec
	return &copied, nil
}

func (s *memQuotaStore) Create(ctx context.Context, rec *model.GuestQuota) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.GuestID] = *rec
	return nil
}

func (s *memQuotaStore) Update(ctx context.Context, rec *model.GuestQuota) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.GuestID] = *rec
	return nil
}

func (s *memQuotaStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type memSettingStore struct{}

func (memSettingStore) APIKey(ctx context.Context, userID uint) (string, error) { return "", nil }
func (memSettingStore) Save(ctx context.Context, setting *model.Setting) error { return nil }

// =========================================================================
// HARNESS
// =========================================================================

type routerHarness struct {
	router *gin.Engine
	store  *memChatStore
	quota  *memQuotaStore
}

// newRouterHarness wires the chat routes. authUserID, when non-zero, is
// injected as the authenticated session.
func newRouterHarness(t *testing.T, cfg *config.Config, authUserID uint) *routerHarness {
	t.Helper()

	cipher, err := platform.NewCipher("test-secret")
	require.NoError(t, err)
	logger := platform.NewAppLogger(t.TempDir(), "test")

	h := &routerHarness{
		store: newMemChatStore(),
		quota: newMemQuotaStore(),
	}

	quotaService := service.NewGuestQuotaService(h.quota)
	chatService := service.NewChatService(cfg, h.store, quotaService, memSettingStore{}, cipher, &service.LogReporter{Logger: logger}, logger)
	chat := NewChatController(chatService, quotaService, logger)

	h.router = gin.New()
	session := func(c *gin.Context) {
		if authUserID != 0 {
			c.Set(ctxUserIDKey, authUserID)
		}
		c.Next()
	}
	h.router.POST("/v1/chat", session, chat.Chat)
	h.router.GET("/v1/chat/quota", chat.Quota)
	return h
}

func postChat(t *testing.T, router *gin.Engine, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func fakeCompletionUpstream(t *testing.T, content string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-test",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func sseChunk(content, finishReason string) string {
	delta := map[string]string{}
	if content != "" {
		delta["content"] = content
	}
	choice := map[string]any{"index": 0, "delta": delta}
	if finishReason != "" {
		choice["finish_reason"] = finishReason
	}
	payload, _ := json.Marshal(map[string]any{
		"id":      "cmpl-test",
		"object":  "chat.completion.chunk",
		"created": 1,
		"model":   "test-model",
		"choices": []map[string]any{choice},
	})
	return string(payload)
}

func fakeStreamUpstream(t *testing.T, tokens []string, cut bool) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, token := range tokens {
			fmt.Fprintf(w, "data: %s\n\n", sseChunk(token, ""))
			flusher.Flush()
		}
		if cut {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", sseChunk("", "stop"))
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	t.Cleanup(server.Close)
	return server
}

// =========================================================================
// TESTS
// =========================================================================

func TestChatEndpoint_NonStreaming(t *testing.T) {
	server := fakeCompletionUpstream(t, "Hi! What can I do for you?")
	h := newRouterHarness(t, &config.Config{AIBaseURL: server.URL, HuggingFaceAPIKey: "hf"}, 7)

	w := postChat(t, h.router, map[string]any{"message": "Hello", "modelId": "deepseek-v3"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Content        string `json:"content"`
		ConversationID string `json:"conversationId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "Hi! What can I do for you?", resp.Content)
	require.NotEmpty(t, resp.ConversationID)

	// Both turns end up persisted under the returned conversation.
	require.Eventually(t, func() bool {
		return len(h.store.savedMessages(resp.ConversationID)) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestChatEndpoint_EmptyMessageRejected(t *testing.T) {
	h := newRouterHarness(t, &config.Config{HuggingFaceAPIKey: "hf"}, 0)

	w := postChat(t, h.router, map[string]any{"message": "   ", "modelId": "deepseek-v3"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Empty message")
}

func TestChatEndpoint_GuestLimit(t *testing.T) {
	h := newRouterHarness(t, &config.Config{HuggingFaceAPIKey: "hf"}, 0)

	require.NoError(t, h.quota.Create(context.Background(), &model.GuestQuota{
		GuestID:   "192.0.2.1",
		Count:     service.MaxGuestMessages,
		LastReset: time.Now(),
	}))

	w := postChat(t, h.router, map[string]any{"message": "hi", "modelId": "deepseek-v3"})

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	var resp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "GUEST_LIMIT_REACHED", resp.Error)
	require.NotEmpty(t, resp.Message)
}

func TestChatEndpoint_MissingKeyUnauthorized(t *testing.T) {
	h := newRouterHarness(t, &config.Config{}, 0)

	w := postChat(t, h.router, map[string]any{"message": "hi", "modelId": "deepseek-v3"})

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChatEndpoint_StreamingHappyPath(t *testing.T) {
	server := fakeStreamUpstream(t, []string{"Hel", "lo"}, false)
	h := newRouterHarness(t, &config.Config{AIBaseURL: server.URL, HuggingFaceAPIKey: "hf"}, 7)

	w := postChat(t, h.router, map[string]any{"message": "Hello", "modelId": "deepseek-v3", "stream": true})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	require.NotEmpty(t, w.Header().Get("X-Conversation-Id"))

	body := w.Body.String()
	require.Contains(t, body, `data: {"content":"Hel"}`)
	require.Contains(t, body, `data: {"content":"lo"}`)
	require.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"))

	conversationID := w.Header().Get("X-Conversation-Id")
	require.Eventually(t, func() bool {
		msgs := h.store.savedMessages(conversationID)
		if len(msgs) != 2 {
			return false
		}
		return msgs[0] == service.ChatMessage{Role: "user", Content: "Hello"} &&
			msgs[1] == service.ChatMessage{Role: "assistant", Content: "Hello"} ||
			msgs[1] == service.ChatMessage{Role: "user", Content: "Hello"} &&
				msgs[0] == service.ChatMessage{Role: "assistant", Content: "Hello"}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestChatEndpoint_StreamingUpstreamFailureEmitsErrorEvent(t *testing.T) {
	server := fakeStreamUpstream(t, []string{"par"}, true)
	h := newRouterHarness(t, &config.Config{AIBaseURL: server.URL, HuggingFaceAPIKey: "hf"}, 0)

	w := postChat(t, h.router, map[string]any{"message": "hi", "modelId": "deepseek-v3", "stream": true})

	body := w.Body.String()
	require.Contains(t, body, `data: {"content":"par"}`)
	require.Contains(t, body, `data: {"error":`)
	require.NotContains(t, body, "data: [DONE]")
}

func TestChatEndpoint_GuestGetsNoConversation(t *testing.T) {
	server := fakeCompletionUpstream(t, "sure")
	h := newRouterHarness(t, &config.Config{AIBaseURL: server.URL, HuggingFaceAPIKey: "hf"}, 0)

	w := postChat(t, h.router, map[string]any{"message": "hi", "modelId": "deepseek-v3"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		ConversationID string `json:"conversationId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Empty(t, resp.ConversationID)
}

func TestQuotaEndpoint(t *testing.T) {
	h := newRouterHarness(t, &config.Config{}, 0)

	req := httptest.NewRequest(http.MethodGet, "/v1/chat/quota", nil)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Remaining int `json:"remaining"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, service.MaxGuestMessages, resp.Remaining)
}
