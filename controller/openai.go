package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"chatrelay/config"
	"chatrelay/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/sirupsen/logrus"
)

// OpenAIController republishes the relay's upstream invocation under the
// standard chat-completion surface, so third-party tools can point at this
// service as a drop-in provider. It is a pure relay: no conversation
// persistence, no guest quota.
type OpenAIController struct {
	cfg    *config.Config
	logger *logrus.Logger
}

func NewOpenAIController(cfg *config.Config, logger *logrus.Logger) *OpenAIController {
	return &OpenAIController{cfg: cfg, logger: logger}
}

type openAIChatRequest struct {
	Model       string                `json:"model"`
	Messages    []service.ChatMessage `json:"messages"`
	Temperature *float64              `json:"temperature"`
	MaxTokens   *int                  `json:"max_tokens"`
	Stream      bool                  `json:"stream"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChoice struct {
	Index        int           `json:"index"`
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type openAIChatResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []openAIChoice `json:"choices"`
	Usage   openAIUsage    `json:"usage"`
}

type openAIChunkChoice struct {
	Index        int               `json:"index"`
	Delta        map[string]string `json:"delta"`
	FinishReason *string           `json:"finish_reason"`
}

type openAIChunk struct {
	ID      string              `json:"id"`
	Object  string              `json:"object"`
	Created int64               `json:"created"`
	Model   string              `json:"model"`
	Choices []openAIChunkChoice `json:"choices"`
}

func openAIError(message, errType, code string) gin.H {
	e := gin.H{"message": message, "type": errType}
	if code != "" {
		e["code"] = code
	}
	return gin.H{"error": e}
}

func newCompletionID() string {
	return "chatcmpl-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:13]
}

// ChatCompletions handles POST /v1/chat/completions.
func (ctrl *OpenAIController) ChatCompletions(c *gin.Context) {
	var req openAIChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, openAIError("Invalid request body", "invalid_request_error", ""))
		return
	}

	var apiKey string
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		apiKey = strings.TrimPrefix(auth, "Bearer ")
	}

	modelInput := req.Model
	if modelInput == "" {
		modelInput = config.GetDefaultModel().ID
	}
	// The catalog is matched on either the short id or the full upstream
	// model id; unknown inputs degrade to the default entry in the resolver.
	catalogID := modelInput
	if m := config.FindModel(modelInput); m != nil {
		catalogID = m.ID
	}

	ai := config.ResolveAIConfig(ctrl.cfg, catalogID, apiKey)
	if ai.APIKey == "" {
		c.JSON(http.StatusUnauthorized, openAIError(
			"API key required. Set Authorization header with Bearer token.",
			"invalid_request_error", "missing_api_key"))
		return
	}

	temperature := service.DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := service.DefaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	client := service.NewLLMClient(ai)
	params := service.BuildCompletionParams(ai.ModelID, req.Messages, temperature, maxTokens)

	if req.Stream {
		ctrl.streamCompletions(c, client, params, ai.ModelID)
		return
	}

	content, err := service.CompleteChat(c.Request.Context(), client, params)
	if err != nil && !errors.Is(err, service.ErrEmptyCompletion) {
		ctrl.logger.Warnf("[%s] facade completion error, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, openAIError(err.Error(), "api_error", "internal_error"))
		return
	}

	c.JSON(http.StatusOK, openAIChatResponse{
		ID:      newCompletionID(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   ai.ModelID,
		Choices: []openAIChoice{
			{
				Index:        0,
				Message:      openAIMessage{Role: "assistant", Content: content},
				FinishReason: "stop",
			},
		},
		Usage: openAIUsage{},
	})
}

func (ctrl *OpenAIController) streamCompletions(c *gin.Context, client *openai.Client, params openai.ChatCompletionNewParams, modelID string) {
	w := c.Writer
	flusher, ok := w.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, openAIError("Streaming unsupported", "api_error", ""))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	responseID := newCompletionID()
	created := time.Now().Unix()

	_, err := service.StreamChat(c.Request.Context(), client, params, func(chunk openai.ChatCompletionChunk) error {
		out := openAIChunk{
			ID:      responseID,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   modelID,
			Choices: []openAIChunkChoice{{Index: 0, Delta: map[string]string{}}},
		}
		if len(chunk.Choices) > 0 {
			if content := chunk.Choices[0].Delta.Content; content != "" {
				out.Choices[0].Delta["content"] = content
			}
			if reason := string(chunk.Choices[0].FinishReason); reason != "" {
				out.Choices[0].FinishReason = &reason
			}
		}
		payload, err := json.Marshal(out)
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
		ctrl.logger.Warnf("[%s] facade stream error, %s", c.GetString("requestId"), err)
		var upstream *service.UpstreamError
		if errors.As(err, &upstream) {
			if payload, merr := json.Marshal(openAIError(upstream.Err.Error(), "api_error", "")); merr == nil {
				fmt.Fprintf(w, "data: %s\n\n", payload)
				flusher.Flush()
			}
		}
		return
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// Models handles GET /v1/models, reshaping the static catalog.
func (ctrl *OpenAIController) Models(c *gin.Context) {
	created := time.Now().Unix()
	data := make([]gin.H, 0, len(config.AvailableModels))
	for _, m := range config.AvailableModels {
		data = append(data, gin.H{
			"id":       m.ModelID,
			"object":   "model",
			"created":  created,
			"owned_by": string(m.Provider),
		})
	}
	c.JSON(http.StatusOK, gin.H{"object": "list", "data": data})
}
