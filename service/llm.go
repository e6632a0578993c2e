package service

import (
	"context"
	"errors"
	"strings"

	"chatrelay/config"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// NewLLMClient builds an upstream client for one request. The base URL and
// key vary per request, so clients are not shared.
func NewLLMClient(ai config.AIConfig) *openai.Client {
	return openai.NewClient(clientOptions(ai)...)
}

// clientOptions leaves the SDK's default endpoint in place when no base URL
// was resolved; an empty WithBaseURL would produce unusable request URLs.
func clientOptions(ai config.AIConfig) []option.RequestOption {
	opts := []option.RequestOption{option.WithAPIKey(ai.APIKey)}
	if ai.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(ai.BaseURL))
	}
	return opts
}

// BuildCompletionParams assembles the upstream request from prompt turns.
func BuildCompletionParams(modelID string, messages []ChatMessage, temperature float64, maxTokens int) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:    openai.F([]openai.ChatCompletionMessageParamUnion{}),
		Model:       openai.F(modelID),
		Temperature: openai.F(temperature),
		MaxTokens:   openai.F(int64(maxTokens)),
	}
	for _, message := range messages {
		var content any = message.Content
		params.Messages.Value = append(params.Messages.Value, openai.ChatCompletionMessageParam{
			Role:    openai.F(openai.ChatCompletionMessageParamRole(message.Role)),
			Content: openai.F(content),
		})
	}
	return params
}

// CompleteChat performs one non-streaming completion and returns the trimmed
// assistant content.
func CompleteChat(ctx context.Context, client *openai.Client, params openai.ChatCompletionNewParams) (string, error) {
	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", &UpstreamError{Err: err}
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

// StreamChat runs a streaming completion, handing every chunk to onChunk as
// it arrives. It returns the accumulated assistant content alongside any
// error; a non-nil error from onChunk abandons the upstream stream.
// A stream that ends without a finish chunk was cut, not completed, even
// when the SSE decoder reports no error of its own.
func StreamChat(ctx context.Context, client *openai.Client, params openai.ChatCompletionNewParams, onChunk func(chunk openai.ChatCompletionChunk) error) (string, error) {
	stream := client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	var acc strings.Builder
	finished := false
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) > 0 {
			acc.WriteString(chunk.Choices[0].Delta.Content)
			if chunk.Choices[0].FinishReason != "" {
				finished = true
			}
		}
		if err := onChunk(chunk); err != nil {
			return acc.String(), err
		}
	}
	if err := stream.Err(); err != nil {
		return acc.String(), &UpstreamError{Err: err}
	}
	if !finished {
		return acc.String(), &UpstreamError{Err: errors.New("stream ended before completion")}
	}
	return acc.String(), nil
}
