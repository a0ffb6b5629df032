// Package openai implements the OpenAI Chat Completions wire format. Any
// backend exposing an OpenAI compatible /v1/chat/completions endpoint works
// with it.
package openai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/screens/pkg/llm"
)

const doneSentinel = "[DONE]"

// provider implements the Provider interface for OpenAI's Chat Completions API.
type provider struct{}

func New() *provider { return &provider{} }

func (o *provider) Name() string {
	return "openai"
}

func (o *provider) Path() string {
	return "/v1/chat/completions"
}

func (o *provider) Framing() llm.Framing {
	return llm.FramingSSE
}

func (o *provider) SetHeaders(h http.Header, apiKey string) {
	if apiKey != "" {
		h.Set("Authorization", "Bearer "+apiKey)
	}
}

func (o *provider) BuildRequest(req *llm.ChatRequest) ([]byte, error) {
	messages := make([]openaiMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openaiMessage{Role: llm.RoleSystem, Content: req.System})
	}
	for _, msg := range req.Messages {
		messages = append(messages, openaiMessage{Role: msg.Role, Content: msg.GetText()})
	}

	out := openaiRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stop:        req.Stop,
		Stream:      req.Stream,
	}
	if req.Stream {
		out.StreamOptions = &streamOptions{IncludeUsage: true}
	}
	if req.JSONMode {
		out.ResponseFormat = map[string]any{"type": "json_object"}
	}

	return json.Marshal(out)
}

func (o *provider) ParseResponse(payload []byte) (*llm.ChatResponse, error) {
	var resp openaiResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		// Return empty response if no choices
		return &llm.ChatResponse{
			Model:       resp.Model,
			RawResponse: payload,
		}, nil
	}

	choice := resp.Choices[0]
	msg := choice.Message

	// Convert message content
	var content []llm.ContentBlock
	switch c := msg.Content.(type) {
	case string:
		content = []llm.ContentBlock{{Type: "text", Text: c}}
	case []any:
		for _, item := range c {
			if part, ok := item.(map[string]any); ok {
				cb := llm.ContentBlock{}
				if t, ok := part["type"].(string); ok {
					cb.Type = t
				}
				if text, ok := part["text"].(string); ok {
					cb.Text = text
				}
				content = append(content, cb)
			}
		}
	case nil:
		content = []llm.ContentBlock{}
	}

	return &llm.ChatResponse{
		Model: resp.Model,
		Message: llm.Message{
			Role:    msg.Role,
			Content: content,
		},
		StopReason:  choice.FinishReason,
		Usage:       convertUsage(resp.Usage),
		CreatedAt:   time.Unix(resp.Created, 0),
		RawResponse: payload,
	}, nil
}

func (o *provider) ParseStreamChunk(payload []byte) (*llm.StreamChunk, error) {
	data := strings.TrimSpace(string(payload))
	if data == "" {
		return nil, nil
	}
	if data == doneSentinel {
		return &llm.StreamChunk{Done: true}, nil
	}

	var chunk openaiChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return nil, err
	}
	if chunk.Error != nil {
		return nil, fmt.Errorf("openai stream error: %s: %s", chunk.Error.Type, chunk.Error.Message)
	}

	out := &llm.StreamChunk{
		Model: chunk.Model,
		Usage: convertUsage(chunk.Usage),
	}
	if len(chunk.Choices) > 0 {
		choice := chunk.Choices[0]
		out.Text = choice.Delta.Content
		if choice.FinishReason != nil {
			out.StopReason = *choice.FinishReason
		}
	}

	return out, nil
}

func convertUsage(u *openaiUsage) *llm.Usage {
	if u == nil {
		return nil
	}
	return &llm.Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}
