// Package anthropic implements the Anthropic Messages API wire format.
package anthropic

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/papercomputeco/screens/pkg/llm"
)

const (
	apiVersion = "2023-06-01"

	// defaultMaxTokens is sent when the request leaves MaxTokens unset,
	// since the Messages API requires it.
	defaultMaxTokens = 8192
)

// provider implements the Provider interface for Anthropic's Messages API.
type provider struct{}

func New() *provider { return &provider{} }

func (p *provider) Name() string {
	return "anthropic"
}

func (p *provider) Path() string {
	return "/v1/messages"
}

func (p *provider) Framing() llm.Framing {
	return llm.FramingSSE
}

func (p *provider) SetHeaders(h http.Header, apiKey string) {
	h.Set("anthropic-version", apiVersion)
	if apiKey != "" {
		h.Set("x-api-key", apiKey)
	}
}

func (p *provider) BuildRequest(req *llm.ChatRequest) ([]byte, error) {
	system := req.System
	messages := make([]anthropicMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		// System messages are a top level field in the Messages API.
		if msg.Role == llm.RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += msg.GetText()
			continue
		}
		messages = append(messages, anthropicMessage{Role: msg.Role, Content: msg.GetText()})
	}

	maxTokens := defaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	return json.Marshal(anthropicRequest{
		Model:       req.Model,
		Messages:    messages,
		System:      system,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stop:        req.Stop,
		Stream:      req.Stream,
	})
}

func (p *provider) ParseResponse(payload []byte) (*llm.ChatResponse, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, err
	}

	// Convert content blocks
	content := make([]llm.ContentBlock, 0, len(resp.Content))
	for _, block := range resp.Content {
		if block.Type != "text" {
			continue
		}
		content = append(content, llm.ContentBlock{Type: "text", Text: block.Text})
	}

	return &llm.ChatResponse{
		Model: resp.Model,
		Message: llm.Message{
			Role:    resp.Role,
			Content: content,
		},
		StopReason:  resp.StopReason,
		Usage:       convertUsage(resp.Usage),
		CreatedAt:   time.Now(),
		RawResponse: payload,
	}, nil
}

func (p *provider) ParseStreamChunk(payload []byte) (*llm.StreamChunk, error) {
	var ev anthropicEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}

	switch ev.Type {
	case "message_start":
		if ev.Message == nil {
			return nil, nil
		}
		return &llm.StreamChunk{
			Model: ev.Message.Model,
			Usage: convertUsage(ev.Message.Usage),
		}, nil
	case "content_block_delta":
		if ev.Delta == nil || ev.Delta.Type != "text_delta" {
			return nil, nil
		}
		return &llm.StreamChunk{Text: ev.Delta.Text}, nil
	case "message_delta":
		chunk := &llm.StreamChunk{Usage: convertUsage(ev.Usage)}
		if ev.Delta != nil {
			chunk.StopReason = ev.Delta.StopReason
		}
		return chunk, nil
	case "message_stop":
		return &llm.StreamChunk{Done: true}, nil
	case "error":
		if ev.Error == nil {
			return nil, fmt.Errorf("anthropic stream error")
		}
		return nil, fmt.Errorf("anthropic stream error: %s: %s", ev.Error.Type, ev.Error.Message)
	default:
		// ping, content_block_start, content_block_stop
		return nil, nil
	}
}

func convertUsage(u *anthropicUsage) *llm.Usage {
	if u == nil {
		return nil
	}
	return &llm.Usage{
		PromptTokens:     u.InputTokens,
		CompletionTokens: u.OutputTokens,
		TotalTokens:      u.InputTokens + u.OutputTokens,
	}
}
