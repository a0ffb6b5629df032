package ollama

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/papercomputeco/screens/pkg/llm"
)

// provider implements the Provider interface for Ollama's chat API.
type provider struct{}

func New() *provider { return &provider{} }

func (o *provider) Name() string {
	return "ollama"
}

func (o *provider) Path() string {
	return "/api/chat"
}

func (o *provider) Framing() llm.Framing {
	return llm.FramingNDJSON
}

// SetHeaders only sets a bearer token, for Ollama instances behind an
// authenticating reverse proxy.
func (o *provider) SetHeaders(h http.Header, apiKey string) {
	if apiKey != "" {
		h.Set("Authorization", "Bearer "+apiKey)
	}
}

func (o *provider) BuildRequest(req *llm.ChatRequest) ([]byte, error) {
	messages := make([]ollamaMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, ollamaMessage{Role: llm.RoleSystem, Content: req.System})
	}
	for _, msg := range req.Messages {
		messages = append(messages, ollamaMessage{Role: msg.Role, Content: msg.GetText()})
	}

	out := ollamaRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   req.Stream,
	}
	if req.JSONMode {
		out.Format = "json"
	}
	if req.Temperature != nil || req.TopP != nil || req.MaxTokens != nil || len(req.Stop) > 0 {
		out.Options = &ollamaOptions{
			Temperature: req.Temperature,
			TopP:        req.TopP,
			NumPredict:  req.MaxTokens,
			Stop:        req.Stop,
		}
	}

	return json.Marshal(out)
}

func (o *provider) ParseResponse(payload []byte) (*llm.ChatResponse, error) {
	var resp ollamaResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}

	return &llm.ChatResponse{
		Model:       resp.Model,
		CreatedAt:   resp.CreatedAt,
		Message:     llm.NewTextMessage(resp.Message.Role, resp.Message.Content),
		StopReason:  resp.DoneReason,
		Usage:       convertUsage(&resp),
		RawResponse: payload,
	}, nil
}

func (o *provider) ParseStreamChunk(payload []byte) (*llm.StreamChunk, error) {
	line := strings.TrimSpace(string(payload))
	if line == "" {
		return nil, nil
	}

	var resp ollamaResponse
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("ollama stream error: %s", resp.Error)
	}

	chunk := &llm.StreamChunk{
		Model: resp.Model,
		Text:  resp.Message.Content,
		Done:  resp.Done,
	}
	if resp.Done {
		chunk.StopReason = resp.DoneReason
		chunk.Usage = convertUsage(&resp)
	}
	return chunk, nil
}

func convertUsage(resp *ollamaResponse) *llm.Usage {
	if resp.PromptEvalCount == 0 && resp.EvalCount == 0 {
		return nil
	}
	return &llm.Usage{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		TotalDurationNs:  resp.TotalDuration,
	}
}
