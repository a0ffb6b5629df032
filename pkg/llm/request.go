package llm

// ChatRequest represents a provider-agnostic chat completion request.
// Endpoint transports translate it into a backend's wire format with a
// provider from pkg/llm/provider.
type ChatRequest struct {
	// Model name (e.g., "gpt-4o", "claude-sonnet-4-5", "qwen2.5-coder")
	Model string `json:"model"`

	// Conversation messages
	Messages []Message `json:"messages"`

	// Whether to stream the response
	Stream bool `json:"stream,omitempty"`

	// System prompt (some providers handle this separately from messages)
	System string `json:"system,omitempty"`

	// Generation parameters (unified across providers)
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`

	// JSONMode asks the backend to constrain output to a JSON document
	// where it supports that.
	JSONMode bool `json:"json_mode,omitempty"`
}
