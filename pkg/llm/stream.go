package llm

// Framing is how a backend delimits the chunks of a streaming response.
type Framing string

const (
	// FramingSSE is text/event-stream: one chunk per "data:" event.
	FramingSSE Framing = "sse"

	// FramingNDJSON is one JSON object per line.
	FramingNDJSON Framing = "ndjson"
)

// StreamChunk represents a single chunk in a streaming response after the
// provider-specific framing and format have been removed.
type StreamChunk struct {
	// Model that generated the chunk
	Model string `json:"model,omitempty"`

	// Text is the content delta carried by this chunk. It may be empty.
	Text string `json:"text,omitempty"`

	// Whether this is the final chunk
	Done bool `json:"done"`

	// Stop reason (only present on final chunk)
	StopReason string `json:"stop_reason,omitempty"`

	// Usage metrics (typically only present on final chunk)
	Usage *Usage `json:"usage,omitempty"`
}
