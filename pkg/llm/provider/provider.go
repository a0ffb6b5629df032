// Package provider holds the wire formats of the generation backends. Each
// subpackage translates the provider-agnostic types of pkg/llm to and from
// one backend's chat API.
package provider

import (
	"errors"
	"net/http"

	"github.com/papercomputeco/screens/pkg/llm"
)

// ErrStreamingNotImplemented is returned by ParseStreamChunk when a provider
// does not support streaming.
var ErrStreamingNotImplemented = errors.New("streaming not implemented for this provider")

// Provider defines the interface for building backend requests and parsing
// backend responses.
type Provider interface {
	// Name returns the canonical provider name (e.g., "anthropic", "openai", "ollama")
	Name() string

	// Path is the chat endpoint path joined onto an endpoint's base URL.
	Path() string

	// Framing is how the backend delimits streaming chunks.
	Framing() llm.Framing

	// SetHeaders adds authentication and API version headers.
	SetHeaders(h http.Header, apiKey string)

	// BuildRequest converts the internal request into the backend's JSON body.
	BuildRequest(req *llm.ChatRequest) ([]byte, error)

	// ParseResponse converts a backend's non-streaming response into the internal format.
	// Returns an error if the payload cannot be parsed.
	ParseResponse(payload []byte) (*llm.ChatResponse, error)

	// ParseStreamChunk converts a single streaming chunk into the internal format.
	// Returns (nil, nil) if the chunk should be skipped (e.g., keep-alive, pings).
	// An error event sent by the backend mid-stream is returned as an error.
	ParseStreamChunk(payload []byte) (*llm.StreamChunk, error)
}
