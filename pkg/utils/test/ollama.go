package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
)

// NewOllamaServer starts a fake Ollama /api/chat backend. Streaming requests
// get one NDJSON chunk per fragment; other requests get the fragments joined
// into a single reply. Callers must Close the server.
func NewOllamaServer(fragments ...string) *httptest.Server {
	type message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type chunk struct {
		Model      string  `json:"model"`
		Message    message `json:"message"`
		Done       bool    `json:"done"`
		DoneReason string  `json:"done_reason,omitempty"`
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}

		var req struct {
			Model  string `json:"model"`
			Stream bool   `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		enc := json.NewEncoder(w)
		if !req.Stream {
			w.Header().Set("Content-Type", "application/json")
			_ = enc.Encode(chunk{
				Model:      req.Model,
				Message:    message{Role: "assistant", Content: strings.Join(fragments, "")},
				Done:       true,
				DoneReason: "stop",
			})
			return
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		flusher, _ := w.(http.Flusher)
		for _, f := range fragments {
			_ = enc.Encode(chunk{Model: req.Model, Message: message{Role: "assistant", Content: f}})
			if flusher != nil {
				flusher.Flush()
			}
		}
		_ = enc.Encode(chunk{Model: req.Model, Message: message{Role: "assistant"}, Done: true, DoneReason: "stop"})
	}))
}

// OllamaConfig returns a config.toml body with a single Ollama endpoint at
// baseURL.
func OllamaConfig(baseURL string) string {
	return `[[endpoints]]
name = "local"
provider = "ollama"
base_url = "` + baseURL + `"
model = "test-model"
`
}
