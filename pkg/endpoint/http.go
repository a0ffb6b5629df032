package endpoint

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/papercomputeco/screens/pkg/llm"
	"github.com/papercomputeco/screens/pkg/llm/provider"
	"github.com/papercomputeco/screens/pkg/logger"
	"github.com/papercomputeco/screens/pkg/sse"
	"github.com/papercomputeco/screens/pkg/stream"
)

const (
	defaultTimeout = 5 * time.Minute
	maxErrorBody   = 4 * 1024
	maxLineSize    = 1024 * 1024
)

// HTTPConfig configures an HTTPEndpoint.
type HTTPConfig struct {
	// Name labels the endpoint. Defaults to the provider name.
	Name string

	// Provider is one of provider.SupportedProviders.
	Provider string

	// BaseURL is the backend root, e.g. "https://api.openai.com".
	BaseURL string

	APIKey string

	// Model is used when a request does not name one.
	Model string

	// RequestsPerMinute throttles calls on the client side. Zero disables it.
	RequestsPerMinute int

	// Timeout bounds a whole request including the streamed body.
	Timeout time.Duration

	// Client overrides the HTTP client.
	Client *http.Client

	// Recorder, when set, receives a verbatim copy of every streamed
	// response body.
	Recorder io.Writer

	Logger *slog.Logger
}

// HTTPEndpoint talks to an OpenAI, Anthropic or Ollama compatible backend
// over plain HTTP.
type HTTPEndpoint struct {
	name     string
	baseURL  string
	apiKey   string
	model    string
	provider provider.Provider
	client   *http.Client
	limiter  *rate.Limiter
	recorder io.Writer
	logger   *slog.Logger
}

// NewHTTP returns an HTTPEndpoint for c.
func NewHTTP(c HTTPConfig) (*HTTPEndpoint, error) {
	p, err := provider.New(c.Provider)
	if err != nil {
		return nil, err
	}
	if c.BaseURL == "" {
		return nil, fmt.Errorf("endpoint %q: base url is required", c.Name)
	}

	name := c.Name
	if name == "" {
		name = p.Name()
	}

	client := c.Client
	if client == nil {
		timeout := c.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &HTTPEndpoint{
		name:     name,
		baseURL:  strings.TrimRight(c.BaseURL, "/"),
		apiKey:   c.APIKey,
		model:    c.Model,
		provider: p,
		client:   client,
		limiter:  newLimiter(c.RequestsPerMinute),
		recorder: c.Recorder,
		logger:   log.With("endpoint", name),
	}, nil
}

func (e *HTTPEndpoint) Name() string {
	return e.name
}

// Stream posts a streaming request and returns a Source over the text
// deltas. The Source owns the response body.
func (e *HTTPEndpoint) Stream(ctx context.Context, req *llm.ChatRequest) (stream.Source, error) {
	resp, err := e.do(ctx, withModel(req, e.model, true))
	if err != nil {
		return nil, err
	}

	var next func() (*llm.StreamChunk, error)
	switch e.provider.Framing() {
	case llm.FramingNDJSON:
		next = e.ndjsonChunks(resp.Body)
	default:
		next = e.sseChunks(resp.Body)
	}

	done := false
	return stream.FromFunc(func() (string, error) {
		for !done {
			chunk, err := next()
			if err != nil {
				return "", err
			}
			if chunk == nil {
				continue
			}
			if chunk.Done {
				done = true
				if chunk.StopReason != "" {
					e.logger.Debug("stream finished", "stop_reason", chunk.StopReason)
				}
			}
			if chunk.Text != "" {
				return chunk.Text, nil
			}
		}
		return "", io.EOF
	}, resp.Body.Close), nil
}

// Complete posts a non-streaming request.
func (e *HTTPEndpoint) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	resp, err := e.do(ctx, withModel(req, e.model, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: reading response: %w", e.name, err)
	}

	out, err := e.provider.ParseResponse(body)
	if err != nil {
		return nil, fmt.Errorf("%s: parsing response: %w", e.name, err)
	}
	return out, nil
}

func (e *HTTPEndpoint) do(ctx context.Context, req *llm.ChatRequest) (*http.Response, error) {
	if err := wait(ctx, e.limiter); err != nil {
		return nil, err
	}

	body, err := e.provider.BuildRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", e.name, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+e.provider.Path(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", e.name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.Stream && e.provider.Framing() == llm.FramingSSE {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	e.provider.SetHeaders(httpReq.Header, e.apiKey)

	e.logger.Debug("calling endpoint",
		"model", req.Model,
		"stream", req.Stream,
	)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Endpoint:   e.name,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	return resp, nil
}

func (e *HTTPEndpoint) sseChunks(body io.Reader) func() (*llm.StreamChunk, error) {
	r := sse.NewTeeReader(body, e.recorder)
	return func() (*llm.StreamChunk, error) {
		ev, err := r.Next()
		if err != nil {
			return nil, err
		}
		if ev.Data == "" {
			return nil, nil
		}
		return e.parse(ev.Data)
	}
}

func (e *HTTPEndpoint) ndjsonChunks(body io.Reader) func() (*llm.StreamChunk, error) {
	if e.recorder != nil {
		body = io.TeeReader(body, e.recorder)
	}
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	return func() (*llm.StreamChunk, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		return e.parse(scanner.Text())
	}
}

func (e *HTTPEndpoint) parse(data string) (*llm.StreamChunk, error) {
	chunk, err := e.provider.ParseStreamChunk([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}
	return chunk, nil
}
