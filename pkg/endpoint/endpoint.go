// Package endpoint holds the transports that talk to generation backends.
// An Endpoint can open a streaming generation or run a single completion;
// the fallback invoker decides which endpoint of a chain to use.
package endpoint

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/papercomputeco/screens/pkg/llm"
	"github.com/papercomputeco/screens/pkg/stream"
)

// Endpoint is one configured backend.
type Endpoint interface {
	// Name labels the endpoint in logs and errors.
	Name() string

	// Stream starts a streaming generation. The returned Source yields the
	// text deltas of the reply. Errors returned here happen before any
	// fragment was produced and are subject to retry and fail-over.
	Stream(ctx context.Context, req *llm.ChatRequest) (stream.Source, error)

	// Complete runs a single non-streaming completion.
	Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)
}

// StatusError is a non-2xx reply from a backend.
type StatusError struct {
	Endpoint   string
	StatusCode int

	// Body is the start of the response body, for diagnostics.
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// HTTPStatus reports the status code to the transient error classifier.
func (e *StatusError) HTTPStatus() int {
	return e.StatusCode
}

// newLimiter returns a limiter allowing rpm requests per minute, or nil for
// no limit.
func newLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}

func wait(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	if err := l.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}
	return nil
}

// withModel returns req with the endpoint's model filled in when the request
// does not name one.
func withModel(req *llm.ChatRequest, model string, streaming bool) *llm.ChatRequest {
	out := *req
	if out.Model == "" {
		out.Model = model
	}
	out.Stream = streaming
	return &out
}
