package generate_test

import (
	"context"
	"sync"
	"time"

	"github.com/papercomputeco/screens/pkg/fallback"
	"github.com/papercomputeco/screens/pkg/generate"
	"github.com/papercomputeco/screens/pkg/llm"
	"github.com/papercomputeco/screens/pkg/stream"
)

// fakeEndpoint fails with errs in order and then serves fragments or reply.
type fakeEndpoint struct {
	name      string
	errs      []error
	fragments []string
	source    stream.Source
	reply     string

	mu       sync.Mutex
	calls    int
	requests []*llm.ChatRequest
}

func (f *fakeEndpoint) Name() string { return f.name }

func (f *fakeEndpoint) record(req *llm.ChatRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.requests = append(f.requests, req)
	if f.calls <= len(f.errs) {
		return f.errs[f.calls-1]
	}
	return nil
}

func (f *fakeEndpoint) Stream(_ context.Context, req *llm.ChatRequest) (stream.Source, error) {
	if err := f.record(req); err != nil {
		return nil, err
	}
	if f.source != nil {
		return f.source, nil
	}
	return stream.FromSlice(f.fragments...), nil
}

func (f *fakeEndpoint) Complete(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if err := f.record(req); err != nil {
		return nil, err
	}
	return &llm.ChatResponse{Message: llm.NewTextMessage(llm.RoleAssistant, f.reply)}, nil
}

type statusErr int

func (e statusErr) Error() string   { return "status" }
func (e statusErr) HTTPStatus() int { return int(e) }

// fastRetries retries without waiting.
func fastRetries() generate.Option {
	return generate.WithFallback(fallback.Options{
		Attempts: 3,
		Sleep:    func(context.Context, time.Duration) error { return nil },
	})
}

type collectSink struct {
	mu      sync.Mutex
	screens []*generate.Screen
	accept  bool
}

func (c *collectSink) Enqueue(s *generate.Screen) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.screens = append(c.screens, s)
	return c.accept
}
