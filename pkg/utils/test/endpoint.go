package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/screens/pkg/llm"
	"github.com/papercomputeco/screens/pkg/stream"
)

// MockEndpoint is an endpoint.Endpoint that streams canned fragments and
// answers completions with a canned reply.
type MockEndpoint struct {
	EndpointName string
	Fragments    []string
	Reply        string

	// Err, when set, is returned by every Stream and Complete call.
	Err error

	mu       sync.Mutex
	requests []*llm.ChatRequest
}

// NewMockEndpoint creates a MockEndpoint streaming fragments.
func NewMockEndpoint(name string, fragments ...string) *MockEndpoint {
	return &MockEndpoint{EndpointName: name, Fragments: fragments}
}

func (m *MockEndpoint) Name() string { return m.EndpointName }

func (m *MockEndpoint) Stream(_ context.Context, req *llm.ChatRequest) (stream.Source, error) {
	m.record(req)
	if m.Err != nil {
		return nil, m.Err
	}
	return stream.FromSlice(m.Fragments...), nil
}

func (m *MockEndpoint) Complete(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.record(req)
	if m.Err != nil {
		return nil, m.Err
	}
	return &llm.ChatResponse{
		Message:    llm.NewTextMessage(llm.RoleAssistant, m.Reply),
		StopReason: "stop",
	}, nil
}

// Requests returns the requests seen so far.
func (m *MockEndpoint) Requests() []*llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*llm.ChatRequest(nil), m.requests...)
}

func (m *MockEndpoint) record(req *llm.ChatRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
}

// ScreensDocument is a complete two screen reply split into fragments at
// awkward offsets.
var ScreensDocument = []string{
	`{"screens":[{"name":"Lo`,
	`gin","description":"Sign in","code":"<div class=\"h-screen\">`,
	`<form></form></div>"},{"name":"Home","descr`,
	`iption":"Landing page","code":"<main>hi</main>"}]}`,
}
