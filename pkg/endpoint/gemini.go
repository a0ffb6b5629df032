package endpoint

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/papercomputeco/screens/pkg/llm"
	"github.com/papercomputeco/screens/pkg/logger"
	"github.com/papercomputeco/screens/pkg/stream"
)

// GeminiConfig configures a GeminiEndpoint.
type GeminiConfig struct {
	Name   string
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API root.
	BaseURL string

	RequestsPerMinute int

	Logger *slog.Logger
}

// GeminiEndpoint talks to the Gemini API through the genai SDK.
type GeminiEndpoint struct {
	name    string
	model   string
	client  *genai.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewGemini returns a GeminiEndpoint for c.
func NewGemini(ctx context.Context, c GeminiConfig) (*GeminiEndpoint, error) {
	if c.Model == "" {
		return nil, fmt.Errorf("endpoint %q: gemini requires a model", c.Name)
	}

	cfg := &genai.ClientConfig{
		APIKey:  c.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	name := c.Name
	if name == "" {
		name = "gemini"
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &GeminiEndpoint{
		name:    name,
		model:   strings.TrimPrefix(c.Model, "models/"),
		client:  client,
		limiter: newLimiter(c.RequestsPerMinute),
		logger:  log.With("endpoint", name),
	}, nil
}

func (g *GeminiEndpoint) Name() string {
	return g.name
}

// Stream starts GenerateContentStream and adapts the push iterator to a
// pull Source. The first response is awaited here so that failures to
// start the generation surface as an error from Stream.
func (g *GeminiEndpoint) Stream(ctx context.Context, req *llm.ChatRequest) (stream.Source, error) {
	if err := wait(ctx, g.limiter); err != nil {
		return nil, err
	}

	req = withModel(req, g.model, true)
	cfg, contents := geminiRequest(req)

	next, stop := iter.Pull2(g.client.Models.GenerateContentStream(ctx, req.Model, contents, cfg))

	first, err := pullText(next)
	if err != nil && err != io.EOF {
		stop()
		return nil, fmt.Errorf("%s: %w", g.name, err)
	}

	pending := &first
	return stream.FromFunc(func() (string, error) {
		if pending != nil {
			text := *pending
			pending = nil
			if err == io.EOF && text == "" {
				return "", io.EOF
			}
			return text, nil
		}
		return pullText(next)
	}, func() error {
		stop()
		return nil
	}), nil
}

// Complete runs GenerateContent.
func (g *GeminiEndpoint) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if err := wait(ctx, g.limiter); err != nil {
		return nil, err
	}

	req = withModel(req, g.model, false)
	cfg, contents := geminiRequest(req)

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.name, err)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%s: no candidates", g.name)
	}

	cand := resp.Candidates[0]
	out := &llm.ChatResponse{
		Model:      req.Model,
		Message:    llm.NewTextMessage(llm.RoleAssistant, candidateText(cand)),
		StopReason: string(cand.FinishReason),
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = &llm.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

// pullText returns the text of the next response that carries any. A
// response that stops for a reason other than STOP or MAX_TOKENS (safety,
// recitation) ends the stream with an error.
func pullText(next func() (*genai.GenerateContentResponse, error, bool)) (string, error) {
	for {
		resp, err, ok := next()
		if !ok {
			return "", io.EOF
		}
		if err != nil {
			return "", err
		}
		if len(resp.Candidates) == 0 {
			continue
		}

		cand := resp.Candidates[0]
		text := candidateText(cand)
		switch cand.FinishReason {
		case "", genai.FinishReasonStop, genai.FinishReasonMaxTokens:
		default:
			if text == "" {
				return "", fmt.Errorf("unexpected finish reason: %s", cand.FinishReason)
			}
		}
		if text != "" {
			return text, nil
		}
	}
}

func candidateText(c *genai.Candidate) string {
	if c == nil || c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if p != nil && p.Text != "" && !p.Thought {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

func geminiRequest(req *llm.ChatRequest) (*genai.GenerateContentConfig, []*genai.Content) {
	cfg := &genai.GenerateContentConfig{}

	system := req.System
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case llm.RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += msg.GetText()
		case llm.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.GetText(), genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.GetText(), genai.RoleUser))
		}
	}

	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(system)}}
	}
	if req.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}
	if req.MaxTokens != nil {
		cfg.MaxOutputTokens = int32(*req.MaxTokens)
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		cfg.Temperature = &t
	}
	if req.TopP != nil {
		p := float32(*req.TopP)
		cfg.TopP = &p
	}
	if len(req.Stop) > 0 {
		cfg.StopSequences = req.Stop
	}

	return cfg, contents
}
