package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/papercomputeco/screens/pkg/endpoint"
	"github.com/papercomputeco/screens/pkg/fallback"
	"github.com/papercomputeco/screens/pkg/llm"
	"github.com/papercomputeco/screens/pkg/sanitize"
)

// RefineRequest asks for an edited version of one screen.
type RefineRequest struct {
	Screen      *Screen `json:"screen"`
	Instruction string  `json:"instruction"`
	Platform    string  `json:"platform,omitempty"`
	Model       string  `json:"model,omitempty"`
}

type screenFields struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Code        string `json:"code"`
}

// Refine runs one non-streaming completion through the fallback chain and
// returns the edited screen. The result keeps the generation and index of
// the input screen and gets a new ID.
func (s *Service) Refine(ctx context.Context, req RefineRequest) (*Screen, error) {
	if req.Screen == nil {
		return nil, ErrNoScreen
	}
	if strings.TrimSpace(req.Instruction) == "" {
		return nil, ErrEmptyInstruction
	}

	var current bytes.Buffer
	enc := json.NewEncoder(&current)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(screenFields{
		Name:        req.Screen.Name,
		Description: req.Screen.Description,
		Code:        req.Screen.Code,
	}); err != nil {
		return nil, fmt.Errorf("encoding screen: %w", err)
	}

	chat := &llm.ChatRequest{
		Model:  req.Model,
		System: refinePrompt,
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleUser, fmt.Sprintf("%s\n\nScreen:\n%s\n\nInstruction:\n%s",
				platformHint(req.Platform), strings.TrimSpace(current.String()), strings.TrimSpace(req.Instruction))),
		},
		JSONMode: true,
	}

	log := s.logger.With("screen_id", req.Screen.ID)
	log.Info("refining screen")

	resp, err := fallback.Invoke(ctx, s.endpoints, func(ctx context.Context, e endpoint.Endpoint) (*llm.ChatResponse, error) {
		return e.Complete(ctx, chat)
	}, s.fallback)
	if err != nil {
		if ctx.Err() == nil {
			log.Error("refine failed", "error", err)
		}
		return nil, err
	}

	fields, err := parseScreen(resp.Message.GetText())
	if err != nil {
		return nil, err
	}

	return &Screen{
		ID:           s.newID(),
		GenerationID: req.Screen.GenerationID,
		Index:        req.Screen.Index,
		Name:         fields.Name,
		Description:  fields.Description,
		Code:         sanitize.Sanitize(fields.Code),
		CreatedAt:    s.now().UTC(),
	}, nil
}

// parseScreen reads one {name, description, code} object out of a model
// reply. Markdown fences and surrounding prose are ignored; broken JSON is
// repaired before giving up. A reply wrapped in a "screens" array yields its
// first element.
func parseScreen(reply string) (*screenFields, error) {
	text := stripFences(reply)
	if i := strings.IndexByte(text, '{'); i >= 0 {
		text = text[i:]
	}

	// Prefer the text up to the last closing brace; a reply that was cut
	// off mid-object is tried whole so the repair can close it.
	candidates := []string{text}
	if j := strings.LastIndexByte(text, '}'); j >= 0 && j < len(text)-1 {
		candidates = []string{text[:j+1], text}
	}

	var lastErr error
	for _, c := range candidates {
		var doc struct {
			screenFields
			Screens []screenFields `json:"screens"`
		}
		if err := unmarshalJSON([]byte(c), &doc); err != nil {
			lastErr = err
			continue
		}

		out := doc.screenFields
		if out.Code == "" && len(doc.Screens) > 0 {
			out = doc.Screens[0]
		}
		if out.Code != "" {
			return &out, nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoScreen, lastErr)
	}
	return nil, ErrNoScreen
}

// unmarshalJSON unmarshals data into v, repairing malformed JSON on a
// syntax error.
func unmarshalJSON(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, err := jsonrepair.JSONRepair(string(data))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}
