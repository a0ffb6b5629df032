package api

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/screens/pkg/generate"
	"github.com/papercomputeco/screens/pkg/llm"
	"github.com/papercomputeco/screens/pkg/sse"
)

// SSE event types written by POST /v1/generations.
const (
	EventScreen = "screen"
	EventDone   = "done"
)

// ScreenEvent is the payload of a "screen" event. Several events share an
// index while the screen streams in; the one with Complete set is final.
type ScreenEvent struct {
	GenerationID string `json:"generation_id"`
	ScreenID     string `json:"screen_id"`
	Index        int    `json:"index"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Code         string `json:"code"`
	Complete     bool   `json:"complete"`
	Truncated    bool   `json:"truncated"`
}

// DoneEvent is the payload of the final "done" event.
type DoneEvent struct {
	GenerationID string `json:"generation_id"`
	Outcome      string `json:"outcome"`
	Failure      string `json:"failure,omitempty"`
	Error        string `json:"error,omitempty"`
	Endpoint     string `json:"endpoint,omitempty"`
	Screens      int    `json:"screens"`
	Malformed    int    `json:"malformed,omitempty"`
}

// NewScreenEvent flattens an update into its wire form.
func NewScreenEvent(u generate.Update) ScreenEvent {
	return ScreenEvent{
		GenerationID: u.GenerationID,
		ScreenID:     u.ScreenID,
		Index:        u.Index,
		Name:         u.Fields.Name.Value(),
		Description:  u.Fields.Description.Value(),
		Code:         u.Fields.Code.Value(),
		Complete:     u.Complete,
		Truncated:    u.Truncated,
	}
}

// NewDoneEvent summarizes res.
func NewDoneEvent(res generate.Result) DoneEvent {
	done := DoneEvent{
		GenerationID: res.GenerationID,
		Outcome:      res.Outcome.String(),
		Endpoint:     res.Endpoint,
		Screens:      len(res.Screens),
		Malformed:    len(res.Malformed),
	}
	if res.Failure != generate.FailureNone {
		done.Failure = res.Failure.String()
	}
	if res.Err != nil {
		done.Error = res.Err.Error()
	}
	return done
}

// handleCreateGeneration streams a generation as server-sent events.
func (s *Server) handleCreateGeneration(c *fiber.Ctx) error {
	var req generate.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: generate.ErrEmptyPrompt.Error()})
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// fasthttp recycles the request context once the handler returns, so the
	// generation runs on its own context and stops when the client goes away
	// and the pipe write fails.
	pr, pw := io.Pipe()
	go s.streamGeneration(req, pw)

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

func (s *Server) streamGeneration(req generate.Request, pw *io.PipeWriter) {
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := bufio.NewWriter(pw)
	seq := 0
	var writeErr error

	write := func(typ string, payload any) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		seq++
		return sse.Write(w, sse.Event{
			ID:   strconv.Itoa(seq),
			Type: typ,
			Data: string(data),
		})
	}

	res := s.service.Generate(ctx, req, func(u generate.Update) {
		if writeErr != nil {
			return
		}
		if err := write(EventScreen, NewScreenEvent(u)); err != nil {
			writeErr = err
			cancel()
		}
	})

	if writeErr != nil {
		s.logger.Debug("client disconnected during generation",
			"generation_id", res.GenerationID,
			"error", writeErr,
		)
		return
	}

	if err := write(EventDone, NewDoneEvent(res)); err != nil {
		s.logger.Debug("could not write done event",
			"generation_id", res.GenerationID,
			"error", err,
		)
	}
}
