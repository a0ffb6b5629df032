package generatecmder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/papercomputeco/screens/api"
	"github.com/papercomputeco/screens/pkg/extract"
	"github.com/papercomputeco/screens/pkg/generate"
	"github.com/papercomputeco/screens/pkg/sse"
	"github.com/papercomputeco/screens/pkg/stream"
)

// StreamAPI posts req to a screens API server and hands every screen event
// to emit as it arrives. It returns the server's done event. A cancelled ctx
// yields a cancelled done event rather than an error.
func StreamAPI(ctx context.Context, apiTarget string, req generate.Request, emit func(api.ScreenEvent)) (*api.DoneEvent, error) {
	target, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	target.Path = "/v1/generations"

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return &api.DoneEvent{Outcome: stream.Cancelled.String()}, nil
		}
		return nil, fmt.Errorf("failed to connect to screens API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("generation request failed (HTTP %d): %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var (
		generationID string
		completed    int
	)
	cancelled := func() *api.DoneEvent {
		return &api.DoneEvent{
			GenerationID: generationID,
			Outcome:      stream.Cancelled.String(),
			Screens:      completed,
		}
	}

	reader := sse.NewReader(resp.Body)
	for {
		ev, err := reader.Next()
		if err != nil {
			if ctx.Err() != nil {
				return cancelled(), nil
			}
			if errors.Is(err, io.EOF) {
				return nil, errors.New("stream ended before the generation finished")
			}
			return nil, fmt.Errorf("reading generation stream: %w", err)
		}

		switch ev.Type {
		case api.EventScreen:
			var se api.ScreenEvent
			if err := json.Unmarshal([]byte(ev.Data), &se); err != nil {
				return nil, fmt.Errorf("decoding screen event: %w", err)
			}
			generationID = se.GenerationID
			if se.Complete {
				completed++
			}
			emit(se)

		case api.EventDone:
			var done api.DoneEvent
			if err := json.Unmarshal([]byte(ev.Data), &done); err != nil {
				return nil, fmt.Errorf("decoding done event: %w", err)
			}
			return &done, nil
		}
	}
}

// eventUpdate converts a wire event back into a generation update so the
// same printer renders local and remote runs. Completing events carry a
// Screen; the server does not send creation times, so the local clock is used.
func eventUpdate(ev api.ScreenEvent) generate.Update {
	u := generate.Update{
		GenerationID: ev.GenerationID,
		ScreenID:     ev.ScreenID,
		Index:        ev.Index,
		Complete:     ev.Complete,
		Truncated:    ev.Truncated,
		Fields: extract.Fields{
			Name:        extract.Complete(ev.Name),
			Description: fieldState(ev.Description, ev.Complete),
			Code:        fieldState(ev.Code, ev.Complete),
		},
	}

	if ev.Complete {
		u.Screen = &generate.Screen{
			ID:           ev.ScreenID,
			GenerationID: ev.GenerationID,
			Index:        ev.Index,
			Name:         ev.Name,
			Description:  ev.Description,
			Code:         ev.Code,
			Truncated:    ev.Truncated,
			CreatedAt:    time.Now().UTC(),
		}
	}
	return u
}

func fieldState(v string, complete bool) extract.FieldState {
	switch {
	case complete:
		return extract.Complete(v)
	case v == "":
		return extract.Pending()
	default:
		return extract.Partial(v)
	}
}
