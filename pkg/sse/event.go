// Package sse reads and writes Server-Sent Events.
//
// Reader parses the event streams of SSE-framed generation backends
// (OpenAI, Anthropic). It can tee the raw bytes to a second writer so a
// stream can be captured verbatim while it is consumed. Write encodes
// events for the API's own streaming responses.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// Event represents a single parsed SSE event, delimited by a blank line
// in the byte stream.
type Event struct {
	// Type is the SSE event type from the "event:" field.
	// An empty string means the default "message" type per the SSE spec.
	Type string

	// Data is the concatenated contents of all "data:" lines for this event,
	// joined with "\n" (per the SSE spec, multiple data fields are joined
	// with a single newline).
	Data string

	// ID is the last event ID from the "id:" field, if present.
	ID string
}
