package sse

import (
	"bufio"
	"io"
	"strings"
)

// maxLineSize bounds a single SSE line. Generation backends put a whole
// JSON chunk on one data line.
const maxLineSize = 1024 * 1024

// Reader parses SSE events from a source io.Reader. When created with
// NewTeeReader it also writes all raw bytes verbatim to a destination
// io.Writer as they are consumed.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐   ┌────────────────────────────────┐
// │  Reader.Next()   │──▶│ destination io.Writer (if any) │
// └──────────────────┘   └────────────────────────────────┘
// │
// ▼
// ┌──────────────────┐
// │      Event       │
// └──────────────────┘
type Reader struct {
	scanner *bufio.Scanner
	dest    io.Writer

	// current accumulates fields for the event being built in the current scan.
	current *Event
	hasData bool
}

// NewReader returns a Reader that parses SSE events from src.
func NewReader(src io.Reader) *Reader {
	return NewTeeReader(src, nil)
}

// NewTeeReader returns a Reader that parses SSE events from src and writes
// all raw bytes through to dest. A nil dest disables the tee.
func NewTeeReader(src io.Reader, dest io.Writer) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	return &Reader{
		scanner: scanner,
		dest:    dest,
		current: &Event{},
	}
}

// Next returns the next parsed SSE event. It blocks until a complete event
// is available (terminated by a blank line in the stream) and returns io.EOF
// once the source is exhausted.
func (r *Reader) Next() (*Event, error) {
	for r.scanner.Scan() {
		raw := r.scanner.Text()

		// bufio.Scanner strips the newline from the Scan() so we reinsert it here.
		if r.dest != nil {
			if _, err := io.WriteString(r.dest, raw+"\n"); err != nil {
				return nil, err
			}
		}

		// A blank line signals the end of the current event.
		if raw == "" {
			if r.hasData {
				return r.take(), nil
			}

			// Blank line with no accumulated fields: leading blank lines or
			// keep-alive newlines.
			continue
		}

		// Lines starting with ':' are comments.
		if strings.HasPrefix(raw, ":") {
			continue
		}

		r.parseLine(raw)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// The stream ended without a trailing blank line; yield what was
	// accumulated.
	if r.hasData {
		return r.take(), nil
	}

	return nil, io.EOF
}

// parseLine processes a single non-empty, non-comment SSE line and
// accumulates the field into the current event.
//
// A line has the form "field:value" where the first space after the colon
// is optional and stripped if present.
func (r *Reader) parseLine(line string) {
	var field, value string

	if before, after, ok := strings.Cut(line, ":"); ok {
		field = before
		value = strings.TrimPrefix(after, " ")
	} else {
		// Line with no colon: the entire line is the field name with
		// an empty value.
		field = line
	}

	switch field {
	case "data":
		if r.hasData && r.current.Data != "" {
			r.current.Data += "\n"
		}
		r.current.Data += value
		r.hasData = true
	case "event":
		r.current.Type = value
		r.hasData = true
	case "id":
		r.current.ID = value
		r.hasData = true
	default:
		// "retry" and unknown fields are ignored.
	}
}

// take returns the accumulated event and resets state for the next one.
func (r *Reader) take() *Event {
	ev := r.current
	r.current = &Event{}
	r.hasData = false
	return ev
}
