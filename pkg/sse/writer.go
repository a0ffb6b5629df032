package sse

import (
	"bufio"
	"strings"
)

// Write encodes ev onto w and flushes it. Multi-line data is split into
// one "data:" line per line.
func Write(w *bufio.Writer, ev Event) error {
	if ev.ID != "" {
		if _, err := w.WriteString("id: " + ev.ID + "\n"); err != nil {
			return err
		}
	}
	if ev.Type != "" {
		if _, err := w.WriteString("event: " + ev.Type + "\n"); err != nil {
			return err
		}
	}
	for _, line := range strings.Split(ev.Data, "\n") {
		if _, err := w.WriteString("data: " + line + "\n"); err != nil {
			return err
		}
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return w.Flush()
}
