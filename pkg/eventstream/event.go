// Package eventstream defines the events emitted after screens are persisted
// and the Publisher interface backends implement to ship them.
package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/screens/pkg/generate"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeScreenPersisted is emitted after a generated screen is persisted.
	EventTypeScreenPersisted = "screens.screen.persisted"
)

// ScreenPersistedEvent is a transport-neutral event payload for a persisted screen.
type ScreenPersistedEvent struct {
	SchemaVersion int             `json:"schema_version"`
	EventType     string          `json:"event_type"`
	EventID       string          `json:"event_id"`
	EmittedAt     time.Time       `json:"emitted_at"`
	Source        EventSource     `json:"source"`
	Screen        generate.Screen `json:"screen"`
}

// EventSource identifies where the screen originated.
type EventSource struct {
	Endpoint string `json:"endpoint,omitempty"`
	Storage  string `json:"storage"`
}

// NewScreenPersistedEvent builds a v1 event for s.
func NewScreenPersistedEvent(s *generate.Screen, source EventSource, now time.Time) *ScreenPersistedEvent {
	return &ScreenPersistedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeScreenPersisted,
		EventID:       uuid.NewString(),
		EmittedAt:     now.UTC(),
		Source:        source,
		Screen:        *s,
	}
}
