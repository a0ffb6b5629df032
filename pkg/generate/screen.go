package generate

import (
	"time"

	"github.com/papercomputeco/screens/pkg/extract"
)

// Screen is one completed screen of a generation.
type Screen struct {
	ID           string    `json:"id"`
	GenerationID string    `json:"generation_id"`
	Index        int       `json:"index"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Code         string    `json:"code"`
	Truncated    bool      `json:"truncated,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Update is one progressive snapshot handed to the caller of Generate.
// Several updates share an Index; the last one for an index has Complete
// set and carries the stored Screen.
type Update struct {
	GenerationID string
	ScreenID     string
	Index        int
	Fields       extract.Fields
	Complete     bool
	Truncated    bool

	// Screen is set on the completing update.
	Screen *Screen
}

// UpdateFunc receives updates in stream order.
type UpdateFunc func(Update)

// Sink receives completed screens, e.g. a persistence worker pool.
type Sink interface {
	Enqueue(s *Screen) bool
}
