package nop

import (
	"context"

	"github.com/papercomputeco/screens/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishScreen validates input and otherwise does nothing.
func (p *Publisher) PublishScreen(_ context.Context, event *eventstream.ScreenPersistedEvent) error {
	if event == nil {
		return eventstream.ErrNilScreenEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
