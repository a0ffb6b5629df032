package eventstream

import "context"

// Publisher publishes screen events to an event stream backend.
type Publisher interface {
	PublishScreen(ctx context.Context, event *ScreenPersistedEvent) error
	Close() error
}
