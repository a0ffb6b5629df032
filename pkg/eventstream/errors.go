package eventstream

import "errors"

// ErrNilScreenEvent indicates a nil screen event payload was provided to a publisher.
var ErrNilScreenEvent = errors.New("nil screen event")
