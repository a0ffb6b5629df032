package stream

import (
	"context"
	"io"
	"sync"
)

// Source yields the text fragments of one generation in order.
type Source interface {
	// Next blocks until the next fragment is available. It returns io.EOF
	// once the stream has ended normally and ctx.Err() when ctx is done
	// while waiting.
	Next(ctx context.Context) (string, error)

	// Close releases the underlying transport. It is safe to call more
	// than once.
	Close() error
}

type sliceSource struct {
	fragments []string
	pos       int
}

// FromSlice returns a Source over fixed fragments.
func FromSlice(fragments ...string) Source {
	return &sliceSource{fragments: fragments}
}

func (s *sliceSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.pos >= len(s.fragments) {
		return "", io.EOF
	}
	f := s.fragments[s.pos]
	s.pos++
	return f, nil
}

func (s *sliceSource) Close() error { return nil }

// Fragment is one item delivered over a channel Source. A non-nil Err ends
// the stream with that error.
type Fragment struct {
	Text string
	Err  error
}

// ChannelSource is a Source fed by a producer goroutine.
type ChannelSource struct {
	ch     <-chan Fragment
	once   sync.Once
	closed chan struct{}
}

// FromChannel returns a Source reading from ch until it is closed. The
// producer can watch Done to stop early after the consumer closed the Source.
func FromChannel(ch <-chan Fragment) *ChannelSource {
	return &ChannelSource{ch: ch, closed: make(chan struct{})}
}

// Done is closed once the consumer has closed the source.
func (s *ChannelSource) Done() <-chan struct{} {
	return s.closed
}

func (s *ChannelSource) Next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case f, ok := <-s.ch:
		if !ok {
			return "", io.EOF
		}
		if f.Err != nil {
			return "", f.Err
		}
		return f.Text, nil
	}
}

func (s *ChannelSource) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

type funcSource struct {
	next  func() (string, error)
	close func() error
}

// FromFunc adapts a pull function and an optional close function to a
// Source. Transports that decode a response body use it.
func FromFunc(next func() (string, error), closeFn func() error) Source {
	return &funcSource{next: next, close: closeFn}
}

func (s *funcSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.next()
}

func (s *funcSource) Close() error {
	if s.close == nil {
		return nil
	}
	c := s.close
	s.close = nil
	return c()
}
