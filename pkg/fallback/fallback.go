// Package fallback invokes an operation against an ordered chain of
// endpoints. Transient failures are retried with exponential backoff on the
// same endpoint and then fail over to the next one. Anything else stops the
// chain immediately.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/screens/pkg/logger"
)

const (
	DefaultAttempts     = 3
	DefaultInitialDelay = time.Second
)

// Options configures Invoke.
type Options struct {
	// Attempts is the number of tries spent on each endpoint before moving
	// to the next. Defaults to 3.
	Attempts int

	// InitialDelay is the wait after the first transient failure on an
	// endpoint. The n-th wait is InitialDelay * 2^n. Zero disables waiting.
	InitialDelay time.Duration

	// MaxDelay caps a single wait when set.
	MaxDelay time.Duration

	// Classify reports whether an error is worth retrying.
	// Defaults to IsTransient.
	Classify func(error) bool

	// Sleep waits for d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error

	Logger *slog.Logger
}

// DefaultOptions returns 3 attempts per endpoint starting at a one second
// backoff.
func DefaultOptions() Options {
	return Options{
		Attempts:     DefaultAttempts,
		InitialDelay: DefaultInitialDelay,
	}
}

func (o Options) withDefaults() Options {
	if o.Attempts <= 0 {
		o.Attempts = DefaultAttempts
	}
	if o.InitialDelay < 0 {
		o.InitialDelay = 0
	}
	if o.Classify == nil {
		o.Classify = IsTransient
	}
	if o.Sleep == nil {
		o.Sleep = sleep
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	return o
}

// Delay is the wait after the failure of the given zero-based attempt.
func (o Options) Delay(attempt int) time.Duration {
	if o.InitialDelay <= 0 {
		return 0
	}
	d := o.InitialDelay
	for range attempt {
		if o.MaxDelay > 0 && d >= o.MaxDelay {
			break
		}
		if d > time.Duration(1<<62) {
			break
		}
		d *= 2
	}
	if o.MaxDelay > 0 && d > o.MaxDelay {
		d = o.MaxDelay
	}
	return d
}

// Named can be implemented by endpoints to label log lines and errors.
type Named interface {
	Name() string
}

// Invoke runs op against each endpoint of chain in order and returns the
// first success.
//
//   - a transient failure is retried on the same endpoint up to
//     opts.Attempts times, waiting opts.Delay(attempt) in between;
//   - an endpoint that ran out of attempts hands over to the next one right
//     away, with a fresh attempt counter;
//   - a non-transient failure returns a *FatalError without touching the
//     rest of the chain;
//   - when every endpoint is exhausted the result is an *ExhaustedError.
//
// Cancellation of ctx is returned as is, also while waiting between attempts.
func Invoke[E any, T any](ctx context.Context, chain []E, op func(context.Context, E) (T, error), opts Options) (T, error) {
	var zero T
	opts = opts.withDefaults()

	if len(chain) == 0 {
		return zero, ErrNoEndpoints
	}

	var (
		last  error
		total int
	)

	for i, endpoint := range chain {
		name := endpointName(endpoint, i)

		for attempt := range opts.Attempts {
			if err := ctx.Err(); err != nil {
				return zero, err
			}

			total++
			res, err := op(ctx, endpoint)
			if err == nil {
				if total > 1 {
					opts.Logger.Info("endpoint call recovered",
						"endpoint", name,
						"attempts", total,
					)
				}
				return res, nil
			}

			if isCancellation(err) {
				return zero, err
			}

			if !opts.Classify(err) {
				opts.Logger.Debug("endpoint call failed, not retryable",
					"endpoint", name,
					"error", err,
				)
				return zero, &FatalError{Endpoint: name, Err: err}
			}

			last = err
			if attempt == opts.Attempts-1 {
				break
			}

			wait := opts.Delay(attempt)
			opts.Logger.Warn("transient endpoint failure, retrying",
				"endpoint", name,
				"attempt", attempt+1,
				"max_attempts", opts.Attempts,
				"backoff", wait,
				"error", err,
			)

			if err := opts.Sleep(ctx, wait); err != nil {
				return zero, err
			}
		}

		opts.Logger.Warn("endpoint exhausted",
			"endpoint", name,
			"attempts", opts.Attempts,
			"error", last,
		)
	}

	return zero, &ExhaustedError{
		Endpoints: len(chain),
		Attempts:  total,
		Last:      last,
	}
}

func endpointName(endpoint any, i int) string {
	if n, ok := endpoint.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("endpoint[%d]", i)
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
