package fallback

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExhausted is matched by every *ExhaustedError.
	ErrExhausted = errors.New("all endpoints exhausted")

	// ErrNoEndpoints is returned by Invoke for an empty chain.
	ErrNoEndpoints = errors.New("no endpoints configured")
)

// ExhaustedError is returned when every endpoint in the chain ran out of
// attempts on transient failures.
type ExhaustedError struct {
	Endpoints int
	Attempts  int

	// Last is the final transient error seen.
	Last error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d endpoints exhausted after %d attempts: %v", e.Endpoints, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrExhausted, e.Last}
}

// FatalError wraps a non-transient failure from a single endpoint.
type FatalError struct {
	Endpoint string
	Err      error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("endpoint %s: %v", e.Endpoint, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// transientStatuses are HTTP statuses backends use for overload and rate
// limiting. 529 is Anthropic's "overloaded".
var transientStatuses = map[int]bool{
	429: true,
	503: true,
	529: true,
}

var transientMessages = []string{
	"rate limit",
	"rate_limit",
	"too many requests",
	"overloaded",
	"resource exhausted",
	"resource_exhausted",
	"quota",
}

// IsTransient is the default classifier. An error is transient when it
// carries a rate limit or overload HTTP status, or when its message says so.
// Errors can also decide for themselves by implementing Transient() bool.
// Context cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil || isCancellation(err) {
		return false
	}

	var t interface{ Transient() bool }
	if errors.As(err, &t) {
		return t.Transient()
	}

	var s interface{ HTTPStatus() int }
	if errors.As(err, &s) && transientStatuses[s.HTTPStatus()] {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, m := range transientMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// TransientError marks an error as retryable regardless of its message.
type TransientError struct {
	Err error
}

// Transient wraps err so that IsTransient reports true for it.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

func (e *TransientError) Transient() bool { return true }
