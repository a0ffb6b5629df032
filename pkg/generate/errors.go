package generate

import (
	"errors"

	"github.com/papercomputeco/screens/pkg/fallback"
)

var (
	// ErrEmptyPrompt is returned for a request without a prompt.
	ErrEmptyPrompt = errors.New("prompt is required")

	// ErrEmptyInstruction is returned for a refine request without an instruction.
	ErrEmptyInstruction = errors.New("instruction is required")

	// ErrNoScreen is returned when a refine reply holds no usable screen.
	ErrNoScreen = errors.New("reply does not contain a screen")
)

// FailureKind tells the host why a generation failed.
type FailureKind uint8

const (
	// FailureNone is reported for completed and cancelled generations.
	FailureNone FailureKind = iota

	// FailureInvalid is a request rejected before any endpoint was called.
	FailureInvalid

	// FailureExhausted means every endpoint of the chain kept failing
	// with transient errors.
	FailureExhausted

	// FailureFatal is a non-retryable backend error.
	FailureFatal

	// FailureStream is a transport error after the stream had started.
	FailureStream
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureInvalid:
		return "invalid_request"
	case FailureExhausted:
		return "exhausted_all_endpoints"
	case FailureFatal:
		return "fatal_backend_error"
	case FailureStream:
		return "stream_error"
	default:
		return "unknown"
	}
}

// Classify maps an acquisition error to a FailureKind.
func Classify(err error) FailureKind {
	var fatal *fallback.FatalError
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrEmptyPrompt), errors.Is(err, ErrEmptyInstruction):
		return FailureInvalid
	case errors.Is(err, fallback.ErrExhausted):
		return FailureExhausted
	case errors.As(err, &fatal), errors.Is(err, fallback.ErrNoEndpoints):
		return FailureFatal
	default:
		return FailureStream
	}
}
