// Package stream drives one generation: it pulls fragments from a Source,
// extracts records as they become visible, sanitizes their code and hands
// the emissions to the host.
package stream

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/papercomputeco/screens/pkg/extract"
	"github.com/papercomputeco/screens/pkg/logger"
	"github.com/papercomputeco/screens/pkg/sanitize"
)

// Outcome is how a run ended.
type Outcome uint8

const (
	// Completed means the source ended normally.
	Completed Outcome = iota

	// Cancelled means the caller's context ended the run. It is never a
	// failure.
	Cancelled

	// Failed means the source returned an error.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	default:
		return "failed"
	}
}

// Result summarizes a run.
type Result struct {
	Outcome Outcome

	// Err is the source error when Outcome is Failed, or the context error
	// when it is Cancelled.
	Err error

	// Records counts completed emissions, Truncated those among them that
	// were finalized with a placeholder.
	Records   int
	Truncated int

	Malformed []*extract.MalformedOutputError

	Fragments int
	Bytes     int
}

// Orchestrator is safe for concurrent use; every Run keeps its own state.
type Orchestrator struct {
	extractor *extract.Extractor
	sanitize  func(string) string
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithExtractor overrides the default extractor.
func WithExtractor(x *extract.Extractor) Option {
	return func(o *Orchestrator) {
		o.extractor = x
	}
}

// WithSanitizer overrides sanitize.Sanitize. A nil fn disables sanitizing.
func WithSanitizer(fn func(string) string) Option {
	return func(o *Orchestrator) {
		o.sanitize = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// New returns an Orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		extractor: extract.New(),
		sanitize:  sanitize.Sanitize,
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run consumes src until it ends, fails or ctx is done, and closes it.
//
// ctx is checked before each fragment is processed. Once it is done nothing
// more is emitted, including the end-of-stream finalization. When src fails,
// records already started are finalized before Run returns; emissions made
// before the failure stay valid.
func (o *Orchestrator) Run(ctx context.Context, src Source, emit extract.EmitFunc) Result {
	defer func() {
		if err := src.Close(); err != nil {
			o.logger.Debug("closing stream source", "error", err)
		}
	}()

	var (
		buf strings.Builder
		st  extract.State
		res Result
	)

	f := &forwarder{emit: emit, sanitize: o.sanitize, result: &res}

	for {
		if err := ctx.Err(); err != nil {
			return o.cancelled(res, st, err)
		}

		frag, err := src.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				st = o.extractor.Finish(st, f.forward)
				res.Outcome = Completed
				res.Malformed = st.Malformed
				o.logger.Debug("generation stream completed",
					"records", res.Records,
					"truncated", res.Truncated,
					"fragments", res.Fragments,
					"bytes", res.Bytes,
				)
				return res
			case ctx.Err() != nil:
				return o.cancelled(res, st, ctx.Err())
			default:
				st = o.extractor.Finish(st, f.forward)
				res.Outcome = Failed
				res.Err = err
				res.Malformed = st.Malformed
				o.logger.Warn("generation stream failed",
					"records", res.Records,
					"fragments", res.Fragments,
					"error", err,
				)
				return res
			}
		}

		// The context may have ended while waiting for this fragment.
		if err := ctx.Err(); err != nil {
			return o.cancelled(res, st, err)
		}

		res.Fragments++
		res.Bytes += len(frag)
		if frag == "" {
			continue
		}

		buf.WriteString(frag)
		st = o.extractor.Extract(buf.String(), st, f.forward)
	}
}

func (o *Orchestrator) cancelled(res Result, st extract.State, err error) Result {
	res.Outcome = Cancelled
	res.Err = err
	res.Malformed = st.Malformed
	o.logger.Debug("generation stream cancelled",
		"records", res.Records,
		"fragments", res.Fragments,
	)
	return res
}

// forwarder sanitizes emissions and drops partial snapshots that look the
// same as the previous one after sanitizing.
type forwarder struct {
	emit     extract.EmitFunc
	sanitize func(string) string
	result   *Result

	last    extract.Emission
	hasLast bool
}

func (f *forwarder) forward(e extract.Emission) {
	if f.sanitize != nil {
		e.Fields.Code = e.Fields.Code.WithValue(f.sanitize(e.Fields.Code.Value()))
	}

	if !e.Complete && f.hasLast && e == f.last {
		return
	}
	f.last = e
	f.hasLast = true

	if e.Complete {
		f.result.Records++
		if e.Truncated {
			f.result.Truncated++
		}
	}

	if f.emit != nil {
		f.emit(e)
	}
}
