// Package generate runs screen generations against an endpoint chain.
//
// A generation asks the first healthy endpoint for a streamed JSON document
// of screens and reports every screen progressively while the document is
// still arriving. Refine edits one existing screen with a single
// non-streaming completion.
package generate

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/screens/pkg/endpoint"
	"github.com/papercomputeco/screens/pkg/extract"
	"github.com/papercomputeco/screens/pkg/fallback"
	"github.com/papercomputeco/screens/pkg/llm"
	"github.com/papercomputeco/screens/pkg/logger"
	"github.com/papercomputeco/screens/pkg/stream"
)

const (
	// DefaultCount is the number of screens asked for when a request does
	// not say.
	DefaultCount = 3

	// MaxCount bounds the number of screens per generation.
	MaxCount = 12
)

// Request describes one generation.
type Request struct {
	Prompt   string `json:"prompt"`
	Count    int    `json:"count,omitempty"`
	Platform string `json:"platform,omitempty"`

	// Model overrides the configured model of every endpoint.
	Model string `json:"model,omitempty"`
}

// Result is the terminal state of a generation.
type Result struct {
	GenerationID string
	Outcome      stream.Outcome
	Failure      FailureKind
	Err          error

	// Endpoint names the endpoint that served the stream, if any did.
	Endpoint string

	// Screens holds the completed screens in emission order. They stay
	// valid when the generation later fails.
	Screens []*Screen

	Malformed []*extract.MalformedOutputError
}

// Service runs generations. It is safe for concurrent use; every call owns
// its own stream state.
type Service struct {
	endpoints   []endpoint.Endpoint
	fallback    fallback.Options
	placeholder string
	sink        Sink
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

// Option configures a Service.
type Option func(*Service)

// WithFallback sets the retry and fail-over policy.
func WithFallback(o fallback.Options) Option {
	return func(s *Service) {
		s.fallback = o
	}
}

// WithPlaceholder sets the code used for screens that ended before their
// code arrived.
func WithPlaceholder(p string) Option {
	return func(s *Service) {
		s.placeholder = p
	}
}

// WithSink hands every completed screen to sink.
func WithSink(sink Sink) Option {
	return func(s *Service) {
		s.sink = sink
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService returns a Service over the ordered endpoint chain.
func NewService(endpoints []endpoint.Endpoint, opts ...Option) *Service {
	s := &Service{
		endpoints: endpoints,
		fallback:  fallback.DefaultOptions(),
		logger:    logger.Nop(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fallback.Logger == nil {
		s.fallback.Logger = s.logger
	}
	return s
}

type acquired struct {
	src  stream.Source
	name string
}

// Generate runs one generation and calls emit for every update. It returns
// when the stream ends, fails or ctx is done.
func (s *Service) Generate(ctx context.Context, req Request, emit UpdateFunc) Result {
	res := Result{GenerationID: s.newID()}
	log := s.logger.With("generation_id", res.GenerationID)

	if req.Prompt == "" {
		return failed(res, ErrEmptyPrompt)
	}
	if req.Count <= 0 {
		req.Count = DefaultCount
	}
	if req.Count > MaxCount {
		req.Count = MaxCount
	}

	chat := &llm.ChatRequest{
		Model:    req.Model,
		System:   systemPrompt,
		Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, generationPrompt(req))},
		JSONMode: true,
	}

	log.Info("starting generation",
		"count", req.Count,
		"platform", req.Platform,
	)

	got, err := fallback.Invoke(ctx, s.endpoints, func(ctx context.Context, e endpoint.Endpoint) (acquired, error) {
		src, err := e.Stream(ctx, chat)
		if err != nil {
			return acquired{}, err
		}
		return acquired{src: src, name: e.Name()}, nil
	}, s.fallback)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			log.Debug("generation cancelled before the stream started")
			res.Outcome = stream.Cancelled
			res.Err = ctxErr
			return res
		}
		log.Error("could not start generation", "error", err)
		return failed(res, err)
	}
	res.Endpoint = got.name

	ids := map[int]string{}
	orch := stream.New(
		stream.WithExtractor(extract.New(extract.WithPlaceholder(s.placeholder))),
		stream.WithLogger(log),
	)

	run := orch.Run(ctx, got.src, func(e extract.Emission) {
		id, ok := ids[e.Index]
		if !ok {
			id = s.newID()
			ids[e.Index] = id
		}

		u := Update{
			GenerationID: res.GenerationID,
			ScreenID:     id,
			Index:        e.Index,
			Fields:       e.Fields,
			Complete:     e.Complete,
			Truncated:    e.Truncated,
		}

		if e.Complete {
			u.Screen = &Screen{
				ID:           id,
				GenerationID: res.GenerationID,
				Index:        e.Index,
				Name:         e.Fields.Name.Value(),
				Description:  e.Fields.Description.Value(),
				Code:         e.Fields.Code.Value(),
				Truncated:    e.Truncated,
				CreatedAt:    s.now().UTC(),
			}
			res.Screens = append(res.Screens, u.Screen)
			if s.sink != nil && !s.sink.Enqueue(u.Screen) {
				log.Warn("screen dropped by sink", "screen_id", id)
			}
		}

		if emit != nil {
			emit(u)
		}
	})

	res.Outcome = run.Outcome
	res.Err = run.Err
	res.Malformed = run.Malformed
	if run.Outcome == stream.Failed {
		res.Failure = FailureStream
	}

	log.Info("generation finished",
		"outcome", run.Outcome.String(),
		"endpoint", res.Endpoint,
		"screens", len(res.Screens),
		"truncated", run.Truncated,
		"malformed", len(run.Malformed),
	)

	return res
}

func failed(res Result, err error) Result {
	res.Outcome = stream.Failed
	res.Err = err
	res.Failure = Classify(err)
	return res
}
