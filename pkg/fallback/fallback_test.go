package fallback_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/screens/pkg/fallback"
)

var errRateLimited = errors.New("429 rate limit exceeded")

// fakeEndpoint fails its first failures calls with err, then succeeds.
type fakeEndpoint struct {
	name     string
	failures int
	err      error
	calls    int
}

func (f *fakeEndpoint) Name() string { return f.name }

func (f *fakeEndpoint) call(_ context.Context) (string, error) {
	f.calls++
	if f.failures < 0 || f.calls <= f.failures {
		return "", f.err
	}
	return "ok from " + f.name, nil
}

func callEndpoint(ctx context.Context, f *fakeEndpoint) (string, error) {
	return f.call(ctx)
}

type statusErr int

func (s statusErr) Error() string   { return "upstream failed" }
func (s statusErr) HTTPStatus() int { return int(s) }

var _ = Describe("Invoke", func() {
	var (
		ctx    context.Context
		sleeps []time.Duration
		opts   fallback.Options
	)

	BeforeEach(func() {
		ctx = context.Background()
		sleeps = nil
		opts = fallback.Options{
			Attempts:     3,
			InitialDelay: 100 * time.Millisecond,
			Sleep: func(ctx context.Context, d time.Duration) error {
				sleeps = append(sleeps, d)
				return ctx.Err()
			},
		}
	})

	It("returns the first success without retrying", func() {
		e := &fakeEndpoint{name: "a"}
		res, err := fallback.Invoke(ctx, []*fakeEndpoint{e}, callEndpoint, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal("ok from a"))
		Expect(e.calls).To(Equal(1))
		Expect(sleeps).To(BeEmpty())
	})

	It("retries a transient failure with exponential backoff", func() {
		e := &fakeEndpoint{name: "a", failures: 2, err: errRateLimited}
		res, err := fallback.Invoke(ctx, []*fakeEndpoint{e}, callEndpoint, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal("ok from a"))
		Expect(e.calls).To(Equal(3))
		Expect(sleeps).To(Equal([]time.Duration{100 * time.Millisecond, 200 * time.Millisecond}))
	})

	It("fails over with a fresh counter and no wait between endpoints", func() {
		e1 := &fakeEndpoint{name: "e1", failures: -1, err: errRateLimited}
		e2 := &fakeEndpoint{name: "e2", failures: -1, err: statusErr(503)}
		e3 := &fakeEndpoint{name: "e3"}

		res, err := fallback.Invoke(ctx, []*fakeEndpoint{e1, e2, e3}, callEndpoint, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal("ok from e3"))
		Expect(e1.calls).To(Equal(3))
		Expect(e2.calls).To(Equal(3))
		Expect(e3.calls).To(Equal(1))
		Expect(e1.calls + e2.calls + e3.calls).To(Equal(7))

		// Two waits per exhausted endpoint, none across the hand-over.
		Expect(sleeps).To(Equal([]time.Duration{
			100 * time.Millisecond, 200 * time.Millisecond,
			100 * time.Millisecond, 200 * time.Millisecond,
		}))
	})

	It("propagates a non-transient failure immediately", func() {
		boom := errors.New("invalid api key")
		e1 := &fakeEndpoint{name: "e1", failures: -1, err: boom}
		e2 := &fakeEndpoint{name: "e2"}

		_, err := fallback.Invoke(ctx, []*fakeEndpoint{e1, e2}, callEndpoint, opts)
		Expect(err).To(MatchError(boom))

		var fatal *fallback.FatalError
		Expect(errors.As(err, &fatal)).To(BeTrue())
		Expect(fatal.Endpoint).To(Equal("e1"))
		Expect(errors.Is(err, fallback.ErrExhausted)).To(BeFalse())
		Expect(e1.calls).To(Equal(1))
		Expect(e2.calls).To(BeZero())
	})

	It("reports exhaustion with the last transient error", func() {
		e1 := &fakeEndpoint{name: "e1", failures: -1, err: errRateLimited}
		e2 := &fakeEndpoint{name: "e2", failures: -1, err: statusErr(529)}

		_, err := fallback.Invoke(ctx, []*fakeEndpoint{e1, e2}, callEndpoint, opts)
		Expect(errors.Is(err, fallback.ErrExhausted)).To(BeTrue())

		var exhausted *fallback.ExhaustedError
		Expect(errors.As(err, &exhausted)).To(BeTrue())
		Expect(exhausted.Attempts).To(Equal(6))
		Expect(exhausted.Endpoints).To(Equal(2))
		Expect(exhausted.Last).To(Equal(statusErr(529)))
	})

	It("stops waiting when the context is cancelled during backoff", func() {
		cctx, cancel := context.WithCancel(ctx)
		opts.Sleep = func(ctx context.Context, d time.Duration) error {
			cancel()
			<-ctx.Done()
			return ctx.Err()
		}
		e1 := &fakeEndpoint{name: "e1", failures: -1, err: errRateLimited}
		e2 := &fakeEndpoint{name: "e2"}

		_, err := fallback.Invoke(cctx, []*fakeEndpoint{e1, e2}, callEndpoint, opts)
		Expect(err).To(MatchError(context.Canceled))
		Expect(e1.calls).To(Equal(1))
		Expect(e2.calls).To(BeZero())
	})

	It("cuts a real backoff short on cancellation", func() {
		opts.Sleep = nil
		opts.InitialDelay = time.Hour
		cctx, cancel := context.WithCancel(ctx)
		e := &fakeEndpoint{name: "e", failures: -1, err: errRateLimited}

		go func() {
			defer GinkgoRecover()
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		start := time.Now()
		_, err := fallback.Invoke(cctx, []*fakeEndpoint{e}, callEndpoint, opts)
		Expect(err).To(MatchError(context.Canceled))
		Expect(time.Since(start)).To(BeNumerically("<", 5*time.Second))
	})

	It("does not call anything when the context is already done", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		e := &fakeEndpoint{name: "e"}

		_, err := fallback.Invoke(cctx, []*fakeEndpoint{e}, callEndpoint, opts)
		Expect(err).To(MatchError(context.Canceled))
		Expect(e.calls).To(BeZero())
	})

	It("rejects an empty chain", func() {
		_, err := fallback.Invoke(ctx, []*fakeEndpoint{}, callEndpoint, opts)
		Expect(err).To(MatchError(fallback.ErrNoEndpoints))
	})

	It("honors a custom classifier", func() {
		opts.Classify = func(error) bool { return true }
		e := &fakeEndpoint{name: "e", failures: 1, err: errors.New("anything")}

		res, err := fallback.Invoke(ctx, []*fakeEndpoint{e}, callEndpoint, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal("ok from e"))
	})
})

var _ = Describe("Options.Delay", func() {
	It("doubles from the initial delay", func() {
		o := fallback.Options{InitialDelay: time.Second}
		Expect(o.Delay(0)).To(Equal(time.Second))
		Expect(o.Delay(1)).To(Equal(2 * time.Second))
		Expect(o.Delay(3)).To(Equal(8 * time.Second))
	})

	It("caps at the max delay", func() {
		o := fallback.Options{InitialDelay: time.Second, MaxDelay: 3 * time.Second}
		Expect(o.Delay(5)).To(Equal(3 * time.Second))
	})

	It("is zero without an initial delay", func() {
		Expect(fallback.Options{}.Delay(4)).To(BeZero())
	})
})

var _ = Describe("IsTransient", func() {
	DescribeTable("classification",
		func(err error, want bool) {
			Expect(fallback.IsTransient(err)).To(Equal(want))
		},
		Entry("nil", nil, false),
		Entry("429 status", statusErr(429), true),
		Entry("503 status", statusErr(503), true),
		Entry("529 status", statusErr(529), true),
		Entry("400 status", statusErr(400), false),
		Entry("rate limit message", errors.New("Rate limit reached for requests"), true),
		Entry("overloaded message", errors.New("overloaded_error: Overloaded"), true),
		Entry("quota message", errors.New("You exceeded your current quota"), true),
		Entry("resource exhausted status", errors.New("Error 429, Status: RESOURCE_EXHAUSTED"), true),
		Entry("auth failure", errors.New("401 unauthorized"), false),
		Entry("cancellation", context.Canceled, false),
		Entry("deadline", context.DeadlineExceeded, false),
		Entry("explicitly transient", fallback.Transient(errors.New("socket reset")), true),
	)
})
