package generate_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/screens/pkg/endpoint"
	"github.com/papercomputeco/screens/pkg/generate"
	"github.com/papercomputeco/screens/pkg/stream"
)

const threeScreens = `{"screens":[` +
	`{"name":"Home","description":"Landing","code":"<div class=\"h-screen\">home</div>"},` +
	`{"name":"List","description":"Items","code":"<ul><li>a</li></ul>"},` +
	`{"name":"Detail","description":"One item","code":"<section onclick=\"x()\">d</section>"}` +
	`]}`

func chunk(s string, n int) []string {
	var out []string
	for len(s) > n {
		out = append(out, s[:n])
		s = s[n:]
	}
	return append(out, s)
}

var _ = Describe("Service.Generate", func() {
	It("streams every screen and completes", func() {
		ep := &fakeEndpoint{name: "one", fragments: chunk(threeScreens, 7)}
		sink := &collectSink{accept: true}
		svc := generate.NewService([]endpoint.Endpoint{ep}, generate.WithSink(sink))

		var updates []generate.Update
		res := svc.Generate(context.Background(), generate.Request{Prompt: "a shop"}, func(u generate.Update) {
			updates = append(updates, u)
		})

		Expect(res.Outcome).To(Equal(stream.Completed))
		Expect(res.Err).NotTo(HaveOccurred())
		Expect(res.Failure).To(Equal(generate.FailureNone))
		Expect(res.Endpoint).To(Equal("one"))
		Expect(res.GenerationID).NotTo(BeEmpty())

		Expect(res.Screens).To(HaveLen(3))
		Expect(res.Screens[0].Name).To(Equal("Home"))
		Expect(res.Screens[0].Code).To(Equal(`<div class="h-full">home</div>`))
		Expect(res.Screens[2].Code).To(Equal("<section>d</section>"))
		for i, s := range res.Screens {
			Expect(s.Index).To(Equal(i))
			Expect(s.GenerationID).To(Equal(res.GenerationID))
			Expect(s.ID).NotTo(BeEmpty())
		}
		Expect(sink.screens).To(Equal(res.Screens))

		completes := 0
		ids := map[int]string{}
		for _, u := range updates {
			if prev, ok := ids[u.Index]; ok {
				Expect(u.ScreenID).To(Equal(prev))
			}
			ids[u.Index] = u.ScreenID
			if u.Complete {
				completes++
				Expect(u.Screen).NotTo(BeNil())
				Expect(u.Screen.ID).To(Equal(u.ScreenID))
			} else {
				Expect(u.Screen).To(BeNil())
			}
		}
		Expect(completes).To(Equal(3))
	})

	It("asks for the default count with the locked field order", func() {
		ep := &fakeEndpoint{name: "one", fragments: []string{threeScreens}}
		svc := generate.NewService([]endpoint.Endpoint{ep})

		svc.Generate(context.Background(), generate.Request{Prompt: "a shop", Platform: "mobile", Model: "m"}, nil)

		Expect(ep.requests).To(HaveLen(1))
		req := ep.requests[0]
		Expect(req.Model).To(Equal("m"))
		Expect(req.JSONMode).To(BeTrue())
		Expect(req.System).To(ContainSubstring(`"name", "description" and "code", written in that order`))
		Expect(req.Messages[0].GetText()).To(ContainSubstring("Generate 3 distinct screens"))
		Expect(req.Messages[0].GetText()).To(ContainSubstring("phone"))
	})

	It("caps the count", func() {
		ep := &fakeEndpoint{name: "one", fragments: []string{threeScreens}}
		svc := generate.NewService([]endpoint.Endpoint{ep})

		svc.Generate(context.Background(), generate.Request{Prompt: "p", Count: 100}, nil)
		Expect(ep.requests[0].Messages[0].GetText()).To(ContainSubstring("Generate 12 distinct"))
	})

	It("rejects an empty prompt without calling endpoints", func() {
		ep := &fakeEndpoint{name: "one"}
		svc := generate.NewService([]endpoint.Endpoint{ep})

		res := svc.Generate(context.Background(), generate.Request{}, nil)
		Expect(res.Outcome).To(Equal(stream.Failed))
		Expect(res.Failure).To(Equal(generate.FailureInvalid))
		Expect(res.Err).To(MatchError(generate.ErrEmptyPrompt))
		Expect(ep.calls).To(BeZero())
	})

	It("fails over to the third endpoint after seven attempts", func() {
		e1 := &fakeEndpoint{name: "e1", errs: []error{statusErr(429), statusErr(429), statusErr(429)}}
		e2 := &fakeEndpoint{name: "e2", errs: []error{statusErr(529), statusErr(529), statusErr(529)}}
		e3 := &fakeEndpoint{name: "e3", fragments: []string{threeScreens}}
		svc := generate.NewService([]endpoint.Endpoint{e1, e2, e3}, fastRetries())

		res := svc.Generate(context.Background(), generate.Request{Prompt: "p"}, nil)
		Expect(res.Outcome).To(Equal(stream.Completed))
		Expect(res.Endpoint).To(Equal("e3"))
		Expect(e1.calls + e2.calls + e3.calls).To(Equal(7))
		Expect(res.Screens).To(HaveLen(3))
	})

	It("reports exhaustion", func() {
		e1 := &fakeEndpoint{name: "e1", errs: []error{statusErr(503), statusErr(503), statusErr(503)}}
		svc := generate.NewService([]endpoint.Endpoint{e1}, fastRetries())

		res := svc.Generate(context.Background(), generate.Request{Prompt: "p"}, nil)
		Expect(res.Outcome).To(Equal(stream.Failed))
		Expect(res.Failure).To(Equal(generate.FailureExhausted))
		Expect(res.Failure.String()).To(Equal("exhausted_all_endpoints"))
	})

	It("reports fatal backend errors without fail-over", func() {
		e1 := &fakeEndpoint{name: "e1", errs: []error{statusErr(401)}}
		e2 := &fakeEndpoint{name: "e2", fragments: []string{threeScreens}}
		svc := generate.NewService([]endpoint.Endpoint{e1, e2}, fastRetries())

		res := svc.Generate(context.Background(), generate.Request{Prompt: "p"}, nil)
		Expect(res.Failure).To(Equal(generate.FailureFatal))
		Expect(e2.calls).To(BeZero())
	})

	It("keeps completed screens when the stream breaks", func() {
		ch := make(chan stream.Fragment, 3)
		first := threeScreens[:strings.Index(threeScreens, `{"name":"List"`)]
		ch <- stream.Fragment{Text: first}
		ch <- stream.Fragment{Text: `{"name":"List","description":"Ite`}
		ch <- stream.Fragment{Err: errors.New("connection reset")}
		ep := &fakeEndpoint{name: "one", source: stream.FromChannel(ch)}
		svc := generate.NewService([]endpoint.Endpoint{ep})

		res := svc.Generate(context.Background(), generate.Request{Prompt: "p"}, nil)
		Expect(res.Outcome).To(Equal(stream.Failed))
		Expect(res.Failure).To(Equal(generate.FailureStream))
		Expect(res.Err).To(MatchError("connection reset"))
		Expect(res.Screens).To(HaveLen(2))
		Expect(res.Screens[0].Truncated).To(BeFalse())
		Expect(res.Screens[1].Name).To(Equal("List"))
		Expect(res.Screens[1].Truncated).To(BeTrue())
	})

	It("reports cancellation as its own outcome", func() {
		ctx, cancel := context.WithCancel(context.Background())
		ch := make(chan stream.Fragment, 1)
		ch <- stream.Fragment{Text: `{"screens":[{"name":"A"`}
		ep := &fakeEndpoint{name: "one", source: stream.FromChannel(ch)}
		svc := generate.NewService([]endpoint.Endpoint{ep})

		var updates int
		res := svc.Generate(ctx, generate.Request{Prompt: "p"}, func(generate.Update) {
			updates++
			cancel()
		})

		Expect(res.Outcome).To(Equal(stream.Cancelled))
		Expect(res.Failure).To(Equal(generate.FailureNone))
		Expect(errors.Is(res.Err, context.Canceled)).To(BeTrue())
		Expect(updates).To(Equal(1))
		Expect(res.Screens).To(BeEmpty())
	})

	It("reports cancellation before the stream started", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		svc := generate.NewService([]endpoint.Endpoint{&fakeEndpoint{name: "one"}})

		res := svc.Generate(ctx, generate.Request{Prompt: "p"}, nil)
		Expect(res.Outcome).To(Equal(stream.Cancelled))
		Expect(res.Endpoint).To(BeEmpty())
	})

	It("still returns screens the sink refused", func() {
		sink := &collectSink{accept: false}
		ep := &fakeEndpoint{name: "one", fragments: []string{threeScreens}}
		svc := generate.NewService([]endpoint.Endpoint{ep}, generate.WithSink(sink))

		res := svc.Generate(context.Background(), generate.Request{Prompt: "p"}, nil)
		Expect(res.Screens).To(HaveLen(3))
		Expect(sink.screens).To(HaveLen(3))
	})
})

var _ = Describe("Classify", func() {
	It("maps nil to none", func() {
		Expect(generate.Classify(nil)).To(Equal(generate.FailureNone))
	})
})
