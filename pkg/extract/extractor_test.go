package extract_test

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/screens/pkg/extract"
)

const twoScreens = `{"screens": [
  {"name": "Login", "description": "Sign in \"now\"", "code": "<div class=\"p-4\">\n<h1>Hi</h1>\\</div>"},
  {"name":"Home","description":"Landing","code":"<main>café 😀</main>"}
]}`

type recorder struct {
	emissions []extract.Emission
}

func (r *recorder) emit(e extract.Emission) {
	r.emissions = append(r.emissions, e)
}

func (r *recorder) final() []extract.Emission {
	var out []extract.Emission
	for _, e := range r.emissions {
		if e.Complete {
			out = append(out, e)
		}
	}
	return out
}

// run feeds chunks one at a time and finishes the stream.
func run(x *extract.Extractor, chunks []string) (*recorder, extract.State) {
	rec := &recorder{}
	var (
		buf strings.Builder
		st  extract.State
	)
	for _, c := range chunks {
		buf.WriteString(c)
		st = x.Extract(buf.String(), st, rec.emit)
	}
	st = x.Finish(st, rec.emit)
	return rec, st
}

func split(s string, size int) []string {
	var out []string
	for len(s) > size {
		out = append(out, s[:size])
		s = s[size:]
	}
	return append(out, s)
}

var _ = Describe("Extractor", func() {
	var x *extract.Extractor

	BeforeEach(func() {
		x = extract.New()
	})

	Context("with a complete document in one fragment", func() {
		It("emits each record once, complete", func() {
			rec, st := run(x, []string{twoScreens})

			Expect(rec.emissions).To(HaveLen(2))
			Expect(rec.emissions[0].Index).To(Equal(0))
			Expect(rec.emissions[0].Complete).To(BeTrue())
			Expect(rec.emissions[0].Fields.Name).To(Equal(extract.Complete("Login")))
			Expect(rec.emissions[0].Fields.Description).To(Equal(extract.Complete(`Sign in "now"`)))
			Expect(rec.emissions[0].Fields.Code).To(Equal(extract.Complete("<div class=\"p-4\">\n<h1>Hi</h1>\\</div>")))

			Expect(rec.emissions[1].Index).To(Equal(1))
			Expect(rec.emissions[1].Fields.Code.Value()).To(Equal("<main>café 😀</main>"))
			Expect(st.Index).To(Equal(2))
			Expect(st.Malformed).To(BeEmpty())
		})

		It("decodes values exactly like encoding/json", func() {
			var doc struct {
				Screens []struct {
					Name        string `json:"name"`
					Description string `json:"description"`
					Code        string `json:"code"`
				} `json:"screens"`
			}
			Expect(json.Unmarshal([]byte(twoScreens), &doc)).To(Succeed())

			rec, _ := run(x, split(twoScreens, 3))
			final := rec.final()
			Expect(final).To(HaveLen(len(doc.Screens)))
			for i, s := range doc.Screens {
				Expect(final[i].Fields.Name.Value()).To(Equal(s.Name))
				Expect(final[i].Fields.Description.Value()).To(Equal(s.Description))
				Expect(final[i].Fields.Code.Value()).To(Equal(s.Code))
			}
		})
	})

	Context("with arbitrary fragment boundaries", func() {
		It("produces the same final records for every chunk size", func() {
			whole, _ := run(x, []string{twoScreens})

			for size := 1; size <= len(twoScreens); size++ {
				rec, st := run(x, split(twoScreens, size))
				Expect(rec.final()).To(Equal(whole.final()), "chunk size %d", size)
				Expect(st.Malformed).To(BeEmpty())
			}
		})

		It("keeps field states moving forward and values growing", func() {
			rec, _ := run(x, split(twoScreens, 1))

			last := map[int]extract.Emission{}
			for _, e := range rec.emissions {
				Expect(utf8.ValidString(e.Fields.Code.Value())).To(BeTrue(), "split character in %q", e.Fields.Code.Value())
				prev, seen := last[e.Index]
				if seen {
					Expect(prev.Complete).To(BeFalse(), "emission after completion for %d", e.Index)
					Expect(e.Fields.Code.Kind()).To(BeNumerically(">=", prev.Fields.Code.Kind()))
					Expect(e.Fields.Description.Kind()).To(BeNumerically(">=", prev.Fields.Description.Kind()))
					Expect(strings.HasPrefix(e.Fields.Code.Value(), prev.Fields.Code.Value())).To(BeTrue())
					Expect(strings.HasPrefix(e.Fields.Description.Value(), prev.Fields.Description.Value())).To(BeTrue())
				}
				last[e.Index] = e
			}
			Expect(last).To(HaveLen(2))
		})

		It("assigns indices in order without gaps", func() {
			rec, _ := run(x, split(twoScreens, 7))

			next := 0
			for _, e := range rec.final() {
				Expect(e.Index).To(Equal(next))
				next++
			}
			Expect(next).To(Equal(2))
		})

		It("never reads a split escaped quote as the end of the code", func() {
			doc := `{"screens":[{"name":"A","code":"x\`
			rec := &recorder{}
			st := x.Extract(doc, extract.State{}, rec.emit)
			Expect(rec.emissions).To(HaveLen(1))
			Expect(rec.emissions[0].Fields.Code).To(Equal(extract.Partial("x")))

			doc += `"y"}]}`
			st = x.Extract(doc, st, rec.emit)
			Expect(rec.emissions).To(HaveLen(2))
			Expect(rec.emissions[1].Complete).To(BeTrue())
			Expect(rec.emissions[1].Fields.Code).To(Equal(extract.Complete(`x"y`)))
			Expect(st.Index).To(Equal(1))
		})
	})

	Context("with a stream still in flight", func() {
		It("emits nothing until the name is complete", func() {
			rec := &recorder{}
			st := x.Extract(`{"screens":[{"name":"Log`, extract.State{}, rec.emit)
			Expect(rec.emissions).To(BeEmpty())
			Expect(st.InContainer()).To(BeTrue())
			Expect(st.InFlight()).To(BeTrue())
		})

		It("emits a pending code once the name has arrived", func() {
			rec := &recorder{}
			x.Extract(`{"screens":[{"name":"Login","descr`, extract.State{}, rec.emit)
			Expect(rec.emissions).To(HaveLen(1))
			Expect(rec.emissions[0].Fields.Name).To(Equal(extract.Complete("Login")))
			Expect(rec.emissions[0].Fields.Description.IsPending()).To(BeTrue())
			Expect(rec.emissions[0].Fields.Code.IsPending()).To(BeTrue())
			Expect(rec.emissions[0].Complete).To(BeFalse())
		})

		It("does not repeat an identical partial emission", func() {
			rec := &recorder{}
			buf := `{"screens":[{"name":"Login","code":"<div`
			st := x.Extract(buf, extract.State{}, rec.emit)
			st = x.Extract(buf, st, rec.emit)
			x.Extract(buf, st, rec.emit)
			Expect(rec.emissions).To(HaveLen(1))
			Expect(rec.emissions[0].Fields.Code).To(Equal(extract.Partial("<div")))
		})

		It("waits for the container before scanning", func() {
			rec := &recorder{}
			st := x.Extract(`{"name":"stray","scree`, extract.State{}, rec.emit)
			Expect(rec.emissions).To(BeEmpty())
			Expect(st.InContainer()).To(BeFalse())
		})

		It("uses an empty description when none precedes the code", func() {
			rec, _ := run(x, []string{`{"screens":[{"name":"A","code":"<p/>"}]}`})
			Expect(rec.emissions).To(HaveLen(1))
			Expect(rec.emissions[0].Fields.Description).To(Equal(extract.Complete("")))
		})
	})

	Context("at the end of the stream", func() {
		It("finalizes partial code with the placeholder", func() {
			rec, st := run(x, []string{`{"screens":[{"name":"A","description":"d","code":"<div>hel`})

			final := rec.final()
			Expect(final).To(HaveLen(1))
			Expect(final[0].Truncated).To(BeTrue())
			Expect(final[0].Fields.Code.Value()).To(Equal("<div>hel" + extract.DefaultPlaceholder))
			Expect(final[0].Fields.Description).To(Equal(extract.Complete("d")))
			Expect(st.InFlight()).To(BeFalse())
		})

		It("finalizes a pending code with the placeholder alone", func() {
			rec, _ := run(x, []string{`{"screens":[{"name":"A","description":"d`})

			final := rec.final()
			Expect(final).To(HaveLen(1))
			Expect(final[0].Fields.Code.Value()).To(Equal(extract.DefaultPlaceholder))
			Expect(final[0].Fields.Description).To(Equal(extract.Complete("d")))
		})

		It("drops a record whose name never completed", func() {
			rec, st := run(x, []string{`{"screens":[{"name":"A","code":"x"},{"name":"B`})
			Expect(rec.final()).To(HaveLen(1))
			Expect(st.Index).To(Equal(1))
		})

		It("honors a custom placeholder", func() {
			x = extract.New(extract.WithPlaceholder("<!-- cut -->"))
			rec, _ := run(x, []string{`{"screens":[{"name":"A","code":"ab`})
			Expect(rec.final()[0].Fields.Code.Value()).To(Equal("ab<!-- cut -->"))
		})
	})

	Context("with a producer that breaks the key order", func() {
		It("skips a code value that precedes its name", func() {
			doc := `{"screens":[{"code":"<orphan/>","name":"A","code":"<a/>"}]}`
			rec, st := run(x, split(doc, 5))

			Expect(rec.final()).To(HaveLen(1))
			Expect(rec.final()[0].Index).To(Equal(0))
			Expect(rec.final()[0].Fields.Code.Value()).To(Equal("<a/>"))
			Expect(st.Malformed).To(HaveLen(1))
			Expect(errors.Is(st.Malformed[0], extract.ErrMalformedOutput)).To(BeTrue())
		})

		It("finalizes a record when the next name arrives before its code", func() {
			doc := `{"screens":[{"name":"A","description":"x"},{"name":"B","code":"<b/>"}]}`
			rec, st := run(x, []string{doc})

			final := rec.final()
			Expect(final).To(HaveLen(2))
			Expect(final[0].Truncated).To(BeTrue())
			Expect(final[0].Fields.Code.Value()).To(Equal(extract.DefaultPlaceholder))
			Expect(final[0].Fields.Description).To(Equal(extract.Complete("x")))
			Expect(final[1].Fields.Name.Value()).To(Equal("B"))
			Expect(final[1].Truncated).To(BeFalse())
			Expect(st.Malformed).To(HaveLen(1))
		})

		It("records a non-string code and continues", func() {
			doc := `{"screens":[{"name":"A","code":42},{"name":"B","code":"<b/>"}]}`
			rec, st := run(x, []string{doc})

			final := rec.final()
			Expect(final).To(HaveLen(2))
			Expect(final[0].Truncated).To(BeTrue())
			Expect(final[1].Fields.Code).To(Equal(extract.Complete("<b/>")))
			Expect(st.Malformed).To(HaveLen(1))
			Expect(st.Malformed[0].Index).To(Equal(0))
		})

		It("skips a non-string name", func() {
			doc := `{"screens":[{"name":7},{"name":"B","code":"<b/>"}]}`
			rec, st := run(x, []string{doc})

			Expect(rec.final()).To(HaveLen(1))
			Expect(rec.final()[0].Index).To(Equal(0))
			Expect(st.Malformed).To(HaveLen(1))
		})
	})

	Context("with a custom schema", func() {
		It("scans the configured keys", func() {
			x = extract.New(extract.WithSchema(extract.Schema{Container: "pages", Code: "html"}))
			rec, _ := run(x, []string{`{"pages":[{"name":"A","html":"<p/>"}]}`})
			Expect(rec.final()).To(HaveLen(1))
			Expect(rec.final()[0].Fields.Code.Value()).To(Equal("<p/>"))
		})
	})
})

var _ = Describe("FindKey", func() {
	It("treats a key without its colon as not found", func() {
		_, ok := extract.FindKey(`{"name"`, 0, "name")
		Expect(ok).To(BeFalse())
	})

	It("treats a key without its value as not found", func() {
		_, ok := extract.FindKey(`{"name" : `, 0, "name")
		Expect(ok).To(BeFalse())
	})

	It("skips a string value that looks like the key", func() {
		m, ok := extract.FindKey(`{"kind":"name","name":"x"}`, 0, "name")
		Expect(ok).To(BeTrue())
		Expect(m.Start).To(Equal(15))
		Expect(m.Value).To(Equal(22))
	})
})
