package sanitize_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/screens/pkg/sanitize"
)

var _ = Describe("Sanitize", func() {
	DescribeTable("rewrites",
		func(in, want string) {
			Expect(sanitize.Sanitize(in)).To(Equal(want))
		},
		Entry("script block", `<p>a</p><script>alert(1)</script><p>b</p>`, `<p>a</p><p>b</p>`),
		Entry("script block spanning lines", "<div><SCRIPT type=\"module\">\nx()\n</script ></div>", `<div></div>`),
		Entry("unterminated script", `<p>a</p><script>alert(`, `<p>a</p>`),
		Entry("double quoted handler", `<button onclick="go()">Go</button>`, `<button>Go</button>`),
		Entry("single quoted handler", `<img src="a.png" onerror='x()'>`, `<img src="a.png">`),
		Entry("unquoted handler", `<body onload=init()>`, `<body>`),
		Entry("jsx handler", `<button onClick={() => go()}>Go</button>`, `<button>Go</button>`),
		Entry("javascript url", `<a href="javascript:alert(1)">x</a>`, `<a href="#alert(1)">x</a>`),
		Entry("vbscript url", `<a href="VBScript:msg">x</a>`, `<a href="#msg">x</a>`),
		Entry("trailing incomplete tag", `<div><p>hello</p><div cla`, `<div><p>hello</p>`),
		Entry("trailing incomplete closing tag", `<p>hello</`, `<p>hello</`),
		Entry("closing tag missing its bracket", `<div>x</div`, `<div>x</div`),
		Entry("bare trailing tag name", `<p>a</p><div`, `<p>a</p><div`),
		Entry("half-arrived handler", `<p>a</p><button onclick="go(`, `<p>a</p>`),
		Entry("half-arrived script tag", `<p>a</p><scr`, `<p>a</p>`),
		Entry("several handlers on one tag", `<a onclick="a()" onmouseover='b()' href="/x">x</a>`, `<a href="/x">x</a>`),
		Entry("handler-like text outside a tag", `<p>Set online=true</p>`, `<p>Set online=true</p>`),
		Entry("100vh", `<div style="height:100vh">`, `<div style="height:100%">`),
		Entry("dynamic viewport units", `min-height: 100dvh; height: 100svh; max-height: 100lvh`, `min-height: 100%; height: 100%; max-height: 100%`),
		Entry("h-screen", `<div class="h-screen w-screen">`, `<div class="h-full w-full">`),
		Entry("min-h-screen", `<div class="min-h-screen max-h-screen md:h-screen">`, `<div class="min-h-full max-h-full md:h-full">`),
		Entry("nothing to do", `<main class="p-4">Hi</main>`, `<main class="p-4">Hi</main>`),
		Entry("empty", ``, ``),
	)

	It("leaves text that only mentions handlers alone", func() {
		in := `<p>Turn the lights on = off, don't script: anything</p>`
		Expect(sanitize.Sanitize(in)).To(Equal(in))
	})

	It("is idempotent", func() {
		inputs := []string{
			`<div onclick="a()" class="h-screen"><script>x</script><a href="javascript:javascript:x">y</a></div><sp`,
			`<scr<script>ipt>alert(1)</script>`,
			`<a<b<c`,
			`javajavascript:script:x`,
		}
		for _, in := range inputs {
			once := sanitize.Sanitize(in)
			Expect(sanitize.Sanitize(once)).To(Equal(once), in)
		}
	})

	It("keeps prefixes of a document stable", func() {
		doc := `<div class="min-h-screen p-4"><h1 class="text-xl">Title</h1><button onclick="go()">Go</button><script>track()</script><p>End</p></div>`
		full := sanitize.Sanitize(doc)

		for i := range len(doc) {
			part := sanitize.Sanitize(doc[:i])
			Expect(strings.HasPrefix(full, part)).To(BeTrue(), "prefix %q -> %q", doc[:i], part)
		}
	})
})
