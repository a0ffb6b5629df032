// Package sanitize neutralizes unsafe constructs in generated markup before
// it reaches a preview surface.
//
// Sanitize is applied to every emission, including partial ones, so its
// rules are written to work on truncated input: Sanitize of a prefix of a
// document is a prefix of Sanitize of the whole document in the common
// cases (a script or an opening tag cut inside its attributes is dropped
// rather than kept).
package sanitize

import "regexp"

// rule is a single rewrite.
type rule struct {
	re   *regexp.Regexp
	repl string
}

var rules = []rule{
	// Complete script blocks.
	{regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`), ""},

	// A script that has not been closed yet runs to the end of the input.
	{regexp.MustCompile(`(?is)<script\b.*$`), ""},

	// Inline event handlers inside a tag: onclick="..", onload='..',
	// onerror=alert(1), and JSX style onClick={...}. One handler per pass;
	// Sanitize repeats until none is left.
	{regexp.MustCompile(`(?i)(<[a-zA-Z][^<>]*?)\s+on[a-z]+\s*=\s*(?:"[^"]*"|'[^']*'|\{[^{}]*\}|[^\s>"'{}]+)`), "${1}"},

	// Script URL schemes.
	{regexp.MustCompile(`(?i)(?:java|vb)script\s*:`), "#"},

	// An opening tag cut off inside its attributes, where a half-arrived
	// handler or URL could sit. A bare tag name such as "<div" or a closing
	// fragment such as "</div" is kept.
	{regexp.MustCompile(`<[a-zA-Z][^<>]*\s[^<>]*$`), ""},

	// The start of a script tag cut off by the end of a partial payload.
	{regexp.MustCompile(`(?i)<s(?:c(?:r(?:i(?:p)?)?)?)?$`), ""},

	// Viewport-relative heights break inside an embedded preview frame.
	{regexp.MustCompile(`\b100[dsl]?vh\b`), "100%"},
	{regexp.MustCompile(`\b((?:min-|max-)?h)-screen\b`), "${1}-full"},
	{regexp.MustCompile(`\b((?:min-|max-)?w)-screen\b`), "${1}-full"},
}

// Sanitize returns code with scripts, inline handlers, script URLs and
// trailing half-written opening tags removed, and viewport sizing rewritten for a
// contained preview. Rules are applied until nothing changes, so Sanitize is
// idempotent. Every rewrite shortens the input, which bounds the loop.
func Sanitize(code string) string {
	for {
		out := apply(code)
		if out == code {
			return out
		}
		code = out
	}
}

func apply(s string) string {
	for _, r := range rules {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return s
}
