package extract

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// DecodeResult is the outcome of decoding a single string value out of a
// buffer that may not have fully arrived yet.
type DecodeResult struct {
	// Value is the decoded text so far. Escape sequences are translated.
	Value string

	// Next is the index just past the closing quote when Complete is true,
	// or len(buf) when the value is still open.
	Next int

	// Complete reports whether the closing quote has been seen.
	Complete bool
}

// StringDecoder decodes one quoted value from a growing, append-only buffer.
// Feeding it a longer version of the same buffer resumes where the previous
// call stopped: escape state and pending \u digits carry across calls, so a
// backslash that ended one fragment correctly escapes the first byte of the
// next.
type StringDecoder struct {
	pos   int
	value strings.Builder
	done  bool

	escaped bool

	// inHex is set while collecting the four digits of a \u escape.
	inHex bool
	hex   []byte

	// high is a pending UTF-16 high surrogate waiting for its low half.
	high rune
}

// NewStringDecoder returns a decoder positioned at buf[start], or nil when
// buf[start] is not an opening quote (including when it has not arrived yet).
func NewStringDecoder(buf string, start int) *StringDecoder {
	if start < 0 || start >= len(buf) || buf[start] != '"' {
		return nil
	}

	return &StringDecoder{
		pos: start + 1,
		hex: make([]byte, 0, 4),
	}
}

// DecodeString decodes the quoted value starting at buf[start]. It returns
// nil when buf[start] is not a quote, which callers treat as "not ready".
func DecodeString(buf string, start int) *DecodeResult {
	d := NewStringDecoder(buf, start)
	if d == nil {
		return nil
	}

	res := d.Feed(buf)
	return &res
}

// Feed consumes whatever part of buf the decoder has not seen yet.
// buf must be the same buffer (or an extension of it) passed previously.
func (d *StringDecoder) Feed(buf string) DecodeResult {
	for !d.done && d.pos < len(buf) {
		c := buf[d.pos]
		d.pos++

		switch {
		case d.inHex:
			if !isHexDigit(c) {
				// Not a valid \u escape: keep what was written literally and
				// reprocess this byte as ordinary input.
				d.inHex = false
				d.appendString("u" + string(d.hex))
				d.pos--
				continue
			}
			d.hex = append(d.hex, c)
			if len(d.hex) == 4 {
				d.inHex = false
				d.appendHex()
			}
		case d.escaped:
			d.escaped = false
			d.unescape(c)
		case c == '\\':
			d.escaped = true
		case c == '"':
			d.flushSurrogate()
			d.done = true
		default:
			d.flushSurrogate()
			d.value.WriteByte(c)
		}
	}

	return DecodeResult{
		Value:    d.Value(),
		Next:     d.pos,
		Complete: d.done,
	}
}

// Value returns the decoded text so far. While the value is open, a
// multibyte character whose trailing bytes have not arrived is held back.
func (d *StringDecoder) Value() string {
	v := d.value.String()
	if d.done {
		return v
	}
	return fullRunes(v)
}

// Complete reports whether the closing quote has been consumed.
func (d *StringDecoder) Complete() bool {
	return d.done
}

func (d *StringDecoder) unescape(c byte) {
	switch c {
	case 'n':
		d.appendByte('\n')
	case 't':
		d.appendByte('\t')
	case 'r':
		d.appendByte('\r')
	case 'b':
		d.appendByte('\b')
	case 'f':
		d.appendByte('\f')
	case 'u':
		d.inHex = true
		d.hex = d.hex[:0]
	default:
		// \" \\ \/ and anything unknown map to the character itself.
		d.appendByte(c)
	}
}

func (d *StringDecoder) appendHex() {
	var r rune
	for _, h := range d.hex {
		r = r<<4 | rune(hexValue(h))
	}
	d.hex = d.hex[:0]

	switch {
	case utf16.IsSurrogate(r) && r < 0xdc00:
		d.flushSurrogate()
		d.high = r
	case utf16.IsSurrogate(r):
		if d.high == 0 {
			d.value.WriteRune(utf8.RuneError)
			return
		}
		d.value.WriteRune(utf16.DecodeRune(d.high, r))
		d.high = 0
	default:
		d.flushSurrogate()
		d.value.WriteRune(r)
	}
}

func (d *StringDecoder) appendByte(c byte) {
	d.flushSurrogate()
	d.value.WriteByte(c)
}

func (d *StringDecoder) appendString(s string) {
	d.flushSurrogate()
	d.value.WriteString(s)
}

// flushSurrogate writes a replacement character for a high surrogate that
// was never followed by its low half.
func (d *StringDecoder) flushSurrogate() {
	if d.high != 0 {
		d.value.WriteRune(utf8.RuneError)
		d.high = 0
	}
}

// fullRunes trims an incomplete UTF-8 sequence from the end of s.
func fullRunes(s string) string {
	for i := len(s) - 1; i >= 0 && i >= len(s)-utf8.UTFMax; i-- {
		if utf8.RuneStart(s[i]) {
			if !utf8.FullRuneInString(s[i:]) {
				return s[:i]
			}
			return s
		}
	}
	return s
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexValue(c byte) byte {
	switch {
	case c >= 'a':
		return c - 'a' + 10
	case c >= 'A':
		return c - 'A' + 10
	default:
		return c - '0'
	}
}
