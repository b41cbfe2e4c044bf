package field

import (
	"encoding/base64"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// encodedWordOverhead is the length of "=?", "?b?" and "?=" that surround the
// charset and payload of an encoded-word.
const encodedWordOverhead = 7

const upperhex = "0123456789ABCDEF"

// qSafe reports whether c may appear unescaped in a Q-encoded word. Words
// inside a phrase or comment are held to the stricter rules of RFC 2047
// section 5.
func qSafe(c byte, phrase bool) bool {
	if phrase {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			return true
		}
		return strings.IndexByte("!*+-/", c) >= 0
	}
	return c > ' ' && c < 127 && c != '=' && c != '?' && c != '_'
}

func qLen(b []byte, phrase bool) int {
	n := 0
	for _, c := range b {
		if c == ' ' || qSafe(c, phrase) {
			n++
		} else {
			n += 3
		}
	}
	return n
}

func appendQ(dst, src []byte, phrase bool) []byte {
	for _, c := range src {
		switch {
		case c == ' ':
			dst = append(dst, '_')
		case qSafe(c, phrase):
			dst = append(dst, c)
		default:
			dst = append(dst, '=', upperhex[c>>4], upperhex[c&0x0f])
		}
	}
	return dst
}

func bLen(n int) int {
	return (n + 2) / 3 * 4
}

// segments splits s at normalization boundaries, so that no piece ends
// inside a multi-byte character or in front of a combining mark.
func segments(s string) []string {
	segs := make([]string, 0, len(s))
	for len(s) > 0 {
		n := norm.NFC.NextBoundaryInString(s, true)
		if n <= 0 || n > len(s) {
			n = len(s)
		}
		segs = append(segs, s[:n])
		s = s[n:]
	}
	return segs
}

// wordCharset picks the charset used to encode text.
func wordCharset(text string, fo *FormatOptions) string {
	if fo.AllowMixedHeaderCharsets {
		switch {
		case isASCII(text):
			return "us-ascii"
		case fitsLatin1(text):
			return "iso-8859-1"
		}
	}
	return fo.charset()
}

// encodeWords turns text into one or more RFC 2047 encoded-words. B or Q
// encoding is chosen, whichever is shorter for the whole text. Each word
// carries at most MaxLineLength - (len(charset) + 7) - 1 bytes of payload so
// that it fits on a continuation line of its own, and words are only ever
// split at normalization boundaries.
func encodeWords(text string, fo *FormatOptions, phrase bool) []string {
	cs := wordCharset(text, fo)
	data, err := fromUTF8(text, cs)
	if err != nil {
		cs = DefaultCharset
		data = []byte(text)
	}

	enc := byte('q')
	if bLen(len(data)) < qLen(data, phrase) {
		enc = 'b'
	}

	budget := fo.MaxLineLength - (len(cs) + encodedWordOverhead) - 1
	prefix := "=?" + cs + "?" + string(enc) + "?"

	var (
		words []string
		chunk []byte
		clen  int
	)

	flush := func() {
		if len(chunk) == 0 {
			return
		}

		var payload []byte
		if enc == 'b' {
			payload = make([]byte, base64.StdEncoding.EncodedLen(len(chunk)))
			base64.StdEncoding.Encode(payload, chunk)
		} else {
			payload = appendQ(make([]byte, 0, clen), chunk, phrase)
		}

		words = append(words, prefix+string(payload)+"?=")
		chunk, clen = nil, 0
	}

	for _, seg := range segments(text) {
		sb, err := fromUTF8(seg, cs)
		if err != nil {
			sb = []byte(seg)
		}

		var next int
		if enc == 'b' {
			next = bLen(len(chunk) + len(sb))
		} else {
			next = clen + qLen(sb, phrase)
		}

		if next > budget && len(chunk) > 0 {
			flush()
			if enc == 'b' {
				next = bLen(len(sb))
			} else {
				next = qLen(sb, phrase)
			}
		}

		chunk = append(chunk, sb...)
		clen = next
	}
	flush()

	return words
}

// looksEncoded returns true if s could be mistaken for an encoded-word by a
// reader, in which case it must be encoded itself to survive.
func looksEncoded(s string) bool {
	i := strings.Index(s, "=?")
	return i >= 0 && strings.Contains(s[i+2:], "?=")
}

// needsEncoding reports whether a word of unstructured text has to be turned
// into an encoded-word.
func needsEncoding(word string, fo *FormatOptions) bool {
	if looksEncoded(word) {
		return true
	}
	return !fo.International && !isASCII(word)
}

// encodePhrase returns the display name of an address in a form safe for
// output. Quoted ASCII phrases are left alone; anything needing encoding is
// unquoted first and then encoded as a whole.
func encodePhrase(p string, fo *FormatOptions) string {
	if !needsEncoding(p, fo) {
		return p
	}

	text := p
	if len(p) >= 2 && p[0] == '"' && p[len(p)-1] == '"' {
		text = unquote(p[1 : len(p)-1])
	}

	return strings.Join(encodeWords(text, fo, true), " ")
}

// encodeComments encodes the content of every top-level comment in s that
// needs it. Text outside comments is left as it is.
func encodeComments(s string, fo *FormatOptions) string {
	if !needsEncoding(s, fo) {
		return s
	}

	var b strings.Builder
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if depth > 0 {
				i++
			}
			continue
		case '(':
			depth++
			if depth == 1 {
				b.WriteString(s[start : i+1])
				start = i + 1
			}
		case ')':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				inner := s[start:i]
				if needsEncoding(inner, fo) {
					inner = strings.Join(encodeWords(unquote(inner), fo, true), " ")
				}
				b.WriteString(inner)
				start = i
			}
		}
	}
	b.WriteString(s[start:])
	return b.String()
}

// unquote removes backslash escapes.
func unquote(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
