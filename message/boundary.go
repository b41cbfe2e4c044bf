package message

import (
	"bytes"
	"math/rand"
	"strings"
)

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

// GenerateBoundary will generate a random MIME boundary that is probably unique
// in most circumstances.
func GenerateBoundary() string {
	s := make([]rune, 30)
	for i := range s {
		s[i] = letters[rand.Intn(len(letters))]
	}
	return string(s)
}

// GenerateSafeBoundary will generate a random MIME boundary that is guaranteed
// to be safe with the given corpus of data. Use this when you want to generate
// a boundary for a known set of parts:
//
//	boundary := message.GenerateSafeBoundary(strings.Join(parts, ""))
//
// using this is likely to be total overkill, but in case you're paranoid.
func GenerateSafeBoundary(contents string) string {
	for {
		boundary := GenerateBoundary()
		if !strings.Contains(contents, boundary) {
			return boundary
		}
	}
}

// isSpace is true for the horizontal whitespace permitted after a boundary.
func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

// matchBoundary checks a line without its terminator against a delimiter,
// which is the boundary prefixed with "--". The line matches when it is the
// delimiter, optionally followed by "--" to make it the close delimiter, and
// then nothing but spaces and tabs.
func matchBoundary(line, delim []byte) (final, ok bool) {
	if !bytes.HasPrefix(line, delim) {
		return false, false
	}

	rest := line[len(delim):]
	if bytes.HasPrefix(rest, []byte("--")) {
		final = true
		rest = rest[2:]
	}

	for _, c := range rest {
		if !isSpace(c) {
			return false, false
		}
	}

	return final, true
}

// normalizeDelimiter removes the whitespace between the boundary token of a
// raw delimiter and its line terminator.
func normalizeDelimiter(raw []byte) []byte {
	end := len(raw)
	for end > 0 && (raw[end-1] == '\n' || raw[end-1] == '\r') {
		end--
	}

	trim := end
	for trim > 0 && isSpace(raw[trim-1]) {
		trim--
	}
	if trim == end {
		return raw
	}

	d := make([]byte, 0, len(raw)-(end-trim))
	d = append(d, raw[:trim]...)
	return append(d, raw[end:]...)
}

// isMarker returns true for a line that looks like an mbox "From " marker.
// With strict set, the line must also hold a four digit year, which is what
// tells a marker apart from a line of text that happens to start with
// "From ".
func isMarker(line []byte, strict bool) bool {
	if !bytes.HasPrefix(line, []byte("From ")) || len(line) == 5 {
		return false
	}

	// "From :" is a header field with space before the colon
	if c := line[5]; c == ' ' || c == '\t' || c == ':' {
		return false
	}

	if !strict {
		return true
	}

	for _, tok := range bytes.Fields(line[5:]) {
		if len(tok) != 4 {
			continue
		}

		year := true
		for _, c := range tok {
			if c < '0' || c > '9' {
				year = false
				break
			}
		}
		if year {
			return true
		}
	}

	return false
}
