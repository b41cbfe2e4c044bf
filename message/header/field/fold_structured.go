package field

import (
	"strings"

	"github.com/zostay/go-mimestream/message/header/param"
)

// splitList breaks s at each top-level sep, that is every sep not inside a
// quoted string, comment, or angle brackets. When groups is set, a sep between
// the colon and semicolon of an RFC 5322 group is not top-level either.
func splitList(s string, sep byte, groups bool) []string {
	var (
		parts   []string
		start   int
		quoted  bool
		depth   int
		angle   bool
		inGroup bool
	)

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && (quoted || depth > 0):
			i++
		case quoted:
			if c == '"' {
				quoted = false
			}
		case c == '(':
			depth++
		case depth > 0:
			if c == ')' {
				depth--
			}
		case c == '"':
			quoted = true
		case c == '<':
			angle = true
		case c == '>':
			angle = false
		case angle:
		case groups && c == ':':
			inGroup = true
		case groups && inGroup && c == ';':
			inGroup = false
		case c == sep && !inGroup:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}

	return append(parts, s[start:])
}

// topLevel returns the index of the first c in s outside of quotes, comments
// and angle brackets, or -1.
func topLevel(s string, c byte) int {
	var (
		quoted bool
		depth  int
		angle  bool
	)

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '\\' && (quoted || depth > 0):
			i++
		case quoted:
			if ch == '"' {
				quoted = false
			}
		case ch == '(':
			depth++
		case depth > 0:
			if ch == ')' {
				depth--
			}
		case ch == '"':
			quoted = true
		case ch == c && !angle:
			return i
		case ch == '<':
			angle = true
		case ch == '>':
			angle = false
		}
	}

	return -1
}

// foldAddresses folds an address list after the commas. Each address or group
// is placed whole.
func foldAddresses(f *folder, value string) {
	units := make([]string, 0, 4)
	for _, u := range splitList(value, ',', true) {
		if u = strings.Trim(u, " \t"); u != "" {
			units = append(units, u)
		}
	}

	for i, u := range units {
		u = encodeAddress(u, f.fo)
		if i < len(units)-1 {
			u += ","
		}
		f.add(" ", u, true)
	}
}

// encodeAddress encodes the display name of a mailbox or group, and any
// comments, as needed. The addr-spec is never changed.
func encodeAddress(u string, fo *FormatOptions) string {
	if !needsEncoding(u, fo) {
		return u
	}

	if colon := topLevel(u, ':'); colon >= 0 && strings.HasSuffix(u, ";") {
		name := strings.Trim(u[:colon], " \t")
		list := u[colon+1 : len(u)-1]

		var members []string
		for _, m := range splitList(list, ',', false) {
			if m = strings.Trim(m, " \t"); m != "" {
				members = append(members, encodeAddress(m, fo))
			}
		}

		return encodePhrase(name, fo) + ": " + strings.Join(members, ", ") + ";"
	}

	if lt := topLevel(u, '<'); lt > 0 {
		phrase := strings.Trim(u[:lt], " \t")
		if phrase != "" {
			return encodePhrase(phrase, fo) + " " + encodeComments(u[lt:], fo)
		}
	}

	return encodeComments(u, fo)
}

// foldIDs folds a list of message ids between the ids.
func foldIDs(f *folder, value string) {
	for _, id := range strings.Fields(value) {
		f.add(" ", id, true)
	}
}

// paramSegments splits value at its top-level semicolons, leaving each
// semicolon at the end of the segment before it. An empty segment at the end
// leaves the semicolon before it in place.
func paramSegments(value string) []string {
	parts := splitList(value, ';', false)
	segs := make([]string, 0, len(parts))
	for i, p := range parts {
		p = strings.Trim(p, " \t")
		last := i == len(parts)-1
		if last && p == "" {
			break
		}
		if !last {
			p += ";"
		}
		segs = append(segs, p)
	}
	return segs
}

// foldParams folds a parameterized field after the semicolons. A parameter too
// long to fit on a line of its own is continued using RFC 2231 sections, or,
// for signatures, split as the signature format permits.
func foldParams(f *folder, value string, k kind) {
	line := f.max - len(f.indent)

	for i, seg := range paramSegments(value) {
		if i == 0 || (f.width(seg) <= line && (k == kindSignature || !needsEncoding(seg, f.fo))) {
			f.add(" ", seg, true)
			continue
		}

		if k == kindSignature {
			tag, _, _ := strings.Cut(seg, "=")
			switch strings.TrimSpace(tag) {
			case "b", "bh":
				f.addSplit(" ", seg, cutAnywhere)
			case "h":
				f.addSplit(" ", seg, cutAfter(":"))
			case "z":
				f.addSplit(" ", seg, cutAfter("|"))
			default:
				f.add(" ", seg, true)
			}
			continue
		}

		foldParam(f, seg, line)
	}
}

// foldParam writes a single MIME parameter using RFC 2231 sections.
func foldParam(f *folder, seg string, line int) {
	semi := strings.HasSuffix(seg, ";")
	body := strings.TrimSuffix(seg, ";")

	name, value, ok := strings.Cut(body, "=")
	name = strings.Trim(name, " \t")
	if !ok || strings.Contains(name, "*") {
		f.add(" ", seg, true)
		return
	}

	value = strings.Trim(value, " \t")
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = unquote(value[1 : len(value)-1])
	}

	// the limit leaves room for the semicolon that follows each section
	var secs []string
	if f.fo.International || isASCII(value) {
		if f.width(body) <= line {
			secs = []string{body}
		}
	}
	if secs == nil {
		secs = param.Continue(name, value, line-1)
	}

	for i, s := range secs {
		if i < len(secs)-1 || semi {
			s += ";"
		}
		f.add(" ", s, true)
	}
}

// foldAuthResults folds an Authentication-Results style field after the
// semicolons. A result that cannot fit on a line of its own is folded between
// its words.
func foldAuthResults(f *folder, value string) {
	line := f.max - len(f.indent)
	for _, seg := range paramSegments(value) {
		if f.width(seg) <= line {
			f.add(" ", seg, true)
			continue
		}

		for j, w := range splitWords(seg) {
			switch {
			case j > 0:
				f.add(w.glue, w.text, w.glue == " ")
			case f.first:
				f.add(" ", w.text, false)
			default:
				if !f.fresh {
					f.newline()
				}
				f.write(w.text)
			}
		}
	}
}

// commandTokens splits a list command field into <uri>, (comment), quoted
// string and plain tokens. A comma directly after a token stays with it.
func commandTokens(value string) []word {
	var (
		ws []word
		i  int
	)

	for i < len(value) {
		j := i
		for j < len(value) && (value[j] == ' ' || value[j] == '\t') {
			j++
		}
		if j == len(value) {
			break
		}

		k := j
		switch value[j] {
		case '<':
			for k < len(value) && value[k] != '>' {
				k++
			}
			if k < len(value) {
				k++
			}
		case '(':
			depth := 0
			for ; k < len(value); k++ {
				if value[k] == '\\' {
					k++
					continue
				}
				if value[k] == '(' {
					depth++
				} else if value[k] == ')' {
					depth--
					if depth == 0 {
						k++
						break
					}
				}
			}
		case '"':
			for k++; k < len(value) && value[k] != '"'; k++ {
				if value[k] == '\\' {
					k++
				}
			}
			if k < len(value) {
				k++
			}
		default:
			for k < len(value) && strings.IndexByte(" \t<(,", value[k]) < 0 {
				k++
			}
			if k == j {
				k++
			}
		}

		if k > len(value) {
			k = len(value)
		}
		for k < len(value) && value[k] == ',' {
			k++
		}

		ws = append(ws, word{glue: value[i:j], text: value[j:k]})
		i = k
	}

	return ws
}

// foldCommand folds a list command field between its tokens. A comment that
// needs encoding is broken into encoded-words that may be folded between.
func foldCommand(f *folder, value string) {
	for _, w := range commandTokens(value) {
		breakable := w.glue == " "
		if !strings.HasPrefix(w.text, "(") || !needsEncoding(w.text, f.fo) {
			f.add(w.glue, w.text, breakable)
			continue
		}

		body := strings.TrimRight(w.text, ",")
		tail := w.text[len(body):]
		inner := body[1:]
		if strings.HasSuffix(inner, ")") {
			inner = inner[:len(inner)-1]
		}

		words := encodeWords(unquote(inner), f.fo, true)
		for j, ew := range words {
			if j == 0 {
				ew = "(" + ew
			}
			if j == len(words)-1 {
				ew += ")" + tail
			}
			if j == 0 {
				f.add(w.glue, ew, breakable)
			} else {
				f.add(" ", ew, true)
			}
		}
	}
}
