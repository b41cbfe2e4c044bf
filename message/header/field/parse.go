package field

// Line represents the unparsed content for a complete header field, including
// any continuation lines and every line terminator.
type Line []byte

// Lines represents the unparsed content for zero or more header fields.
type Lines []Line

// ParseLines splits a header block into Lines. The input is expected to hold
// only the header, without the blank line that separates it from the body.
// Any of CRLF, LF, or a bare CR ends a physical line.
//
// A physical line starting with a space or tab continues the field before it.
// Every other line starts a new field, even one without a colon, so that junk
// in the header is kept as a field of its own and flagged as invalid when
// parsed rather than being glued onto a neighbor. A continuation line at the
// very start of the block also becomes a field of its own for the same
// reason.
func ParseLines(m []byte) Lines {
	h := make(Lines, 0, len(m)/40+1)
	start := -1
	for i := 0; i < len(m); {
		n := lineLen(m[i:])
		if start < 0 || (m[i] != ' ' && m[i] != '\t') {
			if start >= 0 {
				h = append(h, Line(m[start:i:i]))
			}
			start = i
		}
		i += n
	}
	if start >= 0 {
		h = append(h, Line(m[start:len(m):len(m)]))
	}
	return h
}

// lineLen returns the length of the first physical line of m, including its
// terminator.
func lineLen(m []byte) int {
	for i, c := range m {
		switch c {
		case '\n':
			return i + 1
		case '\r':
			if i+1 < len(m) && m[i+1] == '\n' {
				return i + 2
			}
			return i + 1
		}
	}
	return len(m)
}

// validName returns true if every byte of n is printable ASCII other than
// the colon, which is what RFC 5322 permits in a field name.
func validName(n []byte) bool {
	if len(n) == 0 {
		return false
	}
	for _, c := range n {
		if c < 33 || c > 126 || c == ':' {
			return false
		}
	}
	return true
}

// splitRaw finds the colon and the name of a raw field. The name has any
// whitespace before the colon removed, which RFC 822 allowed.
func splitRaw(raw []byte) (name []byte, colon int, valid bool) {
	colon = -1
	for i, c := range raw {
		if c == ':' {
			colon = i
			break
		}
		if c == '\r' || c == '\n' {
			break
		}
	}

	if colon < 0 {
		return nil, -1, false
	}

	name = raw[:colon]
	end := len(name)
	for end > 0 && (name[end-1] == ' ' || name[end-1] == '\t') {
		end--
	}
	name = name[:end]

	return name, colon, validName(name)
}

// trimEnding returns raw without its final line terminator.
func trimEnding(raw []byte) []byte {
	n := len(raw)
	if n > 0 && raw[n-1] == '\n' {
		n--
		if n > 0 && raw[n-1] == '\r' {
			n--
		}
		return raw[:n]
	}
	if n > 0 && raw[n-1] == '\r' {
		return raw[:n-1]
	}
	return raw
}
