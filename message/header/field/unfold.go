package field

// Unfold reverses folding. Each line terminator (CRLF, LF or a bare CR)
// together with the run of spaces and tabs following it is replaced by a single
// space. A terminator at the very end of the input, or one that is followed by
// something other than whitespace, is removed without putting anything in its
// place.
func Unfold(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\r' && c != '\n' {
			out = append(out, c)
			continue
		}

		if c == '\r' && i+1 < len(raw) && raw[i+1] == '\n' {
			i++
		}

		j := i + 1
		for j < len(raw) && (raw[j] == ' ' || raw[j] == '\t') {
			j++
		}

		if j > i+1 && j < len(raw) {
			out = append(out, ' ')
		}
		i = j - 1
	}
	return out
}
