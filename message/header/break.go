package header

import "github.com/zostay/go-mimestream/message/header/field"

// Break represents the line break used by a header.
type Break string

// Constants for use when selecting a line break to use with a new header. If
// you don't know what to pick, choose CRLF.
const (
	Meh  Break = ""         // Sometimes it doesn't matter
	CRLF Break = "\x0d\x0a" // \r\n - Network linebreak
	LF   Break = "\x0a"     // \n - Unix/Linux/BSD linebreak
	CR   Break = "\x0d"     // \r - Commodores/old Macs linebreak
	LFCR Break = "\x0a\x0d" // \n\r - for weirdos
)

// DetectBreak returns the Break matching the given line terminator, or Meh if
// it is not one.
func DetectBreak(ending []byte) Break {
	switch b := Break(ending); b {
	case CRLF, LF, CR, LFCR:
		return b
	default:
		return Meh
	}
}

// String returns the break as a string.
func (b Break) String() string {
	return string(b)
}

// Bytes returns the break as a slice of bytes.
func (b Break) Bytes() []byte {
	return []byte(b)
}

// NewLineFormat returns the field.NewLineFormat that generates this break.
// Only CRLF maps to field.Dos; everything else is written as field.Unix.
func (b Break) NewLineFormat() field.NewLineFormat {
	if b == CRLF {
		return field.Dos
	}
	return field.Unix
}
