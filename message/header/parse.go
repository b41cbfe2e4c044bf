package header

import (
	"github.com/zostay/go-mimestream/message/header/field"
)

// Parse will parse the given header block into a Header. The block must hold
// only the fields, not the blank line after them. The line break given is used
// for any fields added or changed later. Parsing never fails: lines that are
// not fields are kept as invalid fields so they are written back out as is.
//
// The header written back out will end with lb. Use SetSeparator() to change
// that.
func Parse(m []byte, lb Break) *Header {
	lines := field.ParseLines(m)

	fields := make([]*field.Field, len(lines))
	for i, line := range lines {
		fields[i] = field.Parse(line)
	}

	return Build(fields, lb)
}

// Build creates a Header from fields already parsed.
func Build(fields []*field.Field, lb Break) *Header {
	if lb == Meh {
		lb = LF
	}

	return &Header{
		Base: Base{
			lbr:    lb,
			fields: fields,
		},
	}
}

// New creates an empty header using the given line break.
func New(lb Break) *Header {
	return Build(nil, lb)
}
