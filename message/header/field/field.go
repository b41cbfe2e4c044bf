// Package field holds the low-level representation of a single header field
// along with the engine that folds and encodes field values for output.
//
// A field read from a message keeps its raw bytes, folding whitespace and line
// terminators included, until it is changed. This is what allows a message to
// be written back out byte-for-byte. Once a new value is set, the raw bytes are
// regenerated by Fold() according to the FormatOptions in effect.
package field

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Errors returned when constructing or changing a field.
var (
	// ErrEmptyName is returned when a field is given an empty name.
	ErrEmptyName = errors.New("header field name is empty")

	// ErrEmptyValue is returned by NewRaw when the raw value is empty.
	ErrEmptyValue = errors.New("header field raw value is empty")
)

// BadNameError is returned when a field name holds characters RFC 5322 does
// not permit.
type BadNameError struct {
	Name string
}

// Error returns the error message.
func (e *BadNameError) Error() string {
	return fmt.Sprintf("invalid header field name %q", e.Name)
}

func checkName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if !validName([]byte(name)) {
		return &BadNameError{Name: name}
	}
	return nil
}

// Field is a single header field.
type Field struct {
	name    string
	id      ID
	raw     []byte
	colon   int
	invalid bool

	offset int64
	line   int

	// folded is set when raw was generated from value by Fold
	folded bool
	value  string
	fo     *FormatOptions

	decoded   string
	isDecoded bool
}

// Parse builds a field from the raw bytes of a complete field, as found by
// ParseLines. It never fails. If the bytes do not look like a field (no colon
// or an illegal name), the field is flagged as invalid but keeps its raw bytes
// so that it can be written back out unchanged.
func Parse(raw Line) *Field {
	return ParseAt(raw, 0, 0)
}

// ParseAt works like Parse, but records the stream offset and line number at
// which the field was found.
func ParseAt(raw Line, offset int64, line int) *Field {
	name, colon, valid := splitRaw(raw)
	f := &Field{
		raw:     raw,
		colon:   colon,
		invalid: !valid,
		offset:  offset,
		line:    line,
	}

	if colon >= 0 {
		f.name = string(name)
		f.id = LookupID(f.name)
	}

	return f
}

// New constructs a field from a name and a logical value. The raw bytes are
// produced by folding the value with the given options (nil selects the
// defaults). It fails if the name is empty or not a legal field name, or if
// the options are unusable.
func New(name, value string, fo *FormatOptions) (*Field, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	fo = fo.or()
	if err := fo.Validate(); err != nil {
		return nil, err
	}

	f := &Field{name: name, id: LookupID(name)}
	f.setValue(value, fo)
	return f, nil
}

// NewRaw constructs a field from a name and an already folded raw value. The
// raw value is used as is, so it ought to start with a space. The line break
// from the options is appended. It fails if the name is bad or the raw value
// is empty.
func NewRaw(name string, rawValue []byte, fo *FormatOptions) (*Field, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if len(rawValue) == 0 {
		return nil, ErrEmptyValue
	}

	fo = fo.or()
	raw := make([]byte, 0, len(name)+len(rawValue)+3)
	raw = append(raw, name...)
	raw = append(raw, ':')
	raw = append(raw, rawValue...)
	raw = append(raw, fo.lineBreak()...)

	return ParseAt(raw, 0, 0), nil
}

// Name returns the field name as it appears in the field. Invalid fields
// without a colon have an empty name.
func (f *Field) Name() string {
	return f.name
}

// ID returns the well-known identity of the field, or Unknown.
func (f *Field) ID() ID {
	return f.id
}

// Is returns true if the field has the given name, ignoring case.
func (f *Field) Is(name string) bool {
	return strings.EqualFold(f.name, name)
}

// IsInvalid returns true if the field could not be parsed as a field.
func (f *Field) IsInvalid() bool {
	return f.invalid
}

// Offset returns the stream offset of the field when parsed from a stream.
func (f *Field) Offset() int64 {
	return f.offset
}

// Line returns the line number of the field when parsed from a stream.
func (f *Field) Line() int {
	return f.line
}

// IsFolded returns true if the raw bytes of the field were generated from a
// logical value rather than read from input.
func (f *Field) IsFolded() bool {
	return f.folded
}

// Raw returns the raw bytes of the whole field, including the final line
// terminator (if there was one).
func (f *Field) Raw() []byte {
	return f.raw
}

// RawValue returns the raw bytes after the colon, folding included, but
// without the final line terminator. It returns nil for invalid fields with
// no colon.
func (f *Field) RawValue() []byte {
	if f.colon < 0 {
		return nil
	}
	return trimEnding(f.raw)[f.colon+1:]
}

// Ending returns the final line terminator of the field or nil if the field
// is not terminated.
func (f *Field) Ending() []byte {
	n := len(trimEnding(f.raw))
	if n == len(f.raw) {
		return nil
	}
	return f.raw[n:]
}

// Value returns the logical value of the field: unfolded, trimmed and with any
// RFC 2047 encoded-words decoded. Raw bytes that are not valid UTF-8 are
// interpreted as FallbackCharset. The result is cached.
func (f *Field) Value() string {
	if !f.isDecoded {
		v, err := f.ValueWithCharset(FallbackCharset)
		if err != nil {
			v = string(bytes.Trim(Unfold(f.RawValue()), " \t"))
		}
		f.decoded, f.isDecoded = v, true
	}
	return f.decoded
}

// ValueWithCharset works like Value, but interprets raw 8-bit bytes that are
// not valid UTF-8 using the named charset. The result is not cached.
func (f *Field) ValueWithCharset(charset string) (string, error) {
	if f.folded {
		return f.value, nil
	}
	if f.colon < 0 {
		return "", nil
	}

	s, err := toUTF8(Unfold(f.RawValue()), charset)
	if err != nil {
		return "", err
	}

	s = strings.Trim(s, " \t")
	if f.id.kind().decodes() {
		if d, err := DecodeWords(s); err == nil {
			s = d
		}
	}

	return s, nil
}

// SetValue replaces the value of the field and regenerates its raw bytes by
// folding the value with the given options (nil selects the defaults).
func (f *Field) SetValue(value string, fo *FormatOptions) error {
	if f.name == "" {
		return ErrEmptyName
	}

	fo = fo.or()
	if err := fo.Validate(); err != nil {
		return err
	}

	f.setValue(value, fo)
	return nil
}

func (f *Field) setValue(value string, fo *FormatOptions) {
	f.value = value
	f.fo = fo
	f.folded = true
	f.invalid = false
	f.decoded, f.isDecoded = "", false
	f.refold()
}

func (f *Field) refold() {
	f.raw = Fold(f.name, f.value, f.fo)
	f.colon = len(f.name)
}

// SetName renames the field. The raw bytes after the colon are kept unless
// the field was already regenerated from a value, in which case it is folded
// again, as the new name may change where the lines break.
func (f *Field) SetName(name string) error {
	if err := checkName(name); err != nil {
		return err
	}

	f.id = LookupID(name)
	if f.folded {
		f.name = name
		f.refold()
		return nil
	}

	if f.colon < 0 {
		return &BadNameError{Name: string(f.raw)}
	}

	raw := make([]byte, 0, len(name)+len(f.raw)-f.colon)
	raw = append(raw, name...)
	raw = append(raw, f.raw[f.colon:]...)

	f.name = name
	f.raw = raw
	f.colon = len(name)
	f.invalid = false
	f.isDecoded = false
	return nil
}

// Refold regenerates the raw bytes of a field that was given a new value
// using different options. Fields still holding the raw bytes they were
// parsed from are left alone.
func (f *Field) Refold(fo *FormatOptions) error {
	if !f.folded {
		return nil
	}

	fo = fo.or()
	if err := fo.Validate(); err != nil {
		return err
	}

	f.fo = fo
	f.refold()
	return nil
}

// Clone returns a copy of the field.
func (f *Field) Clone() *Field {
	c := *f
	c.raw = append([]byte(nil), f.raw...)
	return &c
}

// Bytes returns the raw bytes of the field.
func (f *Field) Bytes() []byte {
	return f.raw
}

// String returns the raw field without the final line terminator.
func (f *Field) String() string {
	return string(trimEnding(f.raw))
}

// WriteTo writes the raw bytes of the field to w.
func (f *Field) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.raw)
	return int64(n), err
}
