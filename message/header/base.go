package header

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/zostay/go-mimestream/message/header/field"
)

var (
	// ErrIndexOutOfRange when an attempt is made to access a header field index
	// that is too large or to small.
	ErrIndexOutOfRange = errors.New("header field index is out of range")
)

// Base represents a basic email message header. It is a low-level interface
// to the header fields in order. Fields read from a message keep their raw
// bytes. Fields added or changed are folded using the header's
// field.FormatOptions.
type Base struct {
	lbr    Break
	fo     *field.FormatOptions
	fields []*field.Field

	// sep is the blank line ending the header, nil until set
	sep    []byte
	sepSet bool
}

// initBase initializes the Break and fields values lazily.
func (h *Base) initBase() {
	if h.lbr == Meh {
		h.lbr = LF
	}
	if h.fields == nil {
		h.fields = make([]*field.Field, 0, 10)
	}
}

// FormatOptions returns the options used to fold new or changed fields. When
// none have been set, the defaults are used with the line break of the
// header.
func (h *Base) FormatOptions() *field.FormatOptions {
	if h.fo == nil {
		h.fo = field.DefaultFormatOptions()
		h.fo.NewLineFormat = h.Break().NewLineFormat()
	}
	return h.fo
}

// SetFormatOptions changes the options used to fold new or changed fields.
// Fields already changed are folded again with the new options. Fields still
// holding the bytes they were parsed from are not touched.
func (h *Base) SetFormatOptions(fo *field.FormatOptions) error {
	if fo == nil {
		fo = field.DefaultFormatOptions()
		fo.NewLineFormat = h.Break().NewLineFormat()
	}

	if err := fo.Validate(); err != nil {
		return err
	}

	for _, f := range h.fields {
		if err := f.Refold(fo); err != nil {
			return err
		}
	}

	h.fo = fo
	return nil
}

// Break returns the line break used to separate header fields and terminate the
// header.
func (h *Base) Break() Break {
	if h.lbr == Meh {
		h.lbr = LF
	}
	return h.lbr
}

// SetBreak changes the line break to use with this header.
func (h *Base) SetBreak(lbr Break) {
	h.lbr = lbr
	if h.fo != nil {
		h.fo.NewLineFormat = lbr.NewLineFormat()
	}
}

// Separator returns the bytes of the blank line that ends the header. For a
// parsed header this is exactly what was read, which may be nothing at all if
// the message ended inside the header. Otherwise, it is the line break.
func (h *Base) Separator() []byte {
	if !h.sepSet {
		return h.Break().Bytes()
	}
	return h.sep
}

// SetSeparator sets the bytes written after the last field.
func (h *Base) SetSeparator(sep []byte) {
	h.sep = sep
	h.sepSet = true
}

// GetField returns the nth field or nil if n is out of range.
func (h *Base) GetField(n int) *field.Field {
	if n < 0 || n >= len(h.fields) {
		return nil
	}
	return h.fields[n]
}

// Len returns the number of header fields in the header.
func (h *Base) Len() int {
	return len(h.fields)
}

// GetFieldNamed returns the nth (0-indexed) field with the given name or nil
// if no such header field is set.
func (h *Base) GetFieldNamed(name string, n int) *field.Field {
	for _, f := range h.fields {
		if strings.EqualFold(f.Name(), name) {
			if n == 0 {
				return f
			}
			n--
		}
	}
	return nil
}

// GetFieldByID returns the first field with the given well-known identity or
// nil.
func (h *Base) GetFieldByID(id field.ID) *field.Field {
	for _, f := range h.fields {
		if f.ID() == id {
			return f
		}
	}
	return nil
}

// GetAllFieldsNamed returns all the fields with the given name.
func (h *Base) GetAllFieldsNamed(name string) []*field.Field {
	fs := make([]*field.Field, 0, 2)
	for _, f := range h.fields {
		if strings.EqualFold(f.Name(), name) {
			fs = append(fs, f)
		}
	}
	return fs
}

// GetIndexesNamed returns the indexes of fields with the given name.
func (h *Base) GetIndexesNamed(name string) []int {
	is := make([]int, 0, 2)
	for i, f := range h.fields {
		if strings.EqualFold(f.Name(), name) {
			is = append(is, i)
		}
	}
	return is
}

// ListFields returns all the fields in the header.
func (h *Base) ListFields() []*field.Field {
	fs := make([]*field.Field, len(h.fields))
	copy(fs, h.fields)
	return fs
}

// InsertBeforeField creates a new field from name and body and inserts it at
// the given index. An index out of range is clamped to the start or end. It
// fails if the field cannot be created.
func (h *Base) InsertBeforeField(n int, name, body string) error {
	f, err := field.New(name, body, h.FormatOptions())
	if err != nil {
		return err
	}

	h.InsertField(n, f)
	return nil
}

// InsertField inserts an existing field at the given index, clamped to the
// valid range.
func (h *Base) InsertField(n int, f *field.Field) {
	h.initBase()

	if n < 0 {
		n = 0
	}
	if n > len(h.fields) {
		n = len(h.fields)
	}

	h.fields = append(h.fields, nil)
	copy(h.fields[n+1:], h.fields[n:])
	h.fields[n] = f
}

// AppendField adds the field to the end of the header.
func (h *Base) AppendField(f *field.Field) {
	h.InsertField(len(h.fields), f)
}

// ReplaceField swaps the nth field for f.
func (h *Base) ReplaceField(n int, f *field.Field) error {
	if n < 0 || n >= len(h.fields) {
		return ErrIndexOutOfRange
	}
	h.fields[n] = f
	return nil
}

// ClearFields removes all fields from the header.
func (h *Base) ClearFields() {
	h.initBase()
	h.fields = h.fields[:0]
}

// DeleteField removes the nth field from the header. Fails with an error if the
// given index is out of range.
func (h *Base) DeleteField(n int) error {
	if n < 0 || n >= len(h.fields) {
		return ErrIndexOutOfRange
	}

	copy(h.fields[n:], h.fields[n+1:])
	h.fields[len(h.fields)-1] = nil
	h.fields = h.fields[:len(h.fields)-1]

	return nil
}

// WriteTo writes each field followed by the separator.
func (h *Base) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, f := range h.fields {
		n, err := f.WriteTo(w)
		total += n
		if err != nil {
			return total, err
		}
	}

	n, err := w.Write(h.Separator())
	total += int64(n)
	return total, err
}

// WriteFormatted works like WriteTo, but the fields that were generated from a
// value rather than parsed are folded again using fo. A header that was never
// given a separator is ended with the line break of fo. A nil fo is the same
// as calling WriteTo.
func (h *Base) WriteFormatted(w io.Writer, fo *field.FormatOptions) (int64, error) {
	if fo == nil {
		return h.WriteTo(w)
	}

	var total int64
	for _, f := range h.fields {
		raw := f.Raw()
		if f.IsFolded() {
			raw = field.Fold(f.Name(), f.Value(), fo)
		}

		n, err := w.Write(raw)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}

	sep := h.sep
	if !h.sepSet {
		sep = fo.NewLineFormat.Bytes()
	}

	n, err := w.Write(sep)
	total += int64(n)
	return total, err
}

// HasSeparator returns true if the separator was set explicitly, which is
// always the case for a parsed header.
func (h *Base) HasSeparator() bool {
	return h.sepSet
}

// Bytes returns the header as a slice of bytes.
func (h *Base) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = h.WriteTo(&buf)
	return buf.Bytes()
}

// String returns the header as a string.
func (h *Base) String() string {
	return string(h.Bytes())
}

// clone copies the field list, cloning each field.
func (h *Base) clone() Base {
	c := *h
	c.fields = make([]*field.Field, len(h.fields))
	for i, f := range h.fields {
		c.fields[i] = f.Clone()
	}
	c.sep = append([]byte(nil), h.sep...)
	if h.fo != nil {
		c.fo = h.fo.Clone()
	}
	return c
}
