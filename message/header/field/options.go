package field

import (
	"errors"
	"fmt"
	"strings"
)

// Constants related to FormatOptions defaults.
const (
	// DefaultMaxLineLength is the fold budget recommended by RFC 5322.
	DefaultMaxLineLength = 78

	// MinMaxLineLength is the smallest fold budget accepted. Anything smaller
	// leaves no room for an encoded-word.
	MinMaxLineLength = 30

	// DefaultCharset is the charset used for RFC 2047 and RFC 2231 encoding.
	DefaultCharset = "utf-8"
)

// Errors returned when validating FormatOptions.
var (
	// ErrUnsupportedCharset is returned when the requested output charset
	// cannot be found or has no encoder.
	ErrUnsupportedCharset = errors.New("unsupported charset")

	// ErrLineLength is returned when MaxLineLength is below MinMaxLineLength.
	ErrLineLength = fmt.Errorf("max line length must be at least %d", MinMaxLineLength)
)

// NewLineFormat selects the line break used when generating output.
type NewLineFormat int

// The supported line break formats.
const (
	Unix NewLineFormat = iota // \n
	Dos                       // \r\n
)

// Bytes returns the line break for the format.
func (n NewLineFormat) Bytes() []byte {
	if n == Dos {
		return []byte("\r\n")
	}
	return []byte("\n")
}

// String returns the line break for the format.
func (n NewLineFormat) String() string {
	return string(n.Bytes())
}

// FormatOptions controls how header fields are folded and encoded and how
// messages are written. Use DefaultFormatOptions() to get a value with the
// defaults filled in; the zero value is not useful.
type FormatOptions struct {
	// NewLineFormat is the line break placed between folded lines and at the
	// end of generated fields.
	NewLineFormat NewLineFormat

	// International permits raw UTF-8 in header values. When false, any
	// non-ASCII text is turned into RFC 2047 encoded-words.
	International bool

	// MaxLineLength is the fold budget in display columns.
	MaxLineLength int

	// AllowMixedHeaderCharsets lets each encoded-word pick the narrowest
	// charset able to hold it (us-ascii, iso-8859-1) before falling back to
	// Charset.
	AllowMixedHeaderCharsets bool

	// EnsureNewLine makes message serialization end with a line break.
	EnsureNewLine bool

	// NormalizeBoundaries drops trailing whitespace after multipart boundary
	// tokens when writing.
	NormalizeBoundaries bool

	// Charset is the charset used for encoded-words and RFC 2231 parameter
	// values.
	Charset string
}

// DefaultFormatOptions returns a new FormatOptions with the defaults set.
func DefaultFormatOptions() *FormatOptions {
	return &FormatOptions{
		NewLineFormat: Unix,
		MaxLineLength: DefaultMaxLineLength,
		Charset:       DefaultCharset,
	}
}

// Clone returns a copy of the options.
func (fo *FormatOptions) Clone() *FormatOptions {
	c := *fo
	return &c
}

// Validate checks that the options can be used for folding.
func (fo *FormatOptions) Validate() error {
	if fo.MaxLineLength < MinMaxLineLength {
		return ErrLineLength
	}

	if _, err := lookupEncoding(fo.charset()); err != nil {
		return err
	}

	return nil
}

func (fo *FormatOptions) charset() string {
	if fo.Charset == "" {
		return DefaultCharset
	}
	return strings.ToLower(fo.Charset)
}

func (fo *FormatOptions) lineBreak() string {
	return fo.NewLineFormat.String()
}

// or returns fo or the defaults when fo is nil.
func (fo *FormatOptions) or() *FormatOptions {
	if fo == nil {
		return DefaultFormatOptions()
	}
	return fo
}
