package message

import (
	"errors"
	"fmt"
)

// Errors that make it impossible to continue parsing.
var (
	// ErrNoHeader is returned when the input ends before a single complete
	// header field of the outermost entity could be read.
	ErrNoHeader = errors.New("failed to parse message headers")

	// ErrNoMboxMarker is returned when parsing in FormatMbox mode and the input
	// does not begin with a "From " marker line.
	ErrNoMboxMarker = errors.New("failed to find mbox From marker")

	// ErrLargeHeader is returned when a header block grows larger than the
	// configured WithMaxHeaderLength option (or the default,
	// DefaultMaxHeaderLength).
	ErrLargeHeader = errors.New("the header exceeds the maximum parse length")
)

// ErrNoContent is returned when attempting to read the content of an entity
// whose bytes were not retained, as happens during Stream.
var ErrNoContent = errors.New("content was not retained")

// ParseError reports a fatal format error along with the position in the
// input at which it was detected.
type ParseError struct {
	Offset int64
	Line   int
	Err    error
}

// Error returns the error message with its position.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%v (offset %d, line %d)", e.Err, e.Offset, e.Line)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
