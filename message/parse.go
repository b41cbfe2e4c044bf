package message

import (
	"context"
	"errors"
	"io"
)

// Parse will consume input from the given reader and return the message it
// holds. It is the same as ParseContext with a background context.
func Parse(r io.Reader, opts ...ParseOption) (*Message, error) {
	return ParseContext(context.Background(), r, opts...)
}

// ParseContext will consume input from the given reader and return the
// message it holds.
//
// The input is read a line at a time. The header block of each entity ends at
// the first blank line. Once the header is read, the Content-Type decides what
// comes next: a multipart body is split into parts on the delimiter lines of
// its boundary, a message/rfc822 body is parsed as another message, and
// anything else becomes the content of a leaf Part. Nesting is tracked on an
// explicit stack, so a delimiter of an enclosing multipart closes every part
// opened inside it.
//
// Malformed input does not fail the parse. Each deviation is recorded as a
// Violation on the returned Message and the parse carries on with the most
// sensible reading. Writing the returned message out again reproduces the
// input byte for byte. Only these are fatal, returned as a *ParseError:
//
//   - ErrNoHeader, when the input ends before any terminated header line.
//   - ErrLargeHeader, when a header block exceeds WithMaxHeaderLength.
//   - ErrNoMboxMarker, when parsing with WithFormat(FormatMbox) and the input
//     does not begin with a "From " line.
//
// When parsing with WithFormat(FormatMbox), only the first message is
// returned. Use ParseMbox to get them all.
//
// Content is not copied out of the input. If r implements io.ReaderAt, the
// content of each part is read back from r when needed, so r must stay
// readable as long as the message is in use. Otherwise, the parser keeps its
// own copy of the input.
//
// If the context is canceled, the error of the context is returned and no
// message.
func ParseContext(ctx context.Context, r io.Reader, opts ...ParseOption) (*Message, error) {
	msg, err := NewParser(ctx, r, opts...).Next()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: ErrNoHeader}
	}
	return msg, err
}

// ParseMbox reads an mbox file and returns every message found in it. Each
// message begins with a "From " marker line, kept in Message.Marker. The
// first line of the input must be such a marker or ErrNoMboxMarker is
// returned. Empty input yields no messages and no error.
//
// A line is only taken as the start of a new message when it looks like a
// real marker, carrying a year after the sender. With RespectContentLength,
// no line inside the range covered by a Content-Length field is taken as a
// marker.
func ParseMbox(ctx context.Context, r io.Reader, opts ...ParseOption) ([]*Message, error) {
	opts = append(opts[:len(opts):len(opts)], WithFormat(FormatMbox))
	p := NewParser(ctx, r, opts...)

	var msgs []*Message
	for {
		msg, err := p.Next()
		if errors.Is(err, io.EOF) {
			return msgs, nil
		}
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
}

// Stream parses the input and delivers the structure of each message to h as
// events without keeping the content. Parts in the messages built along the
// way have content that cannot be read, so memory use stays bounded by the
// size of the headers no matter how large the input is.
//
// Use WithFormat(FormatMbox) to stream every message in an mbox file.
func Stream(ctx context.Context, r io.Reader, h Handler, opts ...ParseOption) error {
	opts = append(opts[:len(opts):len(opts)], withoutContent(), WithHandler(h))
	p := NewParser(ctx, r, opts...)

	for {
		_, err := p.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
