package message

import (
	"bytes"
	"context"
	"io"

	"github.com/zostay/go-mimestream/message/header"
	"github.com/zostay/go-mimestream/message/header/field"
)

// Message is a complete message: an optional mbox marker line followed by
// the body entity, whose header is the header of the message.
type Message struct {
	// Marker holds the raw mbox "From " line, terminator included, that was
	// found before the message. It is nil when there was none.
	Marker []byte

	// Body is the body entity. It is a *Part, *Multipart, or *MessagePart.
	Body Entity

	markerOffset int64
	violations   []Violation
}

// NewMessage returns a message with the given body.
func NewMessage(body Entity) *Message {
	return &Message{Body: body, markerOffset: -1}
}

// Header returns the header of the message, which is the header of the body
// entity.
func (m *Message) Header() *header.Header {
	if m.Body == nil {
		return nil
	}
	return m.Body.GetHeader()
}

// Offsets returns where the message was found in the input.
func (m *Message) Offsets() *Offsets {
	if m.Body == nil {
		return &Offsets{}
	}
	return m.Body.Offsets()
}

// MarkerOffset returns the offset of the mbox marker or -1 when the message
// has none.
func (m *Message) MarkerOffset() int64 {
	if m.Marker == nil {
		return -1
	}
	return m.markerOffset
}

// Violations returns the compliance violations found while parsing the
// message, ordered by where they were found. Violations of any embedded
// messages are included.
func (m *Message) Violations() []Violation {
	return m.violations
}

// Write writes the message to w. Parsed header fields are written exactly as
// they were read. Fields given a new value are folded using fo, which is also
// used for line breaks that have to be generated. A nil fo writes every field
// as it currently is, and is what WriteTo uses.
//
// The context is checked before every write to w.
func (m *Message) Write(ctx context.Context, w io.Writer, fo *field.FormatOptions) (int64, error) {
	s := newSerializer(ctx, w, fo)
	err := s.message(m)
	if err == nil {
		err = s.finish()
	}
	return s.n, err
}

// WriteTo writes the message to w.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	return m.Write(context.Background(), w, nil)
}

// Bytes returns the message written to a byte slice.
func (m *Message) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	return buf.Bytes(), err
}
