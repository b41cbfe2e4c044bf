package message

import (
	"context"
	"io"

	"github.com/zostay/go-mimestream/message/header"
)

// MessagePart is an entity whose content is another message, as with
// message/rfc822. The embedded message is parsed with the same rules as the
// outer one.
type MessagePart struct {
	// Header is the header of the part, not of the embedded message.
	header.Header

	message *Message
	offsets Offsets
}

func (mp *MessagePart) entity() {}

// NewMessagePart returns a message/rfc822 part holding the given message.
func NewMessagePart(msg *Message) *MessagePart {
	mp := &MessagePart{message: msg}
	_ = mp.SetMediaType("message/rfc822")
	return mp
}

// GetHeader returns the header of the part.
func (mp *MessagePart) GetHeader() *header.Header {
	return &mp.Header
}

// Offsets returns where the part was found in the input. The Message field
// of the returned value holds the offsets of the embedded message body.
func (mp *MessagePart) Offsets() *Offsets {
	return &mp.offsets
}

// Message returns the embedded message. It is nil when the content of the
// part was empty.
func (mp *MessagePart) Message() *Message {
	return mp.message
}

// SetMessage replaces the embedded message.
func (mp *MessagePart) SetMessage(msg *Message) {
	mp.message = msg
	mp.offsets.Message = nil
	if msg != nil && msg.Body != nil {
		mp.offsets.Message = msg.Body.Offsets()
	}
}

// WriteTo writes the header of the part and the embedded message to w.
func (mp *MessagePart) WriteTo(w io.Writer) (int64, error) {
	return writeEntity(context.Background(), w, mp, nil)
}
