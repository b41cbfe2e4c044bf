package message

import (
	"io"

	"github.com/zostay/go-mimestream/message/header"
)

// Entity is the body of a message or one part of a multipart. It is always
// one of *Part, *Multipart, or *MessagePart, so it is safe to use this in a
// type-switch and only look for those three.
type Entity interface {
	io.WriterTo

	// GetHeader returns the header of the entity. The body entity of a
	// Message shares the header of the message.
	GetHeader() *header.Header

	// Offsets returns where the entity was found in the input. For
	// entities that were not parsed, every offset is zero.
	Offsets() *Offsets

	entity()
}

// Offsets records where an entity was found in the input.
type Offsets struct {
	// Begin is the offset of the first byte of the header.
	Begin int64

	// BeginLine is the 1-based line number on which the header begins.
	BeginLine int

	// HeadersEnd is the offset just past the blank line ending the header,
	// which is where the content begins.
	HeadersEnd int64

	// End is the offset just past the last byte of the content. The line
	// break before a multipart delimiter is not part of the content.
	End int64

	// Octets is the length of the content.
	Octets int64

	// Lines is the number of lines in the content.
	Lines int

	// Message holds the offsets of the body of the message embedded in a
	// MessagePart. It is nil otherwise.
	Message *Offsets
}
