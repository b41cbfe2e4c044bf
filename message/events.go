package message

import (
	"github.com/zostay/go-mimestream/message/header"
)

// EventKind names a structural event of the parse.
type EventKind int

// The structural events. Begin events are delivered once the header block of
// the entity has been read, so the header and the offset at which it ends
// are already known.
const (
	EventMboxMarker EventKind = iota + 1
	EventMessageBegin
	EventMessageEnd
	EventPartBegin
	EventPartEnd
	EventMultipartBegin
	EventMultipartEnd
	EventMessagePartBegin
	EventMessagePartEnd
	EventViolation
)

var eventNames = map[EventKind]string{
	EventMboxMarker:       "mbox-marker",
	EventMessageBegin:     "message-begin",
	EventMessageEnd:       "message-end",
	EventPartBegin:        "part-begin",
	EventPartEnd:          "part-end",
	EventMultipartBegin:   "multipart-begin",
	EventMultipartEnd:     "multipart-end",
	EventMessagePartBegin: "message-part-begin",
	EventMessagePartEnd:   "message-part-end",
	EventViolation:        "violation",
}

// String returns the name of the event kind.
func (k EventKind) String() string {
	if n, ok := eventNames[k]; ok {
		return n
	}
	return "unknown"
}

// IsBegin returns true for the kinds that open an entity.
func (k EventKind) IsBegin() bool {
	switch k {
	case EventMessageBegin, EventPartBegin, EventMultipartBegin, EventMessagePartBegin:
		return true
	}
	return false
}

// IsEnd returns true for the kinds that close an entity.
func (k EventKind) IsEnd() bool {
	switch k {
	case EventMessageEnd, EventPartEnd, EventMultipartEnd, EventMessagePartEnd:
		return true
	}
	return false
}

// Event is delivered to every Handler during a parse.
type Event struct {
	Kind EventKind

	// Depth is 0 for the outermost message and its body, and grows by one
	// for each multipart or message part enclosing the entity.
	Depth int

	// Offsets is the offsets record of the entity. On begin events, only the
	// begin offsets and HeadersEnd are final. For EventMboxMarker, Begin and
	// End delimit the marker line.
	Offsets *Offsets

	// Header is the header of the entity. It is nil for EventMboxMarker and
	// EventViolation.
	Header *header.Header

	// Marker holds the raw marker line for EventMboxMarker.
	Marker []byte

	// Violation is set for EventViolation.
	Violation *Violation
}

// Handler receives the structural events of a parse.
type Handler interface {
	HandleEvent(ev *Event)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ev *Event)

// HandleEvent calls f(ev).
func (f HandlerFunc) HandleEvent(ev *Event) {
	f(ev)
}
