package message

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/zostay/go-mimestream/internal/scanner"
	"github.com/zostay/go-mimestream/message/header"
	"github.com/zostay/go-mimestream/message/header/field"
	"github.com/zostay/go-mimestream/message/header/param"
)

// frameState is what a frame on the parser stack is waiting for.
type frameState int

const (
	stateHeaders  frameState = iota // reading the header block
	stateContent                    // reading leaf content
	statePreamble                   // multipart, before the first delimiter
	stateParts                      // multipart, a part frame is above
	stateEpilogue                   // multipart, after the close delimiter
	stateMessage                    // message part, the embedded message frame is above
)

// region tracks a range of content as lines arrive. The terminator of the last
// line is remembered, because when a delimiter follows, that line break
// belongs to the delimiter.
type region struct {
	start, end int64
	trail      scanner.Ending
}

func (r *region) reset(off int64) {
	r.start, r.end, r.trail = off, off, scanner.EndNone
}

func (r *region) add(l *scanner.Line) {
	r.end = l.End()
	r.trail = l.Ending
}

// strip removes the terminator of the last line from the region and returns
// it.
func (r *region) strip() []byte {
	lead := r.trail.Bytes()
	r.end -= int64(len(lead))
	r.trail = scanner.EndNone
	return lead
}

// frame is one open entity on the parser stack.
type frame struct {
	state frameState
	depth int

	// message is set when the header of this frame is a message header
	message bool
	msg     *Message

	// delim is the raw delimiter before a multipart part
	delim  []byte
	digest bool

	begin     int64
	beginLine int

	fields     []*field.Field
	cur        []byte
	curOff     int64
	curLine    int
	lines      int
	size       int
	terminated bool

	entity   Entity
	bodyLine int
	region   region

	// boundary is "--" plus the boundary parameter of a multipart
	boundary []byte

	// protect is the end of the range covered by Content-Length, or -1
	protect int64

	eightBitOK, nulOK                     bool
	seenEightBit, seenNul, seenLF, seenCR bool
}

// empty returns true if nothing at all was read for the frame.
func (f *frame) empty() bool {
	return f.lines == 0 && (f.msg == nil || f.msg.Marker == nil)
}

// Parser is the state machine that turns a byte stream into messages. It
// keeps the open entities on an explicit stack, so nesting depth is limited
// only by WithMaxDepth, never by the call stack.
//
// A Parser must not be used from more than one goroutine at a time.
type Parser struct {
	pr      *parser
	sc      *scanner.Scanner
	log     *slog.Logger
	checker *Checker

	src  io.ReaderAt
	base int64

	stack    []*frame
	result   *Message
	ending   scanner.Ending
	nextLine int

	started bool
	done    bool

	pending       []byte
	pendingOffset int64
	pendingLine   int
}

// NewParser returns a parser reading from r. The context is checked before
// every read from r.
func NewParser(ctx context.Context, r io.Reader, opts ...ParseOption) *Parser {
	pr := defaultParser.clone()
	for _, opt := range opts {
		opt(pr)
	}

	sopts := []scanner.Option{
		scanner.WithChunkSize(pr.chunkSize),
		scanner.WithMaxLineLength(pr.maxLineLen),
	}
	if pr.stream {
		sopts = append(sopts, scanner.WithoutRetention())
	}

	p := &Parser{
		pr:      pr,
		log:     pr.logger,
		checker: NewChecker(),
	}
	if p.log == nil {
		p.log = noopLogger()
	}
	p.checker.notify = p.violation

	p.sc = scanner.New(ctx, r, sopts...)
	p.reset()
	return p
}

// Reset discards all parser state and starts reading from r with the same
// options.
func (p *Parser) Reset(ctx context.Context, r io.Reader) {
	p.sc.Reset(ctx, r)
	p.reset()
}

func (p *Parser) reset() {
	p.src, p.base = p.sc.Source()
	p.stack = p.stack[:0]
	p.result = nil
	p.started, p.done = false, false
	p.pending = nil
	p.nextLine = 1
	p.checker.Reset()
}

// Next parses and returns the next message. In FormatEntity mode, there is
// exactly one message. In FormatMbox mode, each call returns the message
// following the next "From " marker. It returns io.EOF when there are no
// more messages.
//
// Fatal format errors are returned as a *ParseError. Errors from reading the
// input, including context cancellation, are returned as is. No message is
// returned along with an error.
func (p *Parser) Next() (*Message, error) {
	if p.done {
		return nil, io.EOF
	}

	if p.pr.format == FormatMbox && !p.started {
		p.started = true
		l, err := p.sc.Next()
		if errors.Is(err, io.EOF) {
			p.done = true
			return nil, io.EOF
		}
		if err != nil {
			p.done = true
			return nil, err
		}

		if !isMarker(l.Content, false) || l.Partial {
			p.done = true
			return nil, &ParseError{Offset: l.Offset, Line: l.Number, Err: ErrNoMboxMarker}
		}

		p.setPending(&l)
	}

	p.begin()

	for {
		l, err := p.sc.Next()
		if errors.Is(err, io.EOF) {
			p.done = true
			return p.eof()
		}
		if err != nil {
			p.done = true
			return nil, err
		}

		ended, err := p.line(&l)
		if err != nil {
			p.done = true
			return nil, err
		}
		if ended {
			return p.finish(), nil
		}
	}
}

// setPending keeps a marker line for the message that follows it.
func (p *Parser) setPending(l *scanner.Line) {
	p.pending = l.Raw()
	p.pendingOffset = l.Offset
	p.pendingLine = l.Number
	p.ending = l.Ending
	p.nextLine = l.Number + 1
}

// begin pushes the frame for the next outermost message.
func (p *Parser) begin() {
	p.checker.Reset()
	p.result = nil
	p.stack = p.stack[:0]

	msg := &Message{markerOffset: -1}
	f := &frame{
		state:     stateHeaders,
		message:   true,
		msg:       msg,
		begin:     p.sc.Offset(),
		beginLine: p.sc.LineNumber(),
		protect:   -1,
	}
	p.stack = append(p.stack, f)

	if p.pending == nil {
		p.ending = scanner.EndNone
		return
	}

	msg.Marker = p.pending
	msg.markerOffset = p.pendingOffset
	p.dispatch(&Event{
		Kind: EventMboxMarker,
		Offsets: &Offsets{
			Begin:     p.pendingOffset,
			BeginLine: p.pendingLine,
			End:       p.pendingOffset + int64(len(p.pending)),
		},
		Marker: p.pending,
	})
	p.pending = nil
}

func (p *Parser) top() *frame {
	return p.stack[len(p.stack)-1]
}

// dispatch delivers an event to the checker and every handler.
func (p *Parser) dispatch(ev *Event) {
	p.checker.HandleEvent(ev)
	for _, h := range p.pr.handlers {
		h.HandleEvent(ev)
	}
}

// violation passes a violation recorded by the checker on to the handlers.
func (p *Parser) violation(v Violation) {
	ev := &Event{Kind: EventViolation, Violation: &v}
	if len(p.stack) > 0 {
		ev.Depth = p.top().depth
	}
	for _, h := range p.pr.handlers {
		h.HandleEvent(ev)
	}
}

func (p *Parser) report(kind Kind, offset int64, line int) {
	p.checker.Report(kind, offset, line)
}

// content returns the Content for a finished region.
func (p *Parser) content(r *region) *Content {
	return newContentAt(p.src, p.base+r.start, r.end-r.start)
}

// line feeds a single line to the state machine. It returns true when the
// line was an mbox marker ending the current message.
func (p *Parser) line(l *scanner.Line) (bool, error) {
	p.checkLine(l)

	if !l.Continued && !l.Partial {
		top := p.top()
		if top.state == stateHeaders && top.message && top.depth > 0 && top.empty() && isMarker(l.Content, false) {
			p.embeddedMarker(top, l)
			p.nextLine = l.Number + 1
			return false, nil
		}

		if p.boundary(l) {
			p.nextLine = l.Number + 1
			return false, nil
		}

		if p.pr.format == FormatMbox && !p.protected(l) && isMarker(l.Content, true) {
			if err := p.closeAll(l.Offset, l.Number, false); err != nil {
				return false, err
			}
			p.setPending(l)
			return true, nil
		}
	}

	p.nextLine = l.Number + 1

	top := p.top()
	if top.state == stateHeaders {
		return false, p.headerLine(top, l)
	}

	top.region.add(l)
	return false, nil
}

// checkLine records the violations that can be seen in a single line.
func (p *Parser) checkLine(l *scanner.Line) {
	top := p.top()

	if p.ending == scanner.EndNone {
		p.ending = l.Ending
	}

	switch l.Ending {
	case scanner.EndLF:
		if p.ending == scanner.EndCRLF && !top.seenLF {
			top.seenLF = true
			p.report(BareLinefeed, l.Offset+int64(len(l.Content)), l.Number)
		}
	case scanner.EndCR:
		blankHeader := top.state == stateHeaders && l.IsBlank()
		if p.ending != scanner.EndCR && !top.seenCR && !blankHeader {
			top.seenCR = true
			p.report(BareCarriageReturn, l.Offset+int64(len(l.Content)), l.Number)
		}
	}

	if !top.seenNul && !top.nulOK {
		if ix := bytes.IndexByte(l.Content, 0); ix >= 0 {
			top.seenNul = true
			p.report(UnexpectedNul, l.Offset+int64(ix), l.Number)
		}
	}

	check8 := top.state == stateHeaders || (top.state == stateContent && !top.eightBitOK)
	if check8 && !top.seenEightBit {
		for ix, c := range l.Content {
			if c >= 0x80 {
				top.seenEightBit = true
				p.report(UnexpectedEightBit, l.Offset+int64(ix), l.Number)
				break
			}
		}
	}
}

// protected returns true if the line falls within a range covered by a
// Content-Length.
func (p *Parser) protected(l *scanner.Line) bool {
	for _, f := range p.stack {
		if f.protect >= 0 && l.Offset < f.protect {
			return true
		}
	}
	return false
}

// embeddedMarker records a "From " line starting an embedded message as the
// marker of that message rather than reading it as a header field.
func (p *Parser) embeddedMarker(f *frame, l *scanner.Line) {
	f.msg.Marker = l.Raw()
	f.msg.markerOffset = l.Offset
	f.begin = l.End()
	f.beginLine = l.Number + 1

	p.dispatch(&Event{
		Kind:  EventMboxMarker,
		Depth: f.depth,
		Offsets: &Offsets{
			Begin:     l.Offset,
			BeginLine: l.Number,
			End:       l.End(),
		},
		Marker: f.msg.Marker,
	})
}

// headerLine adds a line to the header block of f.
func (p *Parser) headerLine(f *frame, l *scanner.Line) error {
	if l.IsBlank() {
		if l.Ending == scanner.EndCR && p.ending != scanner.EndCR {
			p.report(MissingBodySeparator, l.Offset, l.Number)
		}
		return p.endHeaders(f, l.Raw(), l.End(), l.Number+1, false)
	}

	f.size += int(l.Len())
	if p.pr.maxHeaderLen > 0 && f.size > p.pr.maxHeaderLen {
		return &ParseError{Offset: l.Offset, Line: l.Number, Err: ErrLargeHeader}
	}

	f.lines++
	if l.Ending != scanner.EndNone {
		f.terminated = true
	}

	folded := l.Continued || (len(l.Content) > 0 && isSpace(l.Content[0]))
	if f.cur != nil && folded {
		f.cur = append(f.cur, l.Content...)
		f.cur = append(f.cur, l.Ending.Bytes()...)
		return nil
	}

	p.flushField(f)
	f.cur = l.Raw()
	f.curOff = l.Offset
	f.curLine = l.Number
	return nil
}

func (p *Parser) flushField(f *frame) {
	if f.cur == nil {
		return
	}
	f.fields = append(f.fields, field.ParseAt(field.Line(f.cur), f.curOff, f.curLine))
	f.cur = nil
}

// endHeaders builds the header of f and decides what kind of entity it
// introduces. A truncated header always introduces a leaf part, which
// will be empty.
func (p *Parser) endHeaders(f *frame, sep []byte, headersEnd int64, bodyLine int, truncated bool) error {
	p.flushField(f)

	lb := header.LF
	switch {
	case len(f.fields) > 0:
		lb = header.DetectBreak(f.fields[0].Ending())
	case len(sep) > 0:
		lb = header.DetectBreak(sep)
	}

	h := header.Build(f.fields, lb)
	h.SetSeparator(sep)
	h.SetAddressParserMode(p.pr.addrMode)
	f.fields = nil

	f.bodyLine = bodyLine
	f.region.reset(headersEnd)
	offsets := Offsets{
		Begin:      f.begin,
		BeginLine:  f.beginLine,
		HeadersEnd: headersEnd,
	}

	pv := p.contentType(h, f.digest)
	cte, _ := h.GetTransferEncoding()
	container := p.pr.maxDepth < 0 || f.depth < p.pr.maxDepth

	var begin EventKind
	switch {
	case !truncated && pv.IsMultipart() && pv.Boundary() != "" && container:
		mm := &Multipart{Header: *h, parsed: true, boundary: pv.Boundary(), offsets: offsets}
		f.entity = mm
		f.state = statePreamble
		f.boundary = append([]byte("--"), pv.Boundary()...)
		begin = EventMultipartBegin

	case !truncated && isMessageType(pv) && identityEncodings[cte] && container:
		f.entity = &MessagePart{Header: *h, offsets: offsets}
		f.state = stateMessage
		begin = EventMessagePartBegin

	default:
		switch {
		case truncated:
		case pv.IsMultipart() && pv.Boundary() == "":
			p.log.Debug("multipart without boundary kept as a leaf part",
				"offset", f.begin, "line", f.beginLine)
		case (pv.IsMultipart() || isMessageType(pv)) && !container:
			p.log.Debug("maximum depth reached, container kept as a leaf part",
				"offset", f.begin, "line", f.beginLine, "depth", f.depth)
		case isMessageType(pv):
			p.log.Debug("encoded embedded message kept as a leaf part",
				"offset", f.begin, "line", f.beginLine, "encoding", cte)
		}

		f.entity = &Part{Header: *h, offsets: offsets}
		f.state = stateContent
		f.eightBitOK = cte == "8bit" || cte == "binary"
		f.nulOK = cte == "binary"
		begin = EventPartBegin
	}

	f.seenEightBit, f.seenNul = false, false
	if !truncated {
		p.protect(f, f.entity.GetHeader(), headersEnd)
	}

	if f.message {
		f.msg.Body = f.entity
		p.dispatch(&Event{
			Kind:    EventMessageBegin,
			Depth:   f.depth,
			Offsets: f.entity.Offsets(),
			Header:  f.entity.GetHeader(),
		})
	}

	p.dispatch(&Event{
		Kind:    begin,
		Depth:   f.depth,
		Offsets: f.entity.Offsets(),
		Header:  f.entity.GetHeader(),
	})

	if f.state == stateMessage {
		p.stack = append(p.stack, &frame{
			state:     stateHeaders,
			depth:     f.depth + 1,
			message:   true,
			msg:       &Message{markerOffset: -1},
			begin:     headersEnd,
			beginLine: bodyLine,
			protect:   -1,
		})
	}

	return nil
}

// contentType returns the Content-Type of a header. The first field wins.
// When there is none, the default depends on whether the entity is a part of
// a multipart/digest.
func (p *Parser) contentType(h *header.Header, digest bool) *param.Value {
	f := h.GetFieldNamed(header.ContentType, 0)
	if f == nil {
		if digest {
			return param.New("message/rfc822")
		}
		return param.New("text/plain")
	}

	pv, err := param.ParseMediaType(f.Value())
	if err != nil {
		p.log.Debug("malformed Content-Type, falling back",
			"offset", f.Offset(), "line", f.Line(),
			"value", f.Value(), "media-type", pv.MediaType(), "error", err)
	}
	return pv
}

// isMessageType returns true for the media types holding a complete message.
func isMessageType(pv *param.Value) bool {
	switch pv.MediaType() {
	case "message/rfc822", "message/global", "message/news":
		return true
	}
	return false
}

// protect sets up the Content-Length range of f when asked to.
func (p *Parser) protect(f *frame, h *header.Header, headersEnd int64) {
	f.protect = -1
	if !p.pr.respectLength {
		return
	}

	cl := h.GetFieldNamed(header.ContentLength, 0)
	if cl == nil {
		return
	}

	n, err := parseContentLength(cl)
	if err != nil {
		return
	}

	end := headersEnd + n
	for _, g := range p.stack {
		if g != f && g.protect >= 0 && g.protect < end {
			end = g.protect
		}
	}
	f.protect = end
}

// boundary checks whether the line is a delimiter of an open multipart,
// matching innermost to outermost, and handles it if it is.
func (p *Parser) boundary(l *scanner.Line) bool {
	if !bytes.HasPrefix(l.Content, []byte("--")) {
		return false
	}

	for i := len(p.stack) - 1; i >= 0; i-- {
		f := p.stack[i]
		if f.state != statePreamble && f.state != stateParts {
			continue
		}

		final, ok := matchBoundary(l.Content, f.boundary)
		if !ok {
			continue
		}

		var lead []byte
		if top := p.top(); top.state != stateHeaders {
			lead = top.region.strip()
		}

		end := l.Offset - int64(len(lead))
		for len(p.stack)-1 > i {
			// the closing of these frames cannot fail
			_ = p.closeTop(end, l.Number, l.Offset)
		}

		raw := make([]byte, 0, len(lead)+int(l.Len()))
		raw = append(raw, lead...)
		raw = append(raw, l.Content...)
		raw = append(raw, l.Ending.Bytes()...)

		mm := f.entity.(*Multipart)
		if f.state == statePreamble {
			mm.preamble = p.content(&f.region)
		}

		if final {
			mm.closer = raw
			f.state = stateEpilogue
			f.region.reset(l.End())
			return true
		}

		f.state = stateParts
		p.stack = append(p.stack, &frame{
			state:     stateHeaders,
			depth:     f.depth + 1,
			delim:     raw,
			digest:    mm.isDigest(),
			begin:     l.End(),
			beginLine: l.Number + 1,
			protect:   -1,
		})
		return true
	}

	return false
}

// closeAll closes every open frame.
func (p *Parser) closeAll(end int64, endLine int, atEOF bool) error {
	for len(p.stack) > 0 {
		f := p.top()
		if atEOF && len(p.stack) == 1 && f.state == stateHeaders && !f.terminated {
			return &ParseError{Offset: end, Line: endLine, Err: ErrNoHeader}
		}

		if err := p.closeTop(end, endLine, end); err != nil {
			return err
		}
	}
	return nil
}

// eof closes everything at the end of input and returns the message.
func (p *Parser) eof() (*Message, error) {
	if err := p.closeAll(p.sc.Offset(), p.nextLine, true); err != nil {
		return nil, err
	}
	return p.finish(), nil
}

// finish returns the outermost message just completed.
func (p *Parser) finish() *Message {
	msg := p.result
	p.result = nil
	if msg != nil {
		msg.violations = p.checker.Violations()
	}
	return msg
}

// closeTop pops the top frame, finishing its entity and attaching it to the
// frame below. The at offset is where any violation is reported.
func (p *Parser) closeTop(end int64, endLine int, at int64) error {
	f := p.top()

	if f.state == stateHeaders {
		if f.message && f.depth > 0 && f.empty() {
			// nothing at all was read for an embedded message
			p.stack = p.stack[:len(p.stack)-1]
			return nil
		}

		if f.lines > 0 {
			p.report(IncompleteHeader, at, endLine)
		}

		if err := p.endHeaders(f, []byte{}, end, endLine, true); err != nil {
			return err
		}
	}

	p.stack = p.stack[:len(p.stack)-1]

	o := f.entity.Offsets()
	o.End = end
	o.Octets = end - o.HeadersEnd
	o.Lines = max(0, endLine-f.bodyLine)

	if f.protect >= 0 && f.protect != end {
		p.log.Debug("content length does not match the content",
			"offset", o.HeadersEnd, "content-length", f.protect-o.HeadersEnd, "octets", o.Octets)
	}

	var kind EventKind
	switch e := f.entity.(type) {
	case *Part:
		e.content = p.content(&f.region)
		kind = EventPartEnd

	case *Multipart:
		switch f.state {
		case statePreamble:
			e.preamble = p.content(&f.region)
			p.report(MissingEndBoundary, at, endLine)
		case stateParts:
			p.report(MissingEndBoundary, at, endLine)
		case stateEpilogue:
			e.epilogue = p.content(&f.region)
		}
		kind = EventMultipartEnd

	case *MessagePart:
		kind = EventMessagePartEnd
	}

	p.dispatch(&Event{Kind: kind, Depth: f.depth, Offsets: o, Header: f.entity.GetHeader()})

	var done Entity = f.entity
	var msg *Message
	if f.message {
		msg = f.msg
		p.dispatch(&Event{Kind: EventMessageEnd, Depth: f.depth, Offsets: o, Header: f.entity.GetHeader()})
	}

	if len(p.stack) == 0 {
		p.result = msg
		return nil
	}

	parent := p.top()
	switch pe := parent.entity.(type) {
	case *Multipart:
		pe.parts = append(pe.parts, done)
		pe.delims = append(pe.delims, f.delim)
	case *MessagePart:
		pe.SetMessage(msg)
	}

	return nil
}

// isDigest returns true for multipart/digest, whose parts default to
// message/rfc822.
func (mm *Multipart) isDigest() bool {
	mt, _ := mm.GetMediaType()
	return mt == "multipart/digest"
}
