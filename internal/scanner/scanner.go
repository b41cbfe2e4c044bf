// Package scanner provides the line cursor the message parser is built upon.
// Unlike bufio.Scanner, it never drops the line terminator on the floor: each
// Line reports which terminator ended it, its absolute byte offset, and its
// line number, so that every byte read can be accounted for when the message
// is written back out.
package scanner

import (
	"context"
	"errors"
	"io"
)

// Constants related to the default scanner configuration.
const (
	// DefaultChunkSize is the number of bytes requested from the source on
	// each read.
	DefaultChunkSize = 16_384

	// DefaultMaxLineLength is the longest line the scanner will buffer before
	// it hands out the line in pieces.
	DefaultMaxLineLength = 64 * 1024
)

// ErrNegativeRead is returned when the source io.Reader misbehaves.
var ErrNegativeRead = errors.New("scanner: source returned negative count from Read")

// Ending names the line terminator that ended a Line.
type Ending uint8

// The possible line terminators.
const (
	EndNone Ending = iota // no terminator: final line at EOF or a partial line
	EndLF                 // \n
	EndCRLF               // \r\n
	EndCR                 // bare \r
)

// Len returns the number of bytes taken up by the terminator.
func (e Ending) Len() int {
	switch e {
	case EndLF, EndCR:
		return 1
	case EndCRLF:
		return 2
	default:
		return 0
	}
}

// Bytes returns the terminator bytes.
func (e Ending) Bytes() []byte {
	switch e {
	case EndLF:
		return []byte{'\n'}
	case EndCR:
		return []byte{'\r'}
	case EndCRLF:
		return []byte{'\r', '\n'}
	default:
		return nil
	}
}

// String returns a printable name for the terminator.
func (e Ending) String() string {
	switch e {
	case EndLF:
		return "LF"
	case EndCR:
		return "CR"
	case EndCRLF:
		return "CRLF"
	default:
		return "none"
	}
}

// Line is a single line handed out by the Scanner.
type Line struct {
	// Offset is the absolute offset of the first byte of the line.
	Offset int64

	// Number is the 1-based line number. The pieces of a line that was too
	// long to buffer share the same number.
	Number int

	// Content holds the bytes of the line without the terminator. The slice
	// refers to the scanner buffer and is only valid until the next call to
	// Next.
	Content []byte

	// Ending is the terminator that ended the line.
	Ending Ending

	// Partial is set when the line was cut because it exceeded the maximum
	// line length. The rest of the line follows in the next Line.
	Partial bool

	// Continued is set when this Line is the remainder of a partial line. A
	// continued line does not start at the beginning of a physical line.
	Continued bool
}

// Len returns the number of bytes the line takes up in the stream.
func (l *Line) Len() int64 {
	return int64(len(l.Content) + l.Ending.Len())
}

// End returns the offset just past the line terminator.
func (l *Line) End() int64 {
	return l.Offset + l.Len()
}

// Raw returns a copy of the line with its terminator.
func (l *Line) Raw() []byte {
	raw := make([]byte, 0, l.Len())
	raw = append(raw, l.Content...)
	return append(raw, l.Ending.Bytes()...)
}

// IsBlank returns true if the line is a real, empty line.
func (l *Line) IsBlank() bool {
	return !l.Continued && len(l.Content) == 0 && l.Ending != EndNone
}

// Option configures a Scanner.
type Option func(s *Scanner)

// WithChunkSize sets the number of bytes read from the source at a time.
func WithChunkSize(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithMaxLineLength sets the longest line the scanner will hold in its buffer
// before handing out the line in pieces.
func WithMaxLineLength(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.maxLine = n
		}
	}
}

// WithoutRetention tells the scanner not to keep the bytes it reads from
// sources that cannot be read back. Source() will return nil in that case.
func WithoutRetention() Option {
	return func(s *Scanner) { s.retain = false }
}

// Scanner reads lines from an io.Reader. It is not safe for concurrent use.
type Scanner struct {
	ctx context.Context
	r   io.Reader

	chunkSize int
	maxLine   int
	retain    bool

	buf        []byte
	start, end int

	offset    int64 // offset of buf[start]
	number    int   // number of the next line
	continued bool  // the previous line was partial
	eof       bool
	err       error

	src   io.ReaderAt
	base  int64
	arena *Arena
}

// New returns a Scanner reading from r. The context is checked before every
// read of r.
//
// If r is an io.ReaderAt and an io.Seeker, the scanner will remember the
// current seek position and Source() will return r itself. Otherwise, the
// scanner keeps a copy of everything it reads (unless WithoutRetention() is
// given) so that ranges of the stream may be read back later.
func New(ctx context.Context, r io.Reader, opts ...Option) *Scanner {
	s := &Scanner{
		chunkSize: DefaultChunkSize,
		maxLine:   DefaultMaxLineLength,
		retain:    true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset(ctx, r)
	return s
}

// Reset discards all scanner state and starts reading from r.
func (s *Scanner) Reset(ctx context.Context, r io.Reader) {
	if ctx == nil {
		ctx = context.Background()
	}

	s.ctx = ctx
	s.r = r
	if cap(s.buf) < s.chunkSize {
		s.buf = make([]byte, s.chunkSize)
	}
	s.buf = s.buf[:cap(s.buf)]
	s.start, s.end = 0, 0
	s.offset = 0
	s.number = 1
	s.continued = false
	s.eof = false
	s.err = nil
	s.src, s.base, s.arena = nil, 0, nil

	ra, isReaderAt := r.(io.ReaderAt)
	sk, isSeeker := r.(io.Seeker)
	if isReaderAt && isSeeker {
		if pos, err := sk.Seek(0, io.SeekCurrent); err == nil {
			s.src, s.base = ra, pos
			return
		}
	}

	if s.retain {
		s.arena = &Arena{}
		s.src = s.arena
	}
}

// SetContext replaces the context checked before reads.
func (s *Scanner) SetContext(ctx context.Context) {
	if ctx != nil {
		s.ctx = ctx
	}
}

// Source returns an io.ReaderAt that can read back any range of bytes the
// scanner has already handed out and the base offset to add to the offsets
// reported in Line. It returns nil if the bytes are not available.
func (s *Scanner) Source() (io.ReaderAt, int64) {
	return s.src, s.base
}

// Offset returns the absolute offset of the next byte to be handed out.
func (s *Scanner) Offset() int64 {
	return s.offset
}

// LineNumber returns the number of the next line to be handed out.
func (s *Scanner) LineNumber() int {
	return s.number
}

// Next returns the next line. It returns io.EOF once the source is exhausted
// and all buffered bytes have been handed out. Any other error from the source
// or from the context is returned as is.
func (s *Scanner) Next() (Line, error) {
	for {
		if i, e := s.findEnding(); i >= 0 {
			return s.emit(i, e, false), nil
		}

		if s.eof {
			if s.start == s.end {
				if s.err != nil {
					return Line{}, s.err
				}
				return Line{}, io.EOF
			}
			return s.emit(s.end-s.start, EndNone, false), nil
		}

		// a pending CR can only sit in the last buffered byte, so cutting at
		// maxLine never separates a CR from its LF
		if s.end-s.start > s.maxLine {
			return s.emit(s.maxLine, EndNone, true), nil
		}

		if err := s.fill(); err != nil {
			return Line{}, err
		}
	}
}

// findEnding locates the first terminator in the buffered bytes and returns
// the length of the content before it. It returns -1 when more data is needed
// to decide, which is always the case for a CR in the last buffered byte
// until the source reports EOF.
func (s *Scanner) findEnding() (int, Ending) {
	data := s.buf[s.start:s.end]
	for i, c := range data {
		switch c {
		case '\n':
			return i, EndLF
		case '\r':
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i, EndCRLF
				}
				return i, EndCR
			}
			if s.eof {
				return i, EndCR
			}
			return -1, EndNone
		}
	}
	return -1, EndNone
}

func (s *Scanner) emit(n int, e Ending, partial bool) Line {
	l := Line{
		Offset:    s.offset,
		Number:    s.number,
		Content:   s.buf[s.start : s.start+n],
		Ending:    e,
		Partial:   partial,
		Continued: s.continued,
	}

	adv := n + e.Len()
	s.start += adv
	s.offset += int64(adv)
	s.continued = partial
	if !partial && e != EndNone {
		s.number++
	}

	return l
}

// fill reads the next chunk from the source, compacting or growing the buffer
// as needed.
func (s *Scanner) fill() error {
	if err := s.ctx.Err(); err != nil {
		return err
	}

	if s.start > 0 {
		copy(s.buf, s.buf[s.start:s.end])
		s.end -= s.start
		s.start = 0
	}

	if len(s.buf)-s.end < s.chunkSize {
		nb := make([]byte, 2*len(s.buf)+s.chunkSize)
		copy(nb, s.buf[:s.end])
		s.buf = nb
	}

	n, err := s.r.Read(s.buf[s.end : s.end+s.chunkSize])
	if n < 0 {
		return ErrNegativeRead
	}
	if n > 0 && s.arena != nil {
		s.arena.append(s.buf[s.end : s.end+n])
	}
	s.end += n

	switch {
	case errors.Is(err, io.EOF):
		s.eof = true
	case err != nil:
		s.eof = true
		s.err = err
		return err
	}

	return nil
}
