package message

import (
	"context"
	"fmt"
	"io"

	"github.com/zostay/go-mimestream/message/header"
	"github.com/zostay/go-mimestream/message/header/field"
)

// serializer writes an entity tree back out. It checks the context before
// every write and counts the bytes written.
type serializer struct {
	ctx context.Context
	w   io.Writer
	fo  *field.FormatOptions

	n     int64
	last  byte
	wrote bool
}

func newSerializer(ctx context.Context, w io.Writer, fo *field.FormatOptions) *serializer {
	if ctx == nil {
		ctx = context.Background()
	}
	return &serializer{ctx: ctx, w: w, fo: fo}
}

// writeEntity writes a single entity with the given options.
func writeEntity(ctx context.Context, w io.Writer, e Entity, fo *field.FormatOptions) (int64, error) {
	s := newSerializer(ctx, w, fo)
	err := s.entity(e)
	return s.n, err
}

// Write implements io.Writer.
func (s *serializer) Write(p []byte) (int, error) {
	if err := s.ctx.Err(); err != nil {
		return 0, err
	}

	n, err := s.w.Write(p)
	s.n += int64(n)
	if n > 0 {
		s.last = p[n-1]
		s.wrote = true
	}
	return n, err
}

func (s *serializer) write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	_, err := s.Write(p)
	return err
}

// lineBreak returns the line break to use for generated delimiters.
func (s *serializer) lineBreak(h *header.Header) []byte {
	if s.fo != nil {
		return s.fo.NewLineFormat.Bytes()
	}
	return h.Break().Bytes()
}

func (s *serializer) message(m *Message) error {
	if err := s.write(m.Marker); err != nil {
		return err
	}

	if m.Body == nil {
		return nil
	}

	return s.entity(m.Body)
}

func (s *serializer) header(h *header.Header) error {
	_, err := h.WriteFormatted(s, s.fo)
	return err
}

func (s *serializer) content(c *Content) error {
	_, err := c.WriteTo(s)
	return err
}

func (s *serializer) delimiter(raw []byte) error {
	if s.fo != nil && s.fo.NormalizeBoundaries {
		raw = normalizeDelimiter(raw)
	}
	return s.write(raw)
}

func (s *serializer) entity(e Entity) error {
	switch e := e.(type) {
	case *Part:
		if err := s.header(&e.Header); err != nil {
			return err
		}
		return s.content(e.content)

	case *Multipart:
		return s.multipart(e)

	case *MessagePart:
		if err := s.header(&e.Header); err != nil {
			return err
		}
		if e.message == nil {
			return nil
		}
		return s.message(e.message)

	default:
		return fmt.Errorf("unknown entity type %T", e)
	}
}

func (s *serializer) multipart(mm *Multipart) error {
	boundary := mm.writeBoundary()
	if boundary == "" {
		return ErrNoBoundary
	}

	lbr := s.lineBreak(&mm.Header)

	if err := s.header(&mm.Header); err != nil {
		return err
	}

	if err := s.content(mm.preamble); err != nil {
		return err
	}

	for i, part := range mm.parts {
		if err := s.delimiter(mm.delimiter(i, boundary, lbr)); err != nil {
			return err
		}

		if err := s.entity(part); err != nil {
			return err
		}
	}

	if err := s.delimiter(mm.closeDelimiter(boundary, lbr)); err != nil {
		return err
	}

	return s.content(mm.epilogue)
}

// finish ends the output with a line break when asked to.
func (s *serializer) finish() error {
	if s.fo == nil || !s.fo.EnsureNewLine || !s.wrote {
		return nil
	}
	if s.last == '\n' || s.last == '\r' {
		return nil
	}
	return s.write(s.fo.NewLineFormat.Bytes())
}
