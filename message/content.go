package message

import (
	"bytes"
	"io"
)

// Content describes a range of bytes. Parsed content refers back to the
// input: to the input itself when it can be read at an offset, or otherwise to
// the copy kept by the parser. Nothing is copied until the content is read.
type Content struct {
	src    io.ReaderAt
	offset int64
	length int64
}

// NewContent returns a Content holding the given bytes.
func NewContent(b []byte) *Content {
	return &Content{src: bytes.NewReader(b), length: int64(len(b))}
}

func newContentAt(src io.ReaderAt, offset, length int64) *Content {
	if length < 0 {
		length = 0
	}
	return &Content{src: src, offset: offset, length: length}
}

// Len returns the number of bytes in the range. A nil Content is empty.
func (c *Content) Len() int64 {
	if c == nil {
		return 0
	}
	return c.length
}

// Retained returns false if the bytes of the range can no longer be read.
func (c *Content) Retained() bool {
	return c == nil || c.length == 0 || c.src != nil
}

// Reader returns a reader over the range. Each call returns a new reader
// starting at the beginning of the range.
func (c *Content) Reader() io.Reader {
	if c.Len() == 0 {
		return bytes.NewReader(nil)
	}
	if c.src == nil {
		return errReader{ErrNoContent}
	}
	return io.NewSectionReader(c.src, c.offset, c.length)
}

// Bytes reads the whole range into memory.
func (c *Content) Bytes() ([]byte, error) {
	if c.Len() == 0 {
		return []byte{}, nil
	}

	b := make([]byte, c.length)
	_, err := io.ReadFull(c.Reader(), b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// WriteTo copies the range to w.
func (c *Content) WriteTo(w io.Writer) (int64, error) {
	if c.Len() == 0 {
		return 0, nil
	}
	n, err := io.Copy(w, c.Reader())
	if err == nil && n < c.length {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

// errReader fails every read with the same error.
type errReader struct {
	err error
}

func (r errReader) Read([]byte) (int, error) {
	return 0, r.err
}
