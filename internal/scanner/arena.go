package scanner

import "io"

// Arena holds a copy of every byte read from a source that cannot be read
// back on its own. It only ever grows, so ranges handed out remain valid for
// as long as the Arena is referenced.
type Arena struct {
	buf []byte
}

func (a *Arena) append(p []byte) {
	a.buf = append(a.buf, p...)
}

// Len returns the number of bytes held.
func (a *Arena) Len() int64 {
	return int64(len(a.buf))
}

// ReadAt implements io.ReaderAt.
func (a *Arena) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, io.ErrUnexpectedEOF
	}
	if off >= int64(len(a.buf)) {
		return 0, io.EOF
	}

	n := copy(p, a.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
