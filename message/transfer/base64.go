package transfer

import (
	"encoding/base64"
	"io"
)

const defaultBase64LineLength = 76

var defaultBase64LineBreak = []byte{'\n'}

// newlineWriter breaks the bytes written through it into lines of a fixed
// length. No line break follows the last line.
type newlineWriter struct {
	every int
	acc   int
	lbr   []byte
	w     io.Writer
}

func (nw *newlineWriter) Write(b []byte) (int, error) {
	n := 0
	for len(b) > 0 {
		if nw.acc == nw.every {
			if _, err := nw.w.Write(nw.lbr); err != nil {
				return n, err
			}
			nw.acc = 0
		}

		chunk := min(len(b), nw.every-nw.acc)
		ln, err := nw.w.Write(b[:chunk])
		n += ln
		nw.acc += ln
		if err != nil {
			return n, err
		}

		b = b[chunk:]
	}

	return n, nil
}

// NewBase64Encoder will translate all bytes written to the returned
// io.WriteCloser into base64 encoding and write those to the give io.Writer.
func NewBase64Encoder(w io.Writer) io.WriteCloser {
	return newBase64Encoder(w, defaultBase64LineBreak)
}

func newBase64Encoder(w io.Writer, lbr []byte) io.WriteCloser {
	if len(lbr) == 0 {
		lbr = defaultBase64LineBreak
	}

	enc := base64.NewEncoder(base64.StdEncoding, &newlineWriter{
		every: defaultBase64LineLength,
		lbr:   lbr,
		w:     w,
	})
	return &writer{enc, enc}
}

// NewBase64Decoder will translate all bytes read from the given io.Reader as
// base64 and return the binary data to the returned io.Reader.
func NewBase64Decoder(r io.Reader) io.Reader {
	return base64.NewDecoder(base64.StdEncoding, r)
}
