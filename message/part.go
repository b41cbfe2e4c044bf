package message

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/zostay/go-mimestream/message/header"
	"github.com/zostay/go-mimestream/message/transfer"
)

// Part is a leaf entity: a header and a range of content. The content is kept
// exactly as found, which means any Content-Transfer-Encoding is still
// applied to it.
type Part struct {
	// Header will contain the header of the part.
	header.Header

	content *Content
	offsets Offsets
}

// NewPart returns a leaf part with the given header and content. A nil
// header is replaced with an empty one.
func NewPart(h *header.Header, content []byte) *Part {
	if h == nil {
		h = header.New(header.LF)
	}
	return &Part{Header: *h, content: NewContent(content)}
}

// AttachmentFile is a constructor that will create a Part from the given
// filename and MIME type. This will read the given file path from the disk,
// make that filename the name of an attachment, and return it. It will return
// an error if there's a problem reading the file from the disk.
//
// The last argument is the transfer encoding to use, which is applied to the
// file content. Use transfer.None if you do not want to set a transfer
// encoding.
func AttachmentFile(fn, mt, te string) (*Part, error) {
	b, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}

	m := &Part{}
	if err := m.SetMediaType(mt); err != nil {
		return nil, err
	}
	if err := m.SetPresentation("attachment"); err != nil {
		return nil, err
	}
	if err := m.SetFilename(filepath.Base(fn)); err != nil {
		return nil, err
	}

	if te != transfer.None {
		if err := m.SetTransferEncoding(te); err != nil {
			return nil, err
		}
	}

	if err := m.SetDecodedContent(b); err != nil {
		return nil, err
	}

	return m, nil
}

func (p *Part) entity() {}

// GetHeader returns the header for the part.
func (p *Part) GetHeader() *header.Header {
	return &p.Header
}

// Offsets returns where the part was found in the input.
func (p *Part) Offsets() *Offsets {
	return &p.offsets
}

// Content returns the range holding the content of the part.
func (p *Part) Content() *Content {
	return p.content
}

// SetContent replaces the content of the part. The bytes are written out as
// is, so they must already have any transfer encoding applied.
func (p *Part) SetContent(b []byte) {
	p.content = NewContent(b)
}

// SetDecodedContent replaces the content of the part after applying the
// transfer encoding named by the Content-Transfer-Encoding of the part.
func (p *Part) SetDecodedContent(b []byte) error {
	enc, err := transfer.Encode(&p.Header, b)
	if err != nil {
		return err
	}
	p.content = NewContent(enc)
	return nil
}

// Reader returns a reader for the content exactly as found.
func (p *Part) Reader() io.Reader {
	return p.content.Reader()
}

// DecodedReader returns a reader for the content with the
// Content-Transfer-Encoding removed.
func (p *Part) DecodedReader() io.Reader {
	return transfer.ApplyTransferDecoding(&p.Header, p.content.Reader())
}

// WriteTo writes the header and content of the part to w.
func (p *Part) WriteTo(w io.Writer) (int64, error) {
	return writeEntity(context.Background(), w, p, nil)
}
