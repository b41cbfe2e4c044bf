package message

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"

	"github.com/zostay/go-mimestream/message/header"
	"github.com/zostay/go-mimestream/message/header/param"
)

// ErrNoBoundary is returned when writing a Multipart whose Content-Type lacks
// a boundary parameter.
var ErrNoBoundary = errors.New("the boundary parameter is missing from Content-Type")

// Multipart is a multipart MIME entity. When building these the MIME type set
// in the Content-Type header should always start with multipart/*.
type Multipart struct {
	// Header is the header for the entity.
	header.Header

	// preamble and epilogue are here so can do a byte-for-byte round trip in
	// case there are extra bytes before the first boundary or after the last
	// one.
	preamble, epilogue *Content

	// delims holds the raw delimiter line written before each part, along
	// with the line break before it. A nil entry is generated on output.
	delims [][]byte
	parts  []Entity

	// closer is the raw close delimiter. When nil, a close delimiter is only
	// written if the multipart was not parsed, since a parsed multipart
	// without one was truncated.
	closer []byte
	parsed bool

	// boundary is the boundary the raw delimiters were read with
	boundary string

	offsets Offsets
}

func (mm *Multipart) entity() {}

// NewMultipart returns a Multipart with a Content-Type header set to the given
// multipart media type and a freshly generated boundary, with the given parts
// attached.
func NewMultipart(mediaType string, parts ...Entity) (*Multipart, error) {
	mm := &Multipart{}
	if err := mm.SetMediaType(mediaType); err != nil {
		return nil, err
	}
	if err := mm.SetBoundary(GenerateBoundary()); err != nil {
		return nil, err
	}

	for _, p := range parts {
		mm.AddPart(p)
	}

	return mm, nil
}

// MultipartAlternative returns a Multipart with a Content-Type header set to
// multipart/alternative and the given parts attached.
func MultipartAlternative(parts ...Entity) *Multipart {
	mm, _ := NewMultipart("multipart/alternative", parts...)
	return mm
}

// MultipartMixed returns a Multipart with a Content-Type header set to
// multipart/mixed and the given parts attached.
func MultipartMixed(parts ...Entity) *Multipart {
	mm, _ := NewMultipart("multipart/mixed", parts...)
	return mm
}

// GetHeader returns the header for the entity.
func (mm *Multipart) GetHeader() *header.Header {
	return &mm.Header
}

// Offsets returns where the multipart was found in the input.
func (mm *Multipart) Offsets() *Offsets {
	return &mm.offsets
}

// GetParts returns the sub-parts of this multipart or nil if there aren't
// any.
func (mm *Multipart) GetParts() []Entity {
	return mm.parts
}

// AddPart appends a part. The delimiter before it is generated on output.
func (mm *Multipart) AddPart(p Entity) {
	mm.parts = append(mm.parts, p)
	mm.delims = append(mm.delims, nil)
}

// RemovePart removes the nth part. The raw delimiters of the remaining parts
// are kept, except that the delimiter following the removed part takes over
// the line break that came before the removed one.
func (mm *Multipart) RemovePart(n int) error {
	if n < 0 || n >= len(mm.parts) {
		return header.ErrIndexOutOfRange
	}

	lead := mm.leadOf(n)
	mm.parts = slices.Delete(mm.parts, n, n+1)
	mm.delims = slices.Delete(mm.delims, n, n+1)

	switch {
	case n < len(mm.delims):
		if mm.delims[n] != nil {
			mm.delims[n] = relead(mm.delims[n], lead)
		}
	case mm.closer != nil:
		mm.closer = relead(mm.closer, lead)
	}

	return nil
}

// leadOf returns the line break written before the delimiter of the nth part.
func (mm *Multipart) leadOf(n int) []byte {
	if raw := mm.delims[n]; raw != nil {
		if ix := bytes.Index(raw, []byte("--")); ix >= 0 {
			return raw[:ix]
		}
		return nil
	}

	if n > 0 || mm.preamble.Len() > 0 {
		return mm.Break().Bytes()
	}
	return nil
}

// relead replaces the line break before a raw delimiter.
func relead(raw, lead []byte) []byte {
	ix := bytes.Index(raw, []byte("--"))
	if ix < 0 {
		return raw
	}

	d := make([]byte, 0, len(lead)+len(raw)-ix)
	d = append(d, lead...)
	return append(d, raw[ix:]...)
}

// Preamble returns the bytes found before the first delimiter.
func (mm *Multipart) Preamble() *Content {
	return mm.preamble
}

// SetPreamble replaces the preamble.
func (mm *Multipart) SetPreamble(b []byte) {
	mm.preamble = NewContent(b)
}

// Epilogue returns the bytes found after the close delimiter.
func (mm *Multipart) Epilogue() *Content {
	return mm.epilogue
}

// SetEpilogue replaces the epilogue.
func (mm *Multipart) SetEpilogue(b []byte) {
	mm.epilogue = NewContent(b)
}

// IsTerminated returns false if the multipart was parsed and no close
// delimiter was found.
func (mm *Multipart) IsTerminated() bool {
	return mm.closer != nil || !mm.parsed
}

// WriteTo writes the header, the parts, and the delimiters between them to w.
// This method will fail with an error if the Content-Type has no boundary
// parameter.
func (mm *Multipart) WriteTo(w io.Writer) (int64, error) {
	return writeEntity(context.Background(), w, mm, nil)
}

// writeBoundary returns the boundary to write the multipart with. It is taken
// from the first Content-Type field the same way the parser reads it, so a
// duplicate field or a damaged parameter does not lose it. The boundary the
// multipart was read with is used when the field no longer has one.
func (mm *Multipart) writeBoundary() string {
	if f := mm.GetFieldNamed(header.ContentType, 0); f != nil {
		pv, _ := param.ParseMediaType(f.Value())
		if b := pv.Boundary(); b != "" {
			return b
		}
	}
	return mm.boundary
}

// delimiter returns the delimiter to write before the nth part, generating or
// rewriting it when the boundary changed since it was read.
func (mm *Multipart) delimiter(n int, boundary string, lbr []byte) []byte {
	raw := mm.delims[n]
	if raw == nil {
		d := make([]byte, 0, len(boundary)+2+2*len(lbr))
		if n > 0 || mm.preamble.Len() > 0 {
			d = append(d, lbr...)
		}
		d = append(d, "--"...)
		d = append(d, boundary...)
		return append(d, lbr...)
	}

	return mm.rebound(raw, boundary)
}

// closeDelimiter returns the close delimiter to write, if any.
func (mm *Multipart) closeDelimiter(boundary string, lbr []byte) []byte {
	if mm.closer == nil {
		if mm.parsed {
			return nil
		}

		d := make([]byte, 0, len(boundary)+4+2*len(lbr))
		if len(mm.parts) > 0 || mm.preamble.Len() > 0 {
			d = append(d, lbr...)
		}
		d = append(d, "--"...)
		d = append(d, boundary...)
		d = append(d, "--"...)
		return append(d, lbr...)
	}

	return mm.rebound(mm.closer, boundary)
}

// rebound replaces the boundary in a raw delimiter.
func (mm *Multipart) rebound(raw []byte, boundary string) []byte {
	if boundary == mm.boundary {
		return raw
	}

	old := append([]byte("--"), mm.boundary...)
	ix := bytes.Index(raw, old)
	if ix < 0 {
		return raw
	}

	d := make([]byte, 0, len(raw)-len(mm.boundary)+len(boundary))
	d = append(d, raw[:ix+2]...)
	d = append(d, boundary...)
	return append(d, raw[ix+len(old):]...)
}
