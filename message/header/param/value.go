package param

import (
	"errors"
	"mime"
	"sort"
	"strings"
)

const (
	// Charset is the name of the charset parameter that may be present in the
	// Content-Type header.
	Charset = "charset"

	// Boundary is the name of the boundary parameter that may be present in the
	// Content-Type header of a multipart entity.
	Boundary = "boundary"

	// Filename is the name of the filename parameter that may be present in the
	// Content-Disposition header.
	Filename = "filename"

	// Name is the name of the name parameter, an older way of naming a file in
	// the Content-Type header.
	Name = "name"
)

// DefaultMediaType is the media type reported by Parse when the value given
// cannot be made sense of.
const DefaultMediaType = "application/octet-stream"

// ErrNoMediaType is returned by Parse when the value is blank.
var ErrNoMediaType = errors.New("no media type")

// ErrNoSubtype is returned by ParseMediaType when the media type has no
// subtype.
var ErrNoSubtype = errors.New("media type has no subtype")

// Value represents a parsed parameterized header field, such as is used in the
// Content-Type and Content-Disposition headers. A Value is immutable. Use
// Modify() to derive a changed copy.
type Value struct {
	v  string
	ps map[string]string
}

// Parse takes a header field body and parses it as a Value. Parameter names
// are lowercased and RFC 2231 continuations and charset encoding are
// reassembled.
//
// A damaged value is never fatal. If the media type itself cannot be parsed,
// a Value for DefaultMediaType is returned along with the error. If only the
// parameters are damaged, the media type is kept, the parameters that could be
// recovered are kept and the error is returned.
func Parse(v string) (*Value, error) {
	if strings.TrimSpace(v) == "" {
		return New(DefaultMediaType), ErrNoMediaType
	}

	mt, ps, err := mime.ParseMediaType(v)
	if err == nil {
		return &Value{mt, ps}, nil
	}

	if mt == "" {
		mt = leadingType(v)
	}
	if mt == "" {
		mt = DefaultMediaType
	}
	return &Value{mt, recoverParams(v)}, err
}

// ParseMediaType works like Parse, but also requires the value to be a
// type/subtype pair, as a Content-Type must be. A value without a subtype
// results in DefaultMediaType with its parameters kept.
func ParseMediaType(v string) (*Value, error) {
	pv, err := Parse(v)
	if !strings.Contains(pv.v, "/") {
		return &Value{DefaultMediaType, pv.ps}, ErrNoSubtype
	}
	return pv, err
}

// leadingType returns the lowercased media type before the first semicolon or
// an empty string if it is not a token or a token/token pair.
func leadingType(v string) string {
	lead := strings.TrimSpace(split(v)[0])
	typ, sub, hasSub := strings.Cut(lead, "/")
	if !isToken(typ) || (hasSub && !isToken(sub)) {
		return ""
	}
	return strings.ToLower(lead)
}

// recoverParams makes a best effort to pull name=value pairs out of a damaged
// parameter list, one parameter at a time. A segment that does not parse is
// kept as the raw text after the first equal sign.
func recoverParams(v string) map[string]string {
	ps := map[string]string{}
	segs := split(v)
	if len(segs) < 2 {
		return ps
	}

	for _, seg := range segs[1:] {
		_, p, err := mime.ParseMediaType("x/x;" + seg)
		if err == nil {
			for k, pv := range p {
				ps[k] = pv
			}
			continue
		}

		name, value, found := strings.Cut(seg, "=")
		name = strings.ToLower(strings.TrimSpace(name))
		if !found || !isToken(name) {
			continue
		}
		ps[name] = rawValue(strings.TrimSpace(value))
	}
	return ps
}

// rawValue removes the quotes from a damaged parameter value. An opening quote
// without a partner is dropped.
func rawValue(v string) string {
	if !strings.HasPrefix(v, `"`) {
		return v
	}

	v = v[1:]
	if end := strings.LastIndexByte(v, '"'); end >= 0 {
		v = v[:end]
	}
	return strings.ReplaceAll(v, `\"`, `"`)
}

// split breaks a parameterized value at the semicolons that are not inside a
// quoted string.
func split(v string) []string {
	var (
		segs   []string
		start  int
		quoted bool
	)
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case '\\':
			if quoted {
				i++
			}
		case '"':
			quoted = !quoted
		case ';':
			if !quoted {
				segs = append(segs, v[start:i])
				start = i + 1
			}
		}
	}
	return append(segs, v[start:])
}

// New creates a new parameterized header field with no parameters.
func New(v string) *Value {
	return &Value{v, map[string]string{}}
}

// NewWithParams creates a new parameterized header field with the given
// parameters. The map is copied and its keys lowercased.
func NewWithParams(v string, ps map[string]string) *Value {
	pv := New(v)
	for k, p := range ps {
		pv.ps[strings.ToLower(k)] = p
	}
	return pv
}

// Modifier is a modification to apply to a Value when calling Modify().
type Modifier func(*Value)

// Change is a Modifier that replaces the primary value of the Value.
func Change(value string) Modifier {
	return func(pv *Value) {
		pv.v = value
	}
}

// Set is a Modifier that sets a parameter with the given name on the Value.
func Set(name, value string) Modifier {
	return func(pv *Value) {
		pv.ps[strings.ToLower(name)] = value
	}
}

// Delete is a Modifier that removes the parameter with the given name from the
// Value.
func Delete(name string) Modifier {
	return func(pv *Value) {
		delete(pv.ps, strings.ToLower(name))
	}
}

// Modify clones a Value, applies the given modifications and returns the new
// Value:
//
//	v, _ := param.Parse("multipart/mixed; boundary=abc123; charset=latin1")
//	nv := param.Modify(v, param.Change("multipart/alternative"), param.Set("charset", "utf-8"))
func Modify(pv *Value, changes ...Modifier) *Value {
	c := pv.Clone()
	for _, change := range changes {
		change(c)
	}
	return c
}

// Value returns the primary value, the part before the first semicolon.
func (pv *Value) Value() string {
	return pv.v
}

// Disposition is a synonym for Value() and returns the Content-Disposition,
// such as "inline" or "attachment".
func (pv *Value) Disposition() string {
	return pv.v
}

// MediaType is a synonym for Value() and returns the Content-Type value, such
// as "text/html" or "multipart/mixed".
func (pv *Value) MediaType() string {
	return pv.v
}

// Type returns the part of MediaType() before the slash, or an empty string if
// there is no slash.
func (pv *Value) Type() string {
	if ix := strings.IndexByte(pv.v, '/'); ix >= 0 {
		return pv.v[:ix]
	}
	return ""
}

// Subtype returns the part of MediaType() after the slash, or an empty string
// if there is no slash.
func (pv *Value) Subtype() string {
	if ix := strings.IndexByte(pv.v, '/'); ix >= 0 {
		return pv.v[ix+1:]
	}
	return ""
}

// IsMultipart returns true for multipart/* media types.
func (pv *Value) IsMultipart() bool {
	return strings.EqualFold(pv.Type(), "multipart")
}

// Parameters returns the parameters as a map. Do not modify it.
func (pv *Value) Parameters() map[string]string {
	return pv.ps
}

// Parameter returns the value of the parameter with the given name.
func (pv *Value) Parameter(k string) string {
	return pv.ps[strings.ToLower(k)]
}

// Has returns true if the parameter is present, even if it is empty.
func (pv *Value) Has(k string) bool {
	_, ok := pv.ps[strings.ToLower(k)]
	return ok
}

// Filename returns the value of the "filename" parameter.
func (pv *Value) Filename() string {
	return pv.ps[Filename]
}

// Name returns the value of the "name" parameter.
func (pv *Value) Name() string {
	return pv.ps[Name]
}

// Charset returns the value of the "charset" parameter.
func (pv *Value) Charset() string {
	return pv.ps[Charset]
}

// Boundary returns the value of the "boundary" parameter.
func (pv *Value) Boundary() string {
	return pv.ps[Boundary]
}

// String returns the serialized Value with the parameters in name order.
// Values are quoted when required and values holding anything but ASCII are
// written in the RFC 2231 extended form.
func (pv *Value) String() string {
	pks := make([]string, 0, len(pv.ps))
	for k := range pv.ps {
		pks = append(pks, k)
	}
	sort.Strings(pks)

	parts := make([]string, len(pks)+1)
	parts[0] = pv.v
	for n, k := range pks {
		parts[n+1] = Format(k, pv.ps[k])
	}

	return strings.Join(parts, "; ")
}

// Bytes returns String() as bytes.
func (pv *Value) Bytes() []byte {
	return []byte(pv.String())
}

// Clone returns a deep copy of the Value.
func (pv *Value) Clone() *Value {
	return NewWithParams(pv.v, pv.ps)
}
