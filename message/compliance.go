package message

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/zostay/go-mimestream/message/header"
	"github.com/zostay/go-mimestream/message/header/field"
	"github.com/zostay/go-mimestream/message/header/param"
)

// Kind names a compliance violation.
type Kind int

// The kinds of compliance violation.
const (
	InvalidHeader Kind = iota + 1
	IncompleteHeader
	MissingBodySeparator
	MissingBoundaryParameter
	MissingEndBoundary
	MultipleContentType
	MultipleContentTransferEncoding
	IllegalContentTransferEncoding
	UnexpectedEightBit
	UnexpectedNul
	BareLinefeed
	BareCarriageReturn
	InvalidContentType
	InvalidContentLength
	InvalidMimeVersion
)

var kindNames = map[Kind]string{
	InvalidHeader:                   "InvalidHeader",
	IncompleteHeader:                "IncompleteHeader",
	MissingBodySeparator:            "MissingBodySeparator",
	MissingBoundaryParameter:        "MissingBoundaryParameter",
	MissingEndBoundary:              "MissingEndBoundary",
	MultipleContentType:             "MultipleContentType",
	MultipleContentTransferEncoding: "MultipleContentTransferEncoding",
	IllegalContentTransferEncoding:  "IllegalContentTransferEncoding",
	UnexpectedEightBit:              "UnexpectedEightBit",
	UnexpectedNul:                   "UnexpectedNul",
	BareLinefeed:                    "BareLinefeed",
	BareCarriageReturn:              "BareCarriageReturn",
	InvalidContentType:              "InvalidContentType",
	InvalidContentLength:            "InvalidContentLength",
	InvalidMimeVersion:              "InvalidMimeVersion",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Violation is a recoverable deviation from the message format, recorded at
// the exact place it was found.
type Violation struct {
	Kind   Kind
	Offset int64
	Line   int
}

// String describes the violation.
func (v Violation) String() string {
	return fmt.Sprintf("%s at offset %d (line %d)", v.Kind, v.Offset, v.Line)
}

// Checker collects compliance violations. It is a Handler: the parser feeds
// it every structural event, from which it checks the header of each entity.
// The parser reports what it finds in the raw bytes through Report.
type Checker struct {
	violations []Violation
	notify     func(Violation)
}

// NewChecker returns an empty Checker.
func NewChecker() *Checker {
	return &Checker{}
}

// Report records a violation.
func (c *Checker) Report(kind Kind, offset int64, line int) {
	v := Violation{Kind: kind, Offset: offset, Line: line}
	c.violations = append(c.violations, v)
	if c.notify != nil {
		c.notify(v)
	}
}

// Violations returns the violations recorded so far, ordered by offset.
func (c *Checker) Violations() []Violation {
	vs := slices.Clone(c.violations)
	slices.SortStableFunc(vs, func(a, b Violation) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		default:
			return 0
		}
	})
	return vs
}

// Reset forgets every violation recorded.
func (c *Checker) Reset() {
	c.violations = nil
}

// HandleEvent checks the header delivered with begin events.
func (c *Checker) HandleEvent(ev *Event) {
	switch ev.Kind {
	case EventMessageBegin:
		c.checkMessage(ev.Header)
	case EventPartBegin, EventMultipartBegin, EventMessagePartBegin:
		c.checkEntity(ev.Header)
	}
}

func (c *Checker) reportField(kind Kind, f *field.Field) {
	c.Report(kind, f.Offset(), f.Line())
}

// checkMessage checks the fields only a message header has.
func (c *Checker) checkMessage(h *header.Header) {
	if h == nil {
		return
	}

	if f := h.GetFieldNamed(header.MIMEVersion, 0); f != nil {
		if _, err := h.GetMIMEVersion(); err != nil {
			c.reportField(InvalidMimeVersion, f)
		}
	}
}

// identityEncodings are the transfer encodings permitted on multipart and
// message entities.
var identityEncodings = map[string]bool{
	"":       true,
	"7bit":   true,
	"8bit":   true,
	"binary": true,
}

// checkEntity checks the fields of any entity header.
func (c *Checker) checkEntity(h *header.Header) {
	if h == nil {
		return
	}

	for _, f := range h.ListFields() {
		if f.IsInvalid() {
			c.reportField(InvalidHeader, f)
		}
	}

	cts := h.GetAllFieldsNamed(header.ContentType)
	for _, f := range cts[min(1, len(cts)):] {
		c.reportField(MultipleContentType, f)
	}

	ctes := h.GetAllFieldsNamed(header.ContentTransferEncoding)
	for _, f := range ctes[min(1, len(ctes)):] {
		c.reportField(MultipleContentTransferEncoding, f)
	}

	var pv *param.Value
	if len(cts) > 0 {
		var err error
		pv, err = param.ParseMediaType(cts[0].Value())
		if err != nil {
			c.reportField(InvalidContentType, cts[0])
		}

		if pv.IsMultipart() && pv.Boundary() == "" {
			c.reportField(MissingBoundaryParameter, cts[0])
		}
	}

	if pv != nil && len(ctes) > 0 {
		switch pv.Type() {
		case "multipart", "message":
			if !identityEncodings[transferEncoding(ctes[0])] {
				c.reportField(IllegalContentTransferEncoding, ctes[0])
			}
		}
	}

	if f := h.GetFieldNamed(header.ContentLength, 0); f != nil {
		if _, err := parseContentLength(f); err != nil {
			c.reportField(InvalidContentLength, f)
		}
	}
}

// transferEncoding returns the normalized value of a
// Content-Transfer-Encoding field.
func transferEncoding(f *field.Field) string {
	v := f.Value()
	if ix := strings.IndexByte(v, '('); ix >= 0 {
		v = v[:ix]
	}
	return strings.ToLower(strings.TrimSpace(v))
}

// parseContentLength reads the value of a Content-Length field.
func parseContentLength(f *field.Field) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(f.Value()), 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
