package message_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zostay/go-mimestream/message"
)

const simpleMsg = "Subject: Hello\r\nFrom: sterling@example.com\r\n\r\nHello World\r\n"

const nestedMsg = `Subject: nested
Content-Type: multipart/mixed; boundary=outer

preamble
--outer
Content-Type: multipart/alternative; boundary=inner

--inner
Content-Type: text/plain

plain
--inner
Content-Type: text/html

<b>html</b>
--inner--
--outer
Content-Type: text/plain

last
--outer--
epilogue
`

const embeddedMsg = `Subject: outer
Content-Type: message/rfc822

From someone@example.com Mon Jan  1 00:00:00 2024
Subject: inner

inner body
`

const messyMsg = "Content-Type: text/plain\n" +
	"Content-Type: text/html\n" +
	"Bad Header Line\n" +
	"Content-Transfer-Encoding: 7bit\n" +
	"\n" +
	"caf\xc3\xa9\n"

func roundTrip(t *testing.T, in string, opts ...message.ParseOption) *message.Message {
	t.Helper()

	m, err := message.Parse(strings.NewReader(in), opts...)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	n, err := m.WriteTo(buf)
	assert.NoError(t, err)
	assert.Equal(t, int64(len(in)), n)
	assert.Equal(t, in, buf.String())

	return m
}

func TestParse_Simple(t *testing.T) {
	t.Parallel()

	m := roundTrip(t, simpleMsg)

	p, ok := m.Body.(*message.Part)
	require.True(t, ok)

	subject, err := m.Header().GetSubject()
	assert.NoError(t, err)
	assert.Equal(t, "Hello", subject)

	b, err := p.Content().Bytes()
	assert.NoError(t, err)
	assert.Equal(t, "Hello World\r\n", string(b))

	o := m.Offsets()
	assert.Equal(t, int64(0), o.Begin)
	assert.Equal(t, 1, o.BeginLine)
	assert.Equal(t, int64(strings.Index(simpleMsg, "Hello World")), o.HeadersEnd)
	assert.Equal(t, int64(len(simpleMsg)), o.End)
	assert.Equal(t, int64(13), o.Octets)
	assert.Equal(t, 1, o.Lines)

	assert.Empty(t, m.Violations())
	assert.Equal(t, int64(-1), m.MarkerOffset())
}

func TestParse_SeekableSource(t *testing.T) {
	t.Parallel()

	m, err := message.Parse(bytes.NewReader([]byte(nestedMsg)))
	require.NoError(t, err)

	b, err := m.Bytes()
	assert.NoError(t, err)
	assert.Equal(t, nestedMsg, string(b))
}

func TestParse_Nested(t *testing.T) {
	t.Parallel()

	m := roundTrip(t, nestedMsg)
	assert.Empty(t, m.Violations())

	outer, ok := m.Body.(*message.Multipart)
	require.True(t, ok)
	assert.True(t, outer.IsTerminated())

	pre, err := outer.Preamble().Bytes()
	assert.NoError(t, err)
	assert.Equal(t, "preamble", string(pre))

	epi, err := outer.Epilogue().Bytes()
	assert.NoError(t, err)
	assert.Equal(t, "epilogue\n", string(epi))

	parts := outer.GetParts()
	require.Len(t, parts, 2)

	inner, ok := parts[0].(*message.Multipart)
	require.True(t, ok)
	require.Len(t, inner.GetParts(), 2)
	assert.Equal(t, int64(0), inner.Preamble().Len())

	plain, ok := inner.GetParts()[0].(*message.Part)
	require.True(t, ok)
	b, err := plain.Content().Bytes()
	assert.NoError(t, err)
	assert.Equal(t, "plain", string(b))
	assert.Equal(t, 1, plain.Offsets().Lines)
	assert.Equal(t, int64(5), plain.Offsets().Octets)

	html, ok := inner.GetParts()[1].(*message.Part)
	require.True(t, ok)
	mt, err := html.GetMediaType()
	assert.NoError(t, err)
	assert.Equal(t, "text/html", mt)

	last, ok := parts[1].(*message.Part)
	require.True(t, ok)
	b, err = last.Content().Bytes()
	assert.NoError(t, err)
	assert.Equal(t, "last", string(b))
	assert.Equal(t, int64(strings.Index(nestedMsg, "last")), last.Offsets().HeadersEnd)
}

func TestParse_Embedded(t *testing.T) {
	t.Parallel()

	m := roundTrip(t, embeddedMsg)

	mp, ok := m.Body.(*message.MessagePart)
	require.True(t, ok)

	inner := mp.Message()
	require.NotNil(t, inner)
	assert.Equal(t, "From someone@example.com Mon Jan  1 00:00:00 2024\n", string(inner.Marker))
	assert.Equal(t, int64(strings.Index(embeddedMsg, "From someone")), inner.MarkerOffset())

	subject, err := inner.Header().GetSubject()
	assert.NoError(t, err)
	assert.Equal(t, "inner", subject)

	assert.Same(t, inner.Body.Offsets(), mp.Offsets().Message)
}

func TestParse_EncodedEmbeddedStaysLeaf(t *testing.T) {
	t.Parallel()

	const in = "Content-Type: message/rfc822\nContent-Transfer-Encoding: base64\n\nU3ViamVjdDogeAoKeQo=\n"
	m := roundTrip(t, in)

	_, ok := m.Body.(*message.Part)
	assert.True(t, ok)
}

func TestParse_DigestDefault(t *testing.T) {
	t.Parallel()

	const in = `Content-Type: multipart/digest; boundary=d

--d

Subject: digested

text
--d--
`
	m := roundTrip(t, in)

	mm, ok := m.Body.(*message.Multipart)
	require.True(t, ok)
	require.Len(t, mm.GetParts(), 1)

	mp, ok := mm.GetParts()[0].(*message.MessagePart)
	require.True(t, ok)
	require.NotNil(t, mp.Message())

	subject, err := mp.Message().Header().GetSubject()
	assert.NoError(t, err)
	assert.Equal(t, "digested", subject)
}

func TestParse_Violations(t *testing.T) {
	t.Parallel()

	m := roundTrip(t, messyMsg)

	assert.Equal(t, []message.Violation{
		{
			Kind:   message.MultipleContentType,
			Offset: int64(strings.Index(messyMsg, "Content-Type: text/html")),
			Line:   2,
		},
		{
			Kind:   message.InvalidHeader,
			Offset: int64(strings.Index(messyMsg, "Bad Header")),
			Line:   3,
		},
		{
			Kind:   message.UnexpectedEightBit,
			Offset: int64(strings.Index(messyMsg, "\xc3")),
			Line:   6,
		},
	}, m.Violations())

	pv, err := m.Header().GetContentType()
	require.NotNil(t, pv, err)
	assert.Equal(t, "text/plain", pv.MediaType())
}

func TestParse_BareLinefeed(t *testing.T) {
	t.Parallel()

	const in = "Subject: x\r\n\r\nline1\nline2\nline3\r\n"
	m := roundTrip(t, in)

	assert.Equal(t, []message.Violation{
		{Kind: message.BareLinefeed, Offset: int64(strings.Index(in, "line1") + 5), Line: 3},
	}, m.Violations())
}

func TestParse_MissingBodySeparator(t *testing.T) {
	t.Parallel()

	const in = "From: a@b\r\nTo: c@d\r\n\rHello\r\n"
	m := roundTrip(t, in)

	assert.Equal(t, []message.Violation{
		{Kind: message.MissingBodySeparator, Offset: 20, Line: 3},
	}, m.Violations())

	p, ok := m.Body.(*message.Part)
	require.True(t, ok)
	assert.Equal(t, 2, p.Len())

	b, err := p.Content().Bytes()
	assert.NoError(t, err)
	assert.Equal(t, "Hello\r\n", string(b))
}

func TestParse_NoHeader(t *testing.T) {
	t.Parallel()

	_, err := message.Parse(strings.NewReader("From: someone@example.com"))
	assert.ErrorIs(t, err, message.ErrNoHeader)

	var perr *message.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, int64(25), perr.Offset)

	_, err = message.Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, message.ErrNoHeader)
}

func TestParse_IncompleteHeader(t *testing.T) {
	t.Parallel()

	const in = "Subject: cut short\nX-Other: value\n"
	m := roundTrip(t, in)

	assert.Equal(t, []message.Violation{
		{Kind: message.IncompleteHeader, Offset: int64(len(in)), Line: 3},
	}, m.Violations())

	p, ok := m.Body.(*message.Part)
	require.True(t, ok)
	assert.Equal(t, int64(0), p.Content().Len())
	assert.True(t, p.HasSeparator())
	assert.Empty(t, p.Separator())
}

func TestParse_LargeHeader(t *testing.T) {
	t.Parallel()

	in := "Subject: " + strings.Repeat("x", 100) + "\n\nbody\n"
	_, err := message.Parse(strings.NewReader(in), message.WithMaxHeaderLength(50))
	assert.ErrorIs(t, err, message.ErrLargeHeader)
}

func TestParse_TruncatedAfterBoundary(t *testing.T) {
	t.Parallel()

	const in = "Content-Type: multipart/mixed; boundary=x\n\n--x\n"
	m := roundTrip(t, in)

	mm, ok := m.Body.(*message.Multipart)
	require.True(t, ok)
	assert.False(t, mm.IsTerminated())
	require.Len(t, mm.GetParts(), 1)

	p, ok := mm.GetParts()[0].(*message.Part)
	require.True(t, ok)
	assert.Equal(t, int64(0), p.Content().Len())

	assert.Equal(t, []message.Violation{
		{Kind: message.MissingEndBoundary, Offset: int64(len(in)), Line: 4},
	}, m.Violations())
}

func TestParse_OuterBoundaryClosesInner(t *testing.T) {
	t.Parallel()

	const in = `Content-Type: multipart/mixed; boundary=outer

--outer
Content-Type: multipart/mixed; boundary=inner

--inner

never closed
--outer--
`
	m := roundTrip(t, in)

	outer, ok := m.Body.(*message.Multipart)
	require.True(t, ok)
	require.Len(t, outer.GetParts(), 1)

	inner, ok := outer.GetParts()[0].(*message.Multipart)
	require.True(t, ok)
	assert.False(t, inner.IsTerminated())

	p, ok := inner.GetParts()[0].(*message.Part)
	require.True(t, ok)
	b, err := p.Content().Bytes()
	assert.NoError(t, err)
	assert.Equal(t, "never closed", string(b))

	assert.Equal(t, []message.Violation{
		{Kind: message.MissingEndBoundary, Offset: int64(strings.Index(in, "--outer--")), Line: 9},
	}, m.Violations())
}

func TestParse_BoundaryMatching(t *testing.T) {
	t.Parallel()

	const in = "Content-Type: multipart/mixed; boundary=x\n" +
		"\n" +
		"--x  \n" +
		"\n" +
		"--xx\n" +
		" --x\n" +
		"--x-- not a closer\n" +
		"--x--\t\n"
	m := roundTrip(t, in)
	assert.Empty(t, m.Violations())

	mm, ok := m.Body.(*message.Multipart)
	require.True(t, ok)
	require.Len(t, mm.GetParts(), 1)
	assert.True(t, mm.IsTerminated())

	p, ok := mm.GetParts()[0].(*message.Part)
	require.True(t, ok)
	b, err := p.Content().Bytes()
	assert.NoError(t, err)
	assert.Equal(t, "--xx\n --x\n--x-- not a closer", string(b))
}

func TestParse_MissingBoundary(t *testing.T) {
	t.Parallel()

	const in = "Content-Type: multipart/mixed\n\n--x\nstuff\n--x--\n"
	m := roundTrip(t, in)

	_, ok := m.Body.(*message.Part)
	assert.True(t, ok)

	assert.Equal(t, []message.Violation{
		{Kind: message.MissingBoundaryParameter, Offset: 0, Line: 1},
	}, m.Violations())
}

func TestParse_DuplicateParameter(t *testing.T) {
	t.Parallel()

	const in = "Content-Type: multipart/mixed; boundary=b; charset=us-ascii; charset=utf-8\n" +
		"\n" +
		"--b\n" +
		"\n" +
		"one\n" +
		"--b\n" +
		"\n" +
		"two\n" +
		"--b--\n"
	m := roundTrip(t, in)

	mm, ok := m.Body.(*message.Multipart)
	require.True(t, ok)
	assert.Len(t, mm.GetParts(), 2)

	assert.Equal(t, []message.Violation{
		{Kind: message.InvalidContentType, Offset: 0, Line: 1},
	}, m.Violations())
}

func TestParse_NoSubtype(t *testing.T) {
	t.Parallel()

	const in = "Content-Type: multipart; boundary=b\n\n--b\n\none\n--b--\n"
	m := roundTrip(t, in)

	_, ok := m.Body.(*message.Part)
	assert.True(t, ok)

	assert.Equal(t, []message.Violation{
		{Kind: message.InvalidContentType, Offset: 0, Line: 1},
	}, m.Violations())
}

func TestParse_IllegalTransferEncoding(t *testing.T) {
	t.Parallel()

	const in = "Content-Type: multipart/mixed; boundary=x\nContent-Transfer-Encoding: base64\n\n--x\n\na\n--x--\n"
	m := roundTrip(t, in)

	assert.Equal(t, []message.Violation{
		{Kind: message.IllegalContentTransferEncoding, Offset: int64(strings.Index(in, "Content-Transfer")), Line: 2},
	}, m.Violations())
}

func TestParse_Depth(t *testing.T) {
	t.Parallel()

	m := roundTrip(t, nestedMsg, message.WithoutMultipart())
	_, ok := m.Body.(*message.Part)
	assert.True(t, ok)

	m = roundTrip(t, nestedMsg, message.WithoutRecursion())
	outer, ok := m.Body.(*message.Multipart)
	require.True(t, ok)
	require.Len(t, outer.GetParts(), 2)
	_, ok = outer.GetParts()[0].(*message.Part)
	assert.True(t, ok)

	m = roundTrip(t, nestedMsg, message.WithUnlimitedRecursion())
	outer, ok = m.Body.(*message.Multipart)
	require.True(t, ok)
	_, ok = outer.GetParts()[0].(*message.Multipart)
	assert.True(t, ok)
}

func TestParse_SmallChunks(t *testing.T) {
	t.Parallel()

	roundTrip(t, nestedMsg, message.WithChunkSize(3))
	roundTrip(t, simpleMsg, message.WithChunkSize(1))
	roundTrip(t, messyMsg, message.WithChunkSize(7), message.WithMaxLineLength(8))
}

func TestParseContext_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, err := message.ParseContext(ctx, strings.NewReader(simpleMsg))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, m)
}

func TestParser_Reset(t *testing.T) {
	t.Parallel()

	p := message.NewParser(context.Background(), strings.NewReader(simpleMsg))
	m, err := p.Next()
	require.NoError(t, err)
	subject, _ := m.Header().GetSubject()
	assert.Equal(t, "Hello", subject)

	_, err = p.Next()
	assert.Error(t, err)

	p.Reset(context.Background(), strings.NewReader(nestedMsg))
	m, err = p.Next()
	require.NoError(t, err)
	subject, _ = m.Header().GetSubject()
	assert.Equal(t, "nested", subject)

	b, err := m.Bytes()
	assert.NoError(t, err)
	assert.Equal(t, nestedMsg, string(b))
}
