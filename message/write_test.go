package message_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zostay/go-mimestream/message"
	"github.com/zostay/go-mimestream/message/header"
	"github.com/zostay/go-mimestream/message/header/field"
)

func TestMessage_WriteNormalizeBoundaries(t *testing.T) {
	t.Parallel()

	const in = "Content-Type: multipart/mixed; boundary=x\n" +
		"\n" +
		"--x  \n" +
		"\n" +
		"a\n" +
		"--x--\t\n"

	m, err := message.Parse(strings.NewReader(in))
	require.NoError(t, err)

	fo := field.DefaultFormatOptions()
	fo.NormalizeBoundaries = true

	buf := &bytes.Buffer{}
	_, err = m.Write(context.Background(), buf, fo)
	require.NoError(t, err)
	assert.Equal(t, "Content-Type: multipart/mixed; boundary=x\n\n--x\n\na\n--x--\n", buf.String())

	buf.Reset()
	_, err = m.Write(context.Background(), buf, field.DefaultFormatOptions())
	require.NoError(t, err)
	assert.Equal(t, in, buf.String())
}

func TestMessage_WriteEnsureNewLine(t *testing.T) {
	t.Parallel()

	const in = "Subject: no newline\n\nbody"
	m := roundTrip(t, in)

	fo := field.DefaultFormatOptions()
	fo.EnsureNewLine = true
	fo.NewLineFormat = field.Dos

	buf := &bytes.Buffer{}
	n, err := m.Write(context.Background(), buf, fo)
	require.NoError(t, err)
	assert.Equal(t, in+"\r\n", buf.String())
	assert.Equal(t, int64(len(in)+2), n)

	buf.Reset()
	_, err = roundTrip(t, simpleMsg).Write(context.Background(), buf, fo)
	require.NoError(t, err)
	assert.Equal(t, simpleMsg, buf.String())
}

func TestMessage_WriteModifiedHeader(t *testing.T) {
	t.Parallel()

	m, err := message.Parse(strings.NewReader(simpleMsg))
	require.NoError(t, err)

	require.NoError(t, m.Header().SetSubject("Goodbye"))

	fo := field.DefaultFormatOptions()
	fo.NewLineFormat = field.Dos

	buf := &bytes.Buffer{}
	_, err = m.Write(context.Background(), buf, fo)
	require.NoError(t, err)
	assert.Equal(t, strings.Replace(simpleMsg, "Hello\r\n", "Goodbye\r\n", 1), buf.String())
}

func TestMessage_WriteCanceled(t *testing.T) {
	t.Parallel()

	m, err := message.Parse(strings.NewReader(nestedMsg))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf := &bytes.Buffer{}
	n, err := m.Write(ctx, buf, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), n)
	assert.Equal(t, 0, buf.Len())
}

func TestMessage_Constructed(t *testing.T) {
	t.Parallel()

	h := header.New(header.CRLF)
	require.NoError(t, h.SetSubject("built"))
	require.NoError(t, h.SetMediaType("text/plain"))

	m := message.NewMessage(message.NewPart(h, []byte("Hi\r\n")))
	assert.Equal(t, int64(-1), m.MarkerOffset())

	b, err := m.Bytes()
	require.NoError(t, err)

	again, err := message.Parse(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Empty(t, again.Violations())

	subject, err := again.Header().GetSubject()
	assert.NoError(t, err)
	assert.Equal(t, "built", subject)

	c, err := again.Body.(*message.Part).Content().Bytes()
	assert.NoError(t, err)
	assert.Equal(t, "Hi\r\n", string(c))
}

func TestMessage_EmbeddedWrite(t *testing.T) {
	t.Parallel()

	inner := message.NewMessage(textPart(t, "inside"))
	inner.Marker = []byte("From nobody Mon Jan  1 00:00:00 2024\n")

	mp := message.NewMessagePart(inner)
	mt, err := mp.GetMediaType()
	require.NoError(t, err)
	assert.Equal(t, "message/rfc822", mt)

	b, err := message.NewMessage(mp).Bytes()
	require.NoError(t, err)

	again, err := message.Parse(bytes.NewReader(b))
	require.NoError(t, err)

	amp, ok := again.Body.(*message.MessagePart)
	require.True(t, ok)
	require.NotNil(t, amp.Message())
	assert.Equal(t, inner.Marker, amp.Message().Marker)

	c, err := amp.Message().Body.(*message.Part).Content().Bytes()
	assert.NoError(t, err)
	assert.Equal(t, "inside", string(c))
}

func TestPart_DecodedContent(t *testing.T) {
	t.Parallel()

	h := header.New(header.LF)
	require.NoError(t, h.SetMediaType("text/plain"))
	require.NoError(t, h.SetTransferEncoding("base64"))

	p := message.NewPart(h, nil)
	require.NoError(t, p.SetDecodedContent([]byte("Hello World")))

	raw, err := p.Content().Bytes()
	require.NoError(t, err)
	assert.Equal(t, "SGVsbG8gV29ybGQ=", string(raw))

	buf := &bytes.Buffer{}
	_, err = buf.ReadFrom(p.DecodedReader())
	require.NoError(t, err)
	assert.Equal(t, "Hello World", buf.String())
}

func TestMessage_WriteDamagedContentType(t *testing.T) {
	t.Parallel()

	const body = "\n--b\n\none\n--b--\n"
	tests := []struct {
		name string
		ct   string
	}{
		{"duplicate field", "Content-Type: multipart/mixed; boundary=b\nContent-Type: text/plain\n"},
		{"empty parameters", "Content-Type: multipart/mixed; boundary=b;;\n"},
		{"unquoted space", "Content-Type: multipart/mixed; boundary=b; name=a b\n"},
		{"open quote", "Content-Type: multipart/mixed; boundary=b; charset=\"utf-8\n"},
		{"duplicate parameter", "Content-Type: multipart/mixed; boundary=b; charset=us-ascii; charset=utf-8\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := tt.ct + body
			for _, chunk := range []int{1, 3, message.DefaultChunkSize} {
				m := roundTrip(t, in, message.WithChunkSize(chunk))

				mm, ok := m.Body.(*message.Multipart)
				require.True(t, ok)
				require.Len(t, mm.GetParts(), 1)

				c, err := mm.GetParts()[0].(*message.Part).Content().Bytes()
				require.NoError(t, err)
				assert.Equal(t, "one", string(c))
			}
		})
	}
}

func TestMessage_WriteDuplicateContentTypeNewBoundary(t *testing.T) {
	t.Parallel()

	const in = "Content-Type: multipart/mixed; boundary=b\n" +
		"Content-Type: text/plain\n" +
		"\n" +
		"--b\n" +
		"\n" +
		"one\n" +
		"--b--\n"

	m, err := message.Parse(strings.NewReader(in))
	require.NoError(t, err)

	mm := m.Body.(*message.Multipart)
	require.NoError(t, mm.SetBoundary("c"))

	b, err := m.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(b), "\n--c\n\none\n--c--\n")
}
