package header_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zostay/go-addr/pkg/addr"

	"github.com/zostay/go-mimestream/message/header"
	"github.com/zostay/go-mimestream/message/header/field"
	"github.com/zostay/go-mimestream/message/header/param"
)

func TestParse_RoundTrip(t *testing.T) {
	t.Parallel()

	const block = "Subject: =?utf-8?Q?Andrew=2C_you=27ve_got_Smart_Matches=E2=84=A2=21?=\r\n" +
		"Mime-Version: 1.0\r\n" +
		"X-Folded: one\r\n\ttwo\r\n" +
		"not a field\r\n"

	h := header.Parse([]byte(block), header.CRLF)
	require.Equal(t, 4, h.Len())
	h.SetSeparator([]byte("\r\n"))

	assert.Equal(t, block+"\r\n", h.String())
	assert.True(t, h.GetField(3).IsInvalid())

	s, err := h.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "Andrew, you've got Smart Matches™!", s)

	v, err := h.Get("x-folded")
	require.NoError(t, err)
	assert.Equal(t, "one two", v)
}

func TestWordEncodingHeader(t *testing.T) {
	t.Parallel()

	h := &header.Header{}
	require.NoError(t, h.Set("To", "\"Name ☺\" <user@host>"))

	s := &bytes.Buffer{}
	_, err := h.WriteTo(s)
	require.NoError(t, err)
	assert.Equal(t, "To: =?utf-8?b?TmFtZSDimLo=?= <user@host>\n\n", s.String())

	to, err := h.Get("To")
	require.NoError(t, err)
	assert.Equal(t, "\"Name ☺\" <user@host>", to)
}

func TestHeader_SetErrors(t *testing.T) {
	t.Parallel()

	h := header.New(header.LF)
	assert.ErrorIs(t, h.Set("", "x"), field.ErrEmptyName)

	var bne *field.BadNameError
	assert.ErrorAs(t, h.Set("Bad Name", "x"), &bne)
	assert.Equal(t, 0, h.Len())
}

func TestHeader_SetReplacesAll(t *testing.T) {
	t.Parallel()

	h := header.Parse([]byte("Comments: a\nSubject: s\ncomments: b\ncomments: c\n"), header.LF)

	require.NoError(t, h.Set("Comments", "only"))
	assert.Equal(t, "Comments: only\nSubject: s\n\n", h.String())

	require.NoError(t, h.SetComments("x", "y"))
	cs, err := h.GetComments()
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, cs)

	require.NoError(t, h.SetAll("Comments"))
	_, err = h.GetComments()
	assert.ErrorIs(t, err, header.ErrNoSuchField)
}

func TestHeader_Get(t *testing.T) {
	t.Parallel()

	h := header.Parse([]byte("A: 1\nB: 2\nA: 3\n"), header.LF)

	v, err := h.Get("a")
	assert.ErrorIs(t, err, header.ErrManyFields)
	assert.Equal(t, "1", v)

	vs, err := h.GetAll("A")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, vs)

	_, err = h.Get("C")
	assert.ErrorIs(t, err, header.ErrNoSuchField)
}

func TestHeader_ContentType(t *testing.T) {
	t.Parallel()

	h := header.Parse([]byte("Content-Type: text/plain; charset=UTF-8\nBadly-Formatted-Type: x-text:foo; charset=UTF-8\n"), header.LF)

	mt, err := h.GetContentType()
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=UTF-8", mt.String())
	assert.Equal(t, "text/plain", mt.MediaType())

	cs, err := h.GetCharset()
	require.NoError(t, err)
	assert.Equal(t, "UTF-8", cs)

	_, err = h.GetBoundary()
	assert.ErrorIs(t, err, header.ErrNoSuchFieldParameter)

	mt, err = h.GetParamValue("Some-Other-Type")
	assert.ErrorIs(t, err, header.ErrNoSuchField)
	assert.Nil(t, mt)

	mt, err = h.GetParamValue("badly-formatted-type")
	assert.Error(t, err)
	assert.Equal(t, param.DefaultMediaType, mt.MediaType())
}

func TestHeader_SetMediaType(t *testing.T) {
	t.Parallel()

	h := header.Parse([]byte("Content-Type: text/plain; charset=latin1\n"), header.LF)

	require.NoError(t, h.SetMediaType("text/html"))
	assert.Equal(t, "Content-Type: text/html; charset=latin1\n\n", h.String())

	require.NoError(t, h.SetCharset("utf-8"))
	mt, err := h.GetMediaType()
	require.NoError(t, err)
	assert.Equal(t, "text/html", mt)

	cs, err := h.GetCharset()
	require.NoError(t, err)
	assert.Equal(t, "utf-8", cs)

	e := header.New(header.LF)
	assert.ErrorIs(t, e.SetBoundary("abc"), header.ErrNoSuchField)
	require.NoError(t, e.SetMediaType("multipart/mixed"))
	require.NoError(t, e.SetBoundary("abc"))
	b, err := e.GetBoundary()
	require.NoError(t, err)
	assert.Equal(t, "abc", b)
}

func TestHeader_ContentDisposition(t *testing.T) {
	t.Parallel()

	h := header.New(header.LF)
	require.NoError(t, h.SetPresentation("attachment"))
	require.NoError(t, h.SetFilename("report.pdf"))

	p, err := h.GetPresentation()
	require.NoError(t, err)
	assert.Equal(t, "attachment", p)

	fn, err := h.GetFilename()
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", fn)

	assert.Equal(t, "Content-Disposition: attachment; filename=report.pdf\n\n", h.String())
}

func TestHeader_AddressLists(t *testing.T) {
	t.Parallel()

	h := header.Parse([]byte("Delivered-To: one@example.com\nDelivered-To: two@example.com, three@example.com\nTo: \n"), header.LF)

	emails := []string{"one@example.com", "two@example.com", "three@example.com"}
	als, err := h.GetAllAddressLists("Delivered-To")
	require.NoError(t, err)

	i := 0
	for _, al := range als {
		for _, a := range al {
			assert.Equal(t, emails[i], a.Address())
			i++
		}
	}
	assert.Equal(t, 3, i)

	al, err := h.GetTo()
	require.NoError(t, err)
	assert.Len(t, al, 0)
}

func TestHeader_AddressParserModes(t *testing.T) {
	t.Parallel()

	const bad = "Sterling <sterling@example.com>; Bob bob@example.com"
	h := header.Parse([]byte("To: "+bad+"\n"), header.LF)

	h.SetAddressParserMode(header.AddressStrict)
	_, err := h.GetTo()
	assert.Error(t, err)

	h.SetAddressParserMode(header.AddressLoose)
	_, err = h.GetTo()
	require.NoError(t, err)

	h.SetAddressParserMode(header.AddressLooser)
	al, err := h.GetTo()
	require.NoError(t, err)
	require.Len(t, al, 2)
	assert.Equal(t, "sterling@example.com", al[0].Address())
	assert.Equal(t, "bob@example.com", al[1].Address())

	assert.Equal(t, "looser", header.AddressLooser.String())
}

func TestHeader_SetAddressList(t *testing.T) {
	t.Parallel()

	h := header.Parse([]byte("Subject: test\n"), header.LF)

	people, err := addr.ParseEmailAddressList("sterling@example.com, steve@example.com, bob@example.com")
	require.NoError(t, err)

	require.NoError(t, h.SetAddressList("To", people...))
	assert.Equal(t, "Subject: test\nTo: sterling@example.com, steve@example.com, bob@example.com\n\n", h.String())

	require.NoError(t, h.SetFrom("steve@example.com"))
	from, err := h.GetFrom()
	require.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, "steve@example.com", from[0].Address())

	assert.ErrorIs(t, h.SetCc(42), header.ErrWrongAddressType)
}

func TestHeader_Date(t *testing.T) {
	t.Parallel()

	h := header.Parse([]byte("Date: Mon, 05 Dec 2022 16:46:38Z\n"), header.LF)
	d, err := h.GetDate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, time.December, 5, 16, 46, 38, 0, time.UTC), d)

	h = header.Parse([]byte("Subject: testing\n"), header.LF)
	require.NoError(t, h.SetDate(time.Date(2022, time.December, 5, 16, 46, 38, 0, time.UTC)))
	assert.Equal(t, "Subject: testing\nDate: Mon, 05 Dec 2022 16:46:38 +0000\n\n", h.String())

	_, err = header.ParseTime("not a date at all")
	assert.Error(t, err)
}

func TestHeader_MIMEVersion(t *testing.T) {
	t.Parallel()

	h := header.Parse([]byte("MIME-Version: 1.0 (produced by something)\n"), header.LF)
	v, err := h.GetMIMEVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Major)
	assert.Equal(t, int64(0), v.Minor)

	h = header.Parse([]byte("MIME-Version: one\n"), header.LF)
	_, err = h.GetMIMEVersion()
	assert.Error(t, err)
}

func TestHeader_ContentLengthAndEncoding(t *testing.T) {
	t.Parallel()

	h := header.Parse([]byte("Content-Length: 42\nContent-Transfer-Encoding: Base64 (yes)\n"), header.LF)

	n, err := h.GetContentLength()
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	cte, err := h.GetTransferEncoding()
	require.NoError(t, err)
	assert.Equal(t, "base64", cte)

	require.NoError(t, h.SetContentLength(7))
	n, err = h.GetContentLength()
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	h = header.Parse([]byte("Content-Length: -1\n"), header.LF)
	_, err = h.GetContentLength()
	assert.Error(t, err)
}

func TestHeader_References(t *testing.T) {
	t.Parallel()

	h := header.New(header.CRLF)
	require.NoError(t, h.SetReferences("<a@example.com>", "<b@example.com>"))

	refs, err := h.GetReferences()
	require.NoError(t, err)
	assert.Equal(t, []string{"<a@example.com>", "<b@example.com>"}, refs)
	assert.Equal(t, "References: <a@example.com> <b@example.com>\r\n\r\n", h.String())
}

func TestHeader_Keywords(t *testing.T) {
	t.Parallel()

	h := header.Parse([]byte("Keywords: a, b\nKeywords: c\n"), header.LF)
	ks, err := h.GetKeywords()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ks)

	require.NoError(t, h.SetKeywords("x", "y"))
	assert.Equal(t, "Keywords: x, y\n\n", h.String())
}

func TestHeader_CacheInvalidation(t *testing.T) {
	t.Parallel()

	h := header.Parse([]byte("Subject: a\nTo: a@example.com\n"), header.LF)
	al, err := h.GetTo()
	require.NoError(t, err)
	require.Len(t, al, 1)

	require.NoError(t, h.Set("To", "b@example.com, c@example.com"))
	al, err = h.GetTo()
	require.NoError(t, err)
	assert.Len(t, al, 2)

	require.NoError(t, h.DeleteField(1))
	_, err = h.GetTo()
	assert.ErrorIs(t, err, header.ErrNoSuchField)
	assert.ErrorIs(t, h.DeleteField(5), header.ErrIndexOutOfRange)
}

func TestHeader_Clone(t *testing.T) {
	t.Parallel()

	h := header.Parse([]byte("Subject: a\n"), header.LF)
	c := h.Clone()
	require.NoError(t, c.SetSubject("b"))

	s, _ := h.GetSubject()
	assert.Equal(t, "a", s)
	s, _ = c.GetSubject()
	assert.Equal(t, "b", s)
}

func TestHeader_FormatOptions(t *testing.T) {
	t.Parallel()

	h := header.Parse([]byte("X-Kept:   raw  spacing\n"), header.LF)
	require.NoError(t, h.SetSubject(strings.Repeat("word ", 20)))

	fo := field.DefaultFormatOptions()
	fo.MaxLineLength = 40
	fo.NewLineFormat = field.Dos
	require.NoError(t, h.SetFormatOptions(fo))

	out := h.String()
	assert.True(t, strings.HasPrefix(out, "X-Kept:   raw  spacing\nSubject: word"))
	assert.Contains(t, out, "\r\n word")

	fo = field.DefaultFormatOptions()
	fo.MaxLineLength = 3
	assert.ErrorIs(t, h.SetFormatOptions(fo), field.ErrLineLength)
}

func TestHeader_InsertBeforeField(t *testing.T) {
	t.Parallel()

	h := header.Parse([]byte("B: 2\n"), header.LF)
	require.NoError(t, h.InsertBeforeField(-5, "A", "1"))
	require.NoError(t, h.InsertBeforeField(99, "C", "3"))
	assert.Equal(t, "A: 1\nB: 2\nC: 3\n\n", h.String())

	assert.NotNil(t, h.GetFieldByID(field.Unknown))
	assert.Nil(t, h.GetField(3))
	assert.Equal(t, "B", h.GetFieldNamed("b", 0).Name())
	assert.Len(t, h.ListFields(), 3)
}
