package param_test

import (
	"mime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zostay/go-mimestream/message/header/param"
)

func TestParse(t *testing.T) {
	t.Parallel()

	mt, err := param.Parse("test:plain")
	assert.Error(t, err)
	assert.Equal(t, param.DefaultMediaType, mt.MediaType())

	mt, err = param.Parse("   ")
	assert.ErrorIs(t, err, param.ErrNoMediaType)
	assert.Equal(t, param.DefaultMediaType, mt.MediaType())

	mt, err = param.Parse("text")
	assert.NoError(t, err)
	assert.Equal(t, "text", mt.MediaType())
	assert.Equal(t, "", mt.Type())
	assert.Equal(t, "", mt.Subtype())
	assert.Equal(t, map[string]string{}, mt.Parameters())

	mt, err = param.Parse("image/jpeg")
	assert.NoError(t, err)
	assert.Equal(t, "image/jpeg", mt.MediaType())
	assert.Equal(t, "image", mt.Type())
	assert.Equal(t, "jpeg", mt.Subtype())
	assert.False(t, mt.IsMultipart())

	mt, err = param.Parse("application/json; Charset=UTF-8; foo=bar")
	assert.NoError(t, err)
	assert.Equal(t, "application/json", mt.MediaType())
	assert.Equal(t, map[string]string{
		"charset": "UTF-8",
		"foo":     "bar",
	}, mt.Parameters())
	assert.Equal(t, "UTF-8", mt.Parameter("CHARSET"))
}

func TestParse_Continuations(t *testing.T) {
	t.Parallel()

	mt, err := param.Parse(`attachment; filename*0="a very long "; filename*1="name.txt"`)
	require.NoError(t, err)
	assert.Equal(t, "attachment", mt.Disposition())
	assert.Equal(t, "a very long name.txt", mt.Filename())

	mt, err = param.Parse(`attachment; filename*=utf-8''%E2%82%AC%20rates.txt`)
	require.NoError(t, err)
	assert.Equal(t, "€ rates.txt", mt.Filename())
}

func TestParse_DamagedParameters(t *testing.T) {
	t.Parallel()

	mt, err := param.Parse(`multipart/mixed; boundary="abc; charset=utf-8; =broken`)
	assert.Error(t, err)
	assert.Equal(t, "multipart/mixed", mt.MediaType())
	assert.True(t, mt.IsMultipart())

	tests := []struct {
		in     string
		mt     string
		params map[string]string
	}{
		{
			in:     "image/png; name=a b.png",
			mt:     "image/png",
			params: map[string]string{"name": "a b.png"},
		},
		{
			in:     `text/plain; charset="utf-8`,
			mt:     "text/plain",
			params: map[string]string{"charset": "utf-8"},
		},
		{
			in:     "multipart/mixed; boundary=b; charset=us-ascii; charset=utf-8",
			mt:     "multipart/mixed",
			params: map[string]string{"boundary": "b", "charset": "utf-8"},
		},
		{
			in:     "Multipart/Mixed; boundary=b;;",
			mt:     "multipart/mixed",
			params: map[string]string{"boundary": "b"},
		},
		{
			in:     "text/plain; ; charset=utf-8",
			mt:     "text/plain",
			params: map[string]string{"charset": "utf-8"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			mt, err := param.Parse(tt.in)
			assert.Error(t, err)
			assert.Equal(t, tt.mt, mt.MediaType())
			assert.Equal(t, tt.params, mt.Parameters())
		})
	}
}

func TestParse_DamagedMediaType(t *testing.T) {
	t.Parallel()

	mt, err := param.Parse("text/; charset=utf-8")
	assert.Error(t, err)
	assert.Equal(t, param.DefaultMediaType, mt.MediaType())
	assert.Equal(t, "utf-8", mt.Charset())
}

func TestParseMediaType(t *testing.T) {
	t.Parallel()

	mt, err := param.ParseMediaType("text; charset=utf-8")
	assert.ErrorIs(t, err, param.ErrNoSubtype)
	assert.Equal(t, param.DefaultMediaType, mt.MediaType())
	assert.Equal(t, map[string]string{"charset": "utf-8"}, mt.Parameters())

	mt, err = param.ParseMediaType("text/html; charset=utf-8")
	assert.NoError(t, err)
	assert.Equal(t, "text/html", mt.MediaType())

	disp, err := param.Parse("attachment; filename=x.txt")
	assert.NoError(t, err)
	assert.Equal(t, "attachment", disp.MediaType())
	assert.Equal(t, "x.txt", disp.Filename())
}

func TestNewWithParams(t *testing.T) {
	t.Parallel()

	mt := param.NewWithParams("text/json", map[string]string{
		"Charset": "trash",
	})

	assert.Equal(t, "text/json", mt.MediaType())
	assert.Equal(t, "text", mt.Type())
	assert.Equal(t, "json", mt.Subtype())
	assert.Equal(t, map[string]string{"charset": "trash"}, mt.Parameters())
	assert.True(t, mt.Has("charset"))
	assert.False(t, mt.Has("boundary"))
}

func TestModify(t *testing.T) {
	t.Parallel()

	mt := param.New("text/json")
	assert.Equal(t, "text/json", mt.String())

	mt2 := param.Modify(mt,
		param.Set(param.Boundary, "abc123"),
		param.Change("application/json"),
	)
	assert.Equal(t, "application/json; boundary=abc123", mt2.String())
	assert.Equal(t, "text/json", mt.String())

	mt2 = param.Modify(mt2,
		param.Change("text/x-json"),
		param.Set(param.Charset, "utf-8"),
		param.Delete(param.Boundary),
	)
	assert.Equal(t, "text/x-json; charset=utf-8", mt2.String())
	assert.Equal(t, []byte("text/x-json; charset=utf-8"), mt2.Bytes())
}

func TestValue_String(t *testing.T) {
	t.Parallel()

	mt := param.NewWithParams("attachment", map[string]string{
		param.Filename: "two words.txt",
		param.Name:     `say "hi"`,
	})
	assert.Equal(t, `attachment; filename="two words.txt"; name="say \"hi\""`, mt.String())

	mt = param.NewWithParams("attachment", map[string]string{
		param.Filename: "naïve.txt",
	})
	assert.Equal(t, "attachment; filename*=utf-8''na%C3%AFve.txt", mt.String())

	back, err := param.Parse(mt.String())
	require.NoError(t, err)
	assert.Equal(t, "naïve.txt", back.Filename())
}

func TestValue_Accessors(t *testing.T) {
	t.Parallel()

	mt := param.NewWithParams("text/plain", map[string]string{
		"boundary": "abc123",
		"charset":  "latin1",
		"name":     "file.txt",
		"blah":     "BLOOP",
	})

	assert.Equal(t, "abc123", mt.Boundary())
	assert.Equal(t, "latin1", mt.Charset())
	assert.Equal(t, "file.txt", mt.Name())
	assert.Equal(t, "BLOOP", mt.Parameter("blah"))
	assert.Equal(t, "", mt.Filename())
}

func TestContinue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"name=short"}, param.Continue("name", "short", 40))

	long := strings.Repeat("abcdefghij", 8)
	secs := param.Continue("filename", long, 40)
	require.Greater(t, len(secs), 1)
	for i, s := range secs {
		assert.LessOrEqual(t, len(s), 40, "section %d", i)
	}
	assert.True(t, strings.HasPrefix(secs[0], `filename*0="`))
	assert.True(t, strings.HasPrefix(secs[1], `filename*1="`))

	_, ps, err := mime.ParseMediaType("attachment; " + strings.Join(secs, "; "))
	require.NoError(t, err)
	assert.Equal(t, long, ps["filename"])

	intl := strings.Repeat("Тест ", 10)
	secs = param.Continue("filename", intl, 50)
	require.Greater(t, len(secs), 1)
	assert.True(t, strings.HasPrefix(secs[0], "filename*0*=utf-8''"))
	for i, s := range secs {
		assert.LessOrEqual(t, len(s), 50, "section %d", i)
	}

	_, ps, err = mime.ParseMediaType("attachment; " + strings.Join(secs, "; "))
	require.NoError(t, err)
	assert.Equal(t, intl, ps["filename"])
}
