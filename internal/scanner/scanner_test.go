package scanner_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zostay/go-mimestream/internal/scanner"
)

type line struct {
	content string
	ending  scanner.Ending
	offset  int64
	number  int
}

func readAll(t *testing.T, s *scanner.Scanner) []line {
	t.Helper()

	var ls []line
	for {
		l, err := s.Next()
		if errors.Is(err, io.EOF) {
			return ls
		}
		require.NoError(t, err)
		ls = append(ls, line{string(l.Content), l.Ending, l.Offset, l.Number})
	}
}

func TestScannerEndings(t *testing.T) {
	t.Parallel()

	const in = "a\r\nbb\ncc\rd\r\r\ne"
	s := scanner.New(context.Background(), strings.NewReader(in))
	assert.Equal(t, []line{
		{"a", scanner.EndCRLF, 0, 1},
		{"bb", scanner.EndLF, 3, 2},
		{"cc", scanner.EndCR, 6, 3},
		{"d", scanner.EndCR, 9, 4},
		{"", scanner.EndCRLF, 11, 5},
		{"e", scanner.EndNone, 13, 6},
	}, readAll(t, s))
}

func TestScannerCRAtChunkBoundary(t *testing.T) {
	t.Parallel()

	// every read returns one byte, so each CR arrives alone at the end of the
	// buffer and must not be mistaken for a bare CR
	const in = "To: x\r\n\r\nbody\r"
	s := scanner.New(context.Background(), iotest.OneByteReader(strings.NewReader(in)), scanner.WithChunkSize(1))
	assert.Equal(t, []line{
		{"To: x", scanner.EndCRLF, 0, 1},
		{"", scanner.EndCRLF, 7, 2},
		{"body", scanner.EndCR, 9, 3},
	}, readAll(t, s))
}

func TestScannerLongLine(t *testing.T) {
	t.Parallel()

	in := strings.Repeat("x", 25) + "\n\n"
	s := scanner.New(context.Background(), strings.NewReader(in),
		scanner.WithChunkSize(4),
		scanner.WithMaxLineLength(10),
	)

	var (
		got   bytes.Buffer
		parts int
	)
	for {
		l, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)

		parts++
		got.Write(l.Raw())
		if parts < 3 {
			assert.True(t, l.Partial)
			assert.Equal(t, 1, l.Number)
		}
		if parts > 1 && parts <= 3 {
			assert.True(t, l.Continued)
		}
		if parts == 4 {
			assert.True(t, l.IsBlank())
			assert.Equal(t, 2, l.Number)
		}
	}

	assert.Equal(t, 4, parts)
	assert.Equal(t, in, got.String())
}

func TestScannerRetainsNonSeekable(t *testing.T) {
	t.Parallel()

	const in = "Subject: hi\n\nhello world\n"
	s := scanner.New(context.Background(), iotest.HalfReader(bytes.NewBufferString(in)))
	_ = readAll(t, s)

	src, base := s.Source()
	require.NotNil(t, src)
	assert.Equal(t, int64(0), base)

	p := make([]byte, 5)
	n, err := src.ReadAt(p, 13)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(p[:n]))
}

func TestScannerSeekableSource(t *testing.T) {
	t.Parallel()

	r := strings.NewReader("skip\nFrom: a\n")
	_, err := r.Seek(5, io.SeekStart)
	require.NoError(t, err)

	s := scanner.New(context.Background(), r)
	ls := readAll(t, s)
	require.Len(t, ls, 1)
	assert.Equal(t, int64(0), ls[0].offset)

	src, base := s.Source()
	assert.Same(t, r, src)
	assert.Equal(t, int64(5), base)
}

func TestScannerWithoutRetention(t *testing.T) {
	t.Parallel()

	s := scanner.New(context.Background(), bytes.NewBufferString("a\n"), scanner.WithoutRetention())
	_ = readAll(t, s)
	src, _ := s.Source()
	assert.Nil(t, src)
}

func TestScannerContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := scanner.New(ctx, strings.NewReader("a\n"))
	_, err := s.Next()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScannerReadError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	s := scanner.New(context.Background(), iotest.ErrReader(boom))
	_, err := s.Next()
	assert.ErrorIs(t, err, boom)
}

func TestScannerReset(t *testing.T) {
	t.Parallel()

	s := scanner.New(context.Background(), strings.NewReader("a\nb\n"))
	_, err := s.Next()
	require.NoError(t, err)

	s.Reset(context.Background(), strings.NewReader("c\n"))
	assert.Equal(t, int64(0), s.Offset())
	assert.Equal(t, 1, s.LineNumber())
	assert.Equal(t, []line{{"c", scanner.EndLF, 0, 1}}, readAll(t, s))
}
