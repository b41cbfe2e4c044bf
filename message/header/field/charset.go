package field

import (
	"fmt"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// FallbackCharset is used to interpret raw 8-bit header bytes that are not
// valid UTF-8.
const FallbackCharset = "iso-8859-1"

// charsetAliases covers names seen in the wild that are not registered with
// IANA.
var charsetAliases = map[string]string{
	"utf8":      "utf-8",
	"latin1":    "iso-8859-1",
	"latin-1":   "iso-8859-1",
	"ascii":     "us-ascii",
	"cp1252":    "windows-1252",
	"x-sjis":    "shift_jis",
	"ks_c_5601": "euc-kr",
}

// lookupEncoding finds the encoding for a charset name.
func lookupEncoding(name string) (encoding.Encoding, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if a, ok := charsetAliases[n]; ok {
		n = a
	}

	switch n {
	case "utf-8":
		return unicode.UTF8, nil
	case "us-ascii", "iso-8859-1":
		return charmap.ISO8859_1, nil
	}

	enc, err := ianaindex.MIME.Encoding(n)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCharset, name)
	}

	return enc, nil
}

// CharsetReader returns a reader that transcodes input from the named charset
// into UTF-8. It has the shape required by mime.WordDecoder.
func CharsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := lookupEncoding(charset)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

var wordDecoder = &mime.WordDecoder{CharsetReader: CharsetReader}

// DecodeWords decodes every RFC 2047 encoded-word found in s. Whitespace
// between two adjacent encoded-words is dropped. If an encoded-word cannot be
// decoded, s is returned as-is along with the error.
func DecodeWords(s string) (string, error) {
	if !strings.Contains(s, "=?") {
		return s, nil
	}

	d, err := wordDecoder.DecodeHeader(s)
	if err != nil {
		return s, err
	}
	return d, nil
}

// toUTF8 interprets raw header bytes. Valid UTF-8 is returned as is, anything
// else is transcoded from the given charset.
func toUTF8(b []byte, charset string) (string, error) {
	if utf8.Valid(b) {
		return string(b), nil
	}

	enc, err := lookupEncoding(charset)
	if err != nil {
		return "", err
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// fromUTF8 converts s into the named charset.
func fromUTF8(s, charset string) ([]byte, error) {
	enc, err := lookupEncoding(charset)
	if err != nil {
		return nil, err
	}
	if enc == unicode.UTF8 {
		return []byte(s), nil
	}

	out, _, err := transform.Bytes(enc.NewEncoder(), []byte(s))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// fitsLatin1 returns true when every rune of s can be represented in
// ISO-8859-1.
func fitsLatin1(s string) bool {
	for _, r := range s {
		if r > 0xFF {
			return false
		}
	}
	return true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
