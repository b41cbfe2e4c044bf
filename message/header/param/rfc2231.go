package param

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const upperhex = "0123456789ABCDEF"

// extendedPrefix starts the first section of an RFC 2231 extended value.
const extendedPrefix = "utf-8''"

func isTSpecial(c byte) bool {
	return strings.IndexByte(`()<>@,;:\"/[]?=`, c) >= 0
}

func isToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= ' ' || c >= 127 || isTSpecial(c) {
			return false
		}
	}
	return true
}

// attrChar reports whether c may appear unescaped in an extended value.
func attrChar(c byte) bool {
	return c > ' ' && c < 127 && !isTSpecial(c) && c != '*' && c != '\'' && c != '%'
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// quote returns v as a token if it is one, or as a quoted string.
func quote(v string) string {
	if isToken(v) {
		return v
	}

	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(v); i++ {
		if v[i] == '"' || v[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(v[i])
	}
	b.WriteByte('"')
	return b.String()
}

func escapeLen(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if attrChar(s[i]) {
			n++
		} else {
			n += 3
		}
	}
	return n
}

func appendEscaped(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if attrChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}
}

// Format returns a single name=value parameter. ASCII values are quoted as
// needed and anything else uses the RFC 2231 extended form in UTF-8.
func Format(name, value string) string {
	if isASCII(value) {
		return name + "=" + quote(value)
	}

	var b strings.Builder
	b.WriteString(name)
	b.WriteString("*=")
	b.WriteString(extendedPrefix)
	appendEscaped(&b, value)
	return b.String()
}

// Continue returns name=value as one or more parameters, each no longer than
// limit bytes where possible. When the parameter as given by Format does not
// fit, it is broken into RFC 2231 continuation sections, name*0, name*1 and so
// on. ASCII values are broken into quoted sections and others into extended
// sections in UTF-8. Sections are only broken between characters. A section
// always holds at least one character, so limit is not honored when it is too
// small to hold even that much.
func Continue(name, value string, limit int) []string {
	if p := Format(name, value); len(p) <= limit || value == "" {
		return []string{p}
	}

	ext := !isASCII(value)

	var (
		sections []string
		b        strings.Builder
	)

	for n := 0; value != ""; n++ {
		b.Reset()
		b.WriteString(name)
		b.WriteByte('*')
		b.WriteString(strconv.Itoa(n))
		if ext {
			b.WriteString("*=")
			if n == 0 {
				b.WriteString(extendedPrefix)
			}
		} else {
			b.WriteString("=")
		}

		room := limit - b.Len()
		if !ext {
			room -= 2
		}

		take := 0
		used := 0
		for take < len(value) {
			_, sz := utf8.DecodeRuneInString(value[take:])
			var w int
			if ext {
				w = escapeLen(value[take : take+sz])
			} else {
				w = sz
				if value[take] == '"' || value[take] == '\\' {
					w++
				}
			}
			if used+w > room && take > 0 {
				break
			}
			take += sz
			used += w
		}

		if ext {
			appendEscaped(&b, value[:take])
		} else {
			b.WriteString(quoteAlways(value[:take]))
		}

		sections = append(sections, b.String())
		value = value[take:]
	}

	return sections
}

func quoteAlways(v string) string {
	q := quote(v)
	if q[0] != '"' {
		return `"` + q + `"`
	}
	return q
}
