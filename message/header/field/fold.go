package field

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// Fold renders a complete header field, name and final line break included,
// with the value folded to fit within fo.MaxLineLength display columns. The
// algorithm depends on the kind of field named:
//
//   - Unstructured text (Subject, Comments, unknown fields) folds at single
//     spaces. Runs of words that cannot be sent as they are become RFC 2047
//     encoded-words and a word too long for a line of its own is hard-split.
//   - Address lists fold only after the commas between addresses. Each
//     address is kept whole and its display name is encoded when needed.
//   - Message-id lists (References, In-Reply-To) fold between ids.
//   - Parameterized fields (Content-Type, Content-Disposition) fold after the
//     semicolons with a tab indent and use RFC 2231 continuations for a
//     parameter too long for a line of its own.
//   - Signatures (DKIM-Signature, ARC-Seal, ...) fold like parameterized
//     fields, but split long b= and bh= values anywhere, h= values after a
//     colon, and z= values after a pipe.
//   - Authentication-Results folds after the semicolons with a tab indent
//     and falls back to spaces inside a result that is too long.
//   - List commands (List-Unsubscribe, ...) keep each <uri> and comment
//     whole, encoding comments when needed.
//   - Single token fields (Message-Id, Content-Id, MIME-Version, ...) are
//     never folded.
//
// The first token of the value is always placed on the same line as the name,
// so a line only runs past the limit when it holds a single token that cannot
// be split.
//
// A nil fo selects DefaultFormatOptions().
func Fold(name, value string, fo *FormatOptions) []byte {
	fo = fo.or()

	value = strings.Trim(string(Unfold([]byte(value))), " \t")

	k := LookupID(name).kind()
	indent := " "
	switch k {
	case kindParams, kindSignature, kindAuthResults:
		indent = "\t"
	}

	f := newFolder(name, fo, indent)
	if value == "" {
		return f.bytes()
	}

	switch k {
	case kindAddress:
		foldAddresses(f, value)
	case kindIDs:
		foldIDs(f, value)
	case kindParams, kindSignature:
		foldParams(f, value, k)
	case kindAuthResults:
		foldAuthResults(f, value)
	case kindCommand:
		foldCommand(f, value)
	case kindNoFold:
		f.add(" ", value, false)
	case kindStructured:
		foldText(f, value, false)
	default:
		foldText(f, value, true)
	}

	return f.bytes()
}

// folder accumulates the lines of a folded field.
type folder struct {
	fo     *FormatOptions
	lbr    string
	max    int
	indent string

	buf   strings.Builder
	col   int
	first bool // no token has been written yet
	fresh bool // the current line holds nothing but the indent
}

func newFolder(name string, fo *FormatOptions, indent string) *folder {
	f := &folder{
		fo:     fo,
		lbr:    fo.lineBreak(),
		max:    fo.MaxLineLength,
		indent: indent,
		first:  true,
	}

	f.buf.WriteString(name)
	f.buf.WriteByte(':')
	f.col = len(name) + 1

	return f
}

// width returns the number of display columns taken by s.
func (f *folder) width(s string) int {
	if isASCII(s) {
		return len(s)
	}
	return displayWidth(s)
}

func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Mn, r), unicode.Is(unicode.Me, r):
		case width.LookupRune(r).Kind() == width.EastAsianWide,
			width.LookupRune(r).Kind() == width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

func (f *folder) fits(n int) bool {
	return f.col+n <= f.max
}

func (f *folder) write(s string) {
	if s == "" {
		return
	}
	f.buf.WriteString(s)
	f.col += f.width(s)
	f.fresh = false
}

func (f *folder) newline() {
	f.buf.WriteString(f.lbr)
	f.buf.WriteString(f.indent)
	f.col = len(f.indent)
	f.fresh = true
}

// add places tok after glue. If the glue is breakable and tok does not fit on
// the current line, the glue is replaced by a line break and the indent.
func (f *folder) add(glue, tok string, breakable bool) {
	if f.first {
		f.first = false
		f.write(" ")
		f.write(tok)
		return
	}

	if breakable && !f.fresh && !f.fits(f.width(glue)+f.width(tok)) {
		f.newline()
		f.write(tok)
		return
	}

	f.write(glue)
	f.write(tok)
}

// room returns the columns left for a token placed after glue on the current
// line.
func (f *folder) room(glue string) int {
	if f.first {
		return f.max - f.col - 1
	}
	return f.max - f.col - f.width(glue)
}

// cutFunc returns the length of the longest prefix of s that may be split off
// within limit columns, or the shortest possible prefix when none fits. It
// returns len(s) when s cannot be split at all.
type cutFunc func(s string, limit int) int

// addSplit places tok after glue like add, but when tok does not fit, as much
// of it as cut permits goes on the current line and the rest is continued on
// following lines.
func (f *folder) addSplit(glue, tok string, cut cutFunc) {
	if f.width(tok) <= f.room(glue) {
		f.add(glue, tok, true)
		return
	}

	if room := f.room(glue); room > 0 {
		if n := cut(tok, room); n < len(tok) && f.width(tok[:n]) <= room {
			f.add(glue, tok[:n], false)
			tok = tok[n:]
		}
	}

	for !f.first && tok != "" {
		if !f.fresh {
			f.newline()
		}

		limit := f.max - f.col
		if f.width(tok) <= limit {
			f.write(tok)
			return
		}

		n := cut(tok, limit)
		f.write(tok[:n])
		tok = tok[n:]
	}

	if f.first {
		n := cut(tok, f.room(glue))
		f.add(glue, tok[:n], false)
		if n < len(tok) {
			f.addSplit("", tok[n:], cut)
		}
	}
}

func (f *folder) bytes() []byte {
	f.buf.WriteString(f.lbr)
	return []byte(f.buf.String())
}

// cutSegments splits at normalization boundaries.
func (f *folder) cutSegments(s string, limit int) int {
	n, w := 0, 0
	for _, seg := range segments(s) {
		sw := f.width(seg)
		if w+sw > limit && n > 0 {
			break
		}
		n += len(seg)
		w += sw
	}
	return n
}

// cutAfter returns a cutFunc that splits just after any of the given bytes.
func cutAfter(seps string) cutFunc {
	return func(s string, limit int) int {
		best := -1
		for i := 0; i < len(s); i++ {
			if strings.IndexByte(seps, s[i]) < 0 || i+1 == len(s) {
				continue
			}
			if i+1 <= limit || best < 0 {
				best = i + 1
			}
			if i+1 >= limit {
				break
			}
		}
		if best < 0 {
			return len(s)
		}
		return best
	}
}

// cutAnywhere splits ASCII text at any byte.
func cutAnywhere(s string, limit int) int {
	switch {
	case limit < 1:
		return 1
	case limit > len(s):
		return len(s)
	default:
		return limit
	}
}

// word is a token along with the whitespace that preceded it.
type word struct {
	glue string
	text string
}

// splitWords breaks s into words separated by runs of spaces and tabs.
func splitWords(s string) []word {
	var ws []word
	i := 0
	for i < len(s) {
		j := i
		for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
			j++
		}
		k := j
		for k < len(s) && s[k] != ' ' && s[k] != '\t' {
			k++
		}
		if k > j {
			ws = append(ws, word{glue: s[i:j], text: s[j:k]})
		}
		i = k
	}
	return ws
}

// foldText folds unstructured text. When encode is set, words that cannot be
// sent as they are are merged with their neighbors into encoded-words.
func foldText(f *folder, value string, encode bool) {
	ws := splitWords(value)
	for i := 0; i < len(ws); i++ {
		w := ws[i]
		if encode && needsEncoding(w.text, f.fo) {
			span := w.text
			for i+1 < len(ws) && needsEncoding(ws[i+1].text, f.fo) {
				i++
				span += ws[i].glue + ws[i].text
			}

			for j, ew := range encodeWords(span, f.fo, false) {
				if j == 0 {
					f.add(w.glue, ew, w.glue == " ")
					continue
				}
				f.add(" ", ew, true)
			}
			continue
		}

		if f.width(w.text) > f.max-len(f.indent) {
			f.addSplit(w.glue, w.text, f.cutSegments)
			continue
		}

		f.add(w.glue, w.text, w.glue == " ")
	}
}
