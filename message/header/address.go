package header

import (
	"strings"

	"github.com/zostay/go-addr/pkg/addr"
)

// AddressParserMode selects how forgiving address list parsing is.
type AddressParserMode int

const (
	// AddressLoose tries a strict parse first and falls back on a lenient
	// parse that will return something for any input. This is the default.
	AddressLoose AddressParserMode = iota

	// AddressStrict only accepts address lists that parse under RFC 5322.
	AddressStrict

	// AddressLooser works like AddressLoose, but the lenient parse also
	// treats semicolons as separators, as some mail clients write them, and
	// keeps entries that have no address at all.
	AddressLooser
)

// String returns the name of the mode.
func (m AddressParserMode) String() string {
	switch m {
	case AddressStrict:
		return "strict"
	case AddressLooser:
		return "looser"
	default:
		return "loose"
	}
}

// ParseAddressList parses a field body as an address list. It will attempt a
// strict parse first. If that fails, an extremely lenient parse is attempted,
// which will return some kind of value for any input, though the results can
// only be described as "weird" at times.
func ParseAddressList(body string) addr.AddressList {
	al, _ := ParseAddressListMode(body, AddressLoose)
	return al
}

// ParseAddressListMode parses a field body as an address list using the given
// mode. Only AddressStrict ever returns an error.
func ParseAddressListMode(body string, mode AddressParserMode) (addr.AddressList, error) {
	al, err := addr.ParseEmailAddressList(body)
	if err == nil {
		return al, nil
	}

	switch mode {
	case AddressStrict:
		return nil, err
	case AddressLooser:
		return parseEmailAddressList(body, ",;", true), nil
	default:
		return parseEmailAddressList(body, ",", false), nil
	}
}

// extractComments splits s into the text outside of parentheses and the text
// of the comments.
func extractComments(s string) (string, string) {
	var clean, comment strings.Builder
	depth := 0
	for _, c := range s {
		switch {
		case c == '(':
			depth++
			if depth > 1 {
				comment.WriteRune(c)
			}
		case c == ')' && depth == 0:
			clean.WriteRune(c)
		case c == ')':
			depth--
			if depth > 0 {
				comment.WriteRune(c)
			}
		case depth > 0:
			comment.WriteRune(c)
		default:
			clean.WriteRune(c)
		}
	}

	return clean.String(), comment.String()
}

// parseEmailAddressList is the lenient fallback for address parsing. The parser
// in go-addr is strict, which is what you want for data entry, but the mess
// found in the wild calls for something that always returns an answer:
//
//  1. Split the string at the separators.
//  2. Pull the comments out of each piece.
//  3. All words but the last become the display name.
//  4. The last word, stripped of angle brackets, is the address.
//
// Groups are not recognized. With keepEmpty, a piece holding only a display
// name is kept as a mailbox with an empty address.
func parseEmailAddressList(v, seps string, keepEmpty bool) addr.AddressList {
	mbs := strings.FieldsFunc(v, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})

	as := make(addr.AddressList, 0, len(mbs))
	for _, orig := range mbs {
		mb, com := extractComments(orig)
		com = strings.TrimSpace(com)

		parts := strings.Fields(mb)
		if len(parts) == 0 {
			continue
		}

		dn := strings.Join(parts[:len(parts)-1], " ")
		email := strings.Trim(parts[len(parts)-1], "<>")
		if keepEmpty && !strings.Contains(email, "@") {
			dn, email = strings.Join(parts, " "), ""
		}

		if email == "" && !keepEmpty {
			continue
		}

		dn = strings.Trim(dn, `"`)

		local, domain := email, ""
		if i := strings.LastIndex(email, "@"); i > -1 {
			local, domain = email[:i], email[i+1:]
		}
		addrSpec := addr.NewAddrSpecParsed(local, domain, email)

		mailbox, err := addr.NewMailboxParsed(dn, addrSpec, com, orig)
		if err != nil {
			mailbox, err = addr.NewMailboxParsed(dn, addrSpec, "", orig)
			if err != nil {
				continue
			}
		}

		as = append(as, mailbox)
	}

	return as
}
