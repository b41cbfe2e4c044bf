package field

import "strings"

// ID identifies the well-known header fields. Fields with any other name have
// the ID Unknown.
type ID int

// The known header fields.
const (
	Unknown ID = iota
	ArcAuthenticationResults
	ArcMessageSignature
	ArcSeal
	AuthenticationResults
	Bcc
	Cc
	Comments
	ContentBase
	ContentDescription
	ContentDisposition
	ContentID
	ContentLanguage
	ContentLength
	ContentLocation
	ContentMD5
	ContentTransferEncoding
	ContentType
	Date
	DispositionNotificationTo
	DkimSignature
	DomainKeySignature
	From
	Importance
	InReplyTo
	Keywords
	ListArchive
	ListHelp
	ListID
	ListOwner
	ListPost
	ListSubscribe
	ListUnsubscribe
	ListUnsubscribePost
	MessageID
	MimeVersion
	Received
	References
	ReplyTo
	ResentBcc
	ResentCc
	ResentDate
	ResentFrom
	ResentMessageID
	ResentReplyTo
	ResentSender
	ResentTo
	ReturnPath
	ReturnReceiptTo
	Sender
	Subject
	To
	XMailer
	XPriority
)

var idNames = [...]string{
	Unknown:                   "",
	ArcAuthenticationResults:  "ARC-Authentication-Results",
	ArcMessageSignature:       "ARC-Message-Signature",
	ArcSeal:                   "ARC-Seal",
	AuthenticationResults:     "Authentication-Results",
	Bcc:                       "Bcc",
	Cc:                        "Cc",
	Comments:                  "Comments",
	ContentBase:               "Content-Base",
	ContentDescription:        "Content-Description",
	ContentDisposition:        "Content-Disposition",
	ContentID:                 "Content-Id",
	ContentLanguage:           "Content-Language",
	ContentLength:             "Content-Length",
	ContentLocation:           "Content-Location",
	ContentMD5:                "Content-Md5",
	ContentTransferEncoding:   "Content-Transfer-Encoding",
	ContentType:               "Content-Type",
	Date:                      "Date",
	DispositionNotificationTo: "Disposition-Notification-To",
	DkimSignature:             "DKIM-Signature",
	DomainKeySignature:        "DomainKey-Signature",
	From:                      "From",
	Importance:                "Importance",
	InReplyTo:                 "In-Reply-To",
	Keywords:                  "Keywords",
	ListArchive:               "List-Archive",
	ListHelp:                  "List-Help",
	ListID:                    "List-Id",
	ListOwner:                 "List-Owner",
	ListPost:                  "List-Post",
	ListSubscribe:             "List-Subscribe",
	ListUnsubscribe:           "List-Unsubscribe",
	ListUnsubscribePost:       "List-Unsubscribe-Post",
	MessageID:                 "Message-Id",
	MimeVersion:               "MIME-Version",
	Received:                  "Received",
	References:                "References",
	ReplyTo:                   "Reply-To",
	ResentBcc:                 "Resent-Bcc",
	ResentCc:                  "Resent-Cc",
	ResentDate:                "Resent-Date",
	ResentFrom:                "Resent-From",
	ResentMessageID:           "Resent-Message-Id",
	ResentReplyTo:             "Resent-Reply-To",
	ResentSender:              "Resent-Sender",
	ResentTo:                  "Resent-To",
	ReturnPath:                "Return-Path",
	ReturnReceiptTo:           "Return-Receipt-To",
	Sender:                    "Sender",
	Subject:                   "Subject",
	To:                        "To",
	XMailer:                   "X-Mailer",
	XPriority:                 "X-Priority",
}

var idsByName = func() map[string]ID {
	m := make(map[string]ID, len(idNames))
	for i, n := range idNames {
		if n != "" {
			m[strings.ToLower(n)] = ID(i)
		}
	}
	return m
}()

// LookupID returns the ID for the given field name, ignoring case. It returns
// Unknown if the name is not one of the known fields.
func LookupID(name string) ID {
	return idsByName[strings.ToLower(strings.TrimSpace(name))]
}

// String returns the canonical capitalization of the field name. Unknown
// returns an empty string.
func (id ID) String() string {
	if id < 0 || int(id) >= len(idNames) {
		return ""
	}
	return idNames[id]
}

// IsAddress returns true for fields holding address lists.
func (id ID) IsAddress() bool {
	return id.kind() == kindAddress
}

// kind groups the fields by the folding algorithm they need.
type kind int

const (
	kindUnstructured kind = iota // free text, RFC 2047 allowed
	kindStructured               // whitespace folding, no encoding
	kindAddress                  // address lists
	kindIDs                      // msg-id lists
	kindParams                   // MIME parameterized values
	kindSignature                // DKIM-style tag lists
	kindAuthResults              // Authentication-Results style
	kindCommand                  // RFC 2369 list commands
	kindNoFold                   // single token, never folded
)

func (id ID) kind() kind {
	switch id {
	case From, To, Cc, Bcc, Sender, ReplyTo,
		ResentFrom, ResentTo, ResentCc, ResentBcc, ResentSender, ResentReplyTo,
		DispositionNotificationTo, ReturnReceiptTo:
		return kindAddress
	case InReplyTo, References:
		return kindIDs
	case ContentType, ContentDisposition:
		return kindParams
	case DkimSignature, DomainKeySignature, ArcSeal, ArcMessageSignature:
		return kindSignature
	case AuthenticationResults, ArcAuthenticationResults:
		return kindAuthResults
	case ListArchive, ListHelp, ListOwner, ListPost, ListSubscribe, ListUnsubscribe:
		return kindCommand
	case MessageID, ContentID, ResentMessageID, ContentTransferEncoding,
		MimeVersion, ContentMD5, ContentLength:
		return kindNoFold
	case Date, ResentDate, Received, ReturnPath, ContentLanguage,
		ContentLocation, ContentBase, ListID, ListUnsubscribePost:
		return kindStructured
	default:
		return kindUnstructured
	}
}

// decodes reports whether encoded-words in the field value are decoded when
// reading the value.
func (k kind) decodes() bool {
	switch k {
	case kindIDs, kindNoFold, kindSignature:
		return false
	default:
		return true
	}
}
