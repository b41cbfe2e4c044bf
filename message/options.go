package message

import (
	"bufio"
	"log/slog"

	"github.com/zostay/go-mimestream/internal/scanner"
	"github.com/zostay/go-mimestream/message/header"
)

// Constants related to Parse() options.
const (
	// DefaultMaxMultipartDepth is the default depth the parser will recurse
	// into a message.
	DefaultMaxMultipartDepth = 10

	// DefaultChunkSize the default size of chunks to read from the input.
	// Defaults to 16K, though this could change at any time.
	DefaultChunkSize = scanner.DefaultChunkSize

	// DefaultMaxHeaderLength is the default maximum byte length of a single
	// header block before giving up on finding the end of the header.
	DefaultMaxHeaderLength = 16 * bufio.MaxScanTokenSize

	// DefaultMaxLineLength is the default length at which the parser stops
	// buffering a single line and hands it out in pieces. Pieces of a line
	// are never mistaken for boundaries or mbox markers.
	DefaultMaxLineLength = scanner.DefaultMaxLineLength
)

// Format selects the kind of input the parser expects.
type Format int

const (
	// FormatEntity is a single MIME document without any mbox marker.
	FormatEntity Format = iota

	// FormatMbox is a stream of zero or more messages, each introduced by a
	// "From " marker line.
	FormatMbox
)

// String returns the name of the format.
func (f Format) String() string {
	if f == FormatMbox {
		return "mbox"
	}
	return "entity"
}

type parser struct {
	format        Format
	respectLength bool
	addrMode      header.AddressParserMode
	maxHeaderLen  int
	maxLineLen    int
	maxDepth      int
	chunkSize     int
	stream        bool
	handlers      []Handler
	logger        *slog.Logger
}

func (pr *parser) clone() *parser {
	p := *pr
	p.handlers = append([]Handler(nil), pr.handlers...)
	return &p
}

var defaultParser = &parser{
	format:       FormatEntity,
	addrMode:     header.AddressLoose,
	maxHeaderLen: DefaultMaxHeaderLength,
	maxLineLen:   DefaultMaxLineLength,
	maxDepth:     DefaultMaxMultipartDepth,
	chunkSize:    DefaultChunkSize,
}

// ParseOption refers to options that may be passed to the Parse function to
// modify how the parser works.
type ParseOption func(pr *parser)

// WithFormat is a ParseOption that selects the input format. The default is
// FormatEntity.
func WithFormat(f Format) ParseOption {
	return func(pr *parser) { pr.format = f }
}

// RespectContentLength is a ParseOption that makes the parser honor a valid
// Content-Length field. The body octets it covers are read as content: an
// mbox marker line within them does not start a new message. Enclosing
// multipart boundaries still end the entity early.
func RespectContentLength() ParseOption {
	return func(pr *parser) { pr.respectLength = true }
}

// WithAddressParserMode is a ParseOption that sets the mode used by every
// parsed header when reading address fields. The default is
// header.AddressLoose.
func WithAddressParserMode(mode header.AddressParserMode) ParseOption {
	return func(pr *parser) { pr.addrMode = mode }
}

// WithMaxHeaderLength is a ParseOption that sets the maximum size a single
// header block is allowed to reach before parsing exits with an
// ErrLargeHeader error. This setting prevents bad input from resulting in an
// out of memory error. Setting this to a value less than or equal to 0 will
// result in there being no maximum length. The default value is
// DefaultMaxHeaderLength.
func WithMaxHeaderLength(n int) ParseOption {
	return func(pr *parser) { pr.maxHeaderLen = n }
}

// WithMaxLineLength is a ParseOption that sets how long a line may grow in
// the read buffer before it is handed to the parser in pieces. The default
// is DefaultMaxLineLength.
func WithMaxLineLength(n int) ParseOption {
	return func(pr *parser) { pr.maxLineLen = n }
}

// WithChunkSize is a ParseOption that controls how many bytes to read at a time
// while parsing an email message. The default chunk size is DefaultChunkSize.
func WithChunkSize(chunkSize int) ParseOption {
	return func(pr *parser) { pr.chunkSize = chunkSize }
}

// WithMaxDepth is a ParseOption that controls how deep the parser will go in
// recursively parsing multipart and embedded messages. Containers found
// deeper than this are kept as leaf parts. This is set to
// DefaultMaxMultipartDepth by default.
func WithMaxDepth(maxDepth int) ParseOption {
	return func(pr *parser) { pr.maxDepth = maxDepth }
}

// WithoutMultipart is a ParseOption that will not allow parsing of any
// multipart messages. The body of every message returned will always be a
// *Part.
//
// You should use this option if all you are interested in is the top-level
// headers.
func WithoutMultipart() ParseOption {
	return func(pr *parser) { pr.maxDepth = 0 }
}

// WithoutRecursion is a ParseOption that will only allow a single level of
// multipart parsing.
func WithoutRecursion() ParseOption {
	return func(pr *parser) { pr.maxDepth = 1 }
}

// WithUnlimitedRecursion is a ParseOption that will allow the parser to parse
// sub-parts of any depth.
func WithUnlimitedRecursion() ParseOption {
	return func(pr *parser) { pr.maxDepth = -1 }
}

// WithHandler is a ParseOption that registers a Handler to receive the
// structural events of the parse. It may be given more than once.
func WithHandler(h Handler) ParseOption {
	return func(pr *parser) {
		if h != nil {
			pr.handlers = append(pr.handlers, h)
		}
	}
}

// WithLogger is a ParseOption that sets the logger used to report the
// decisions the parser makes when recovering from malformed input. Nothing is
// logged by default.
func WithLogger(l *slog.Logger) ParseOption {
	return func(pr *parser) { pr.logger = l }
}

// withoutContent is used by Stream to run the parser without keeping the
// bytes read.
func withoutContent() ParseOption {
	return func(pr *parser) { pr.stream = true }
}
