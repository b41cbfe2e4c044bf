// Package mimestream is a streaming parser and serializer for RFC 822 and MIME
// messages and mbox files. Messages are read incrementally, in bounded
// memory, into a tree of entities that records exactly where each piece was
// found in the input. Writing an unmodified tree reproduces the input byte
// for byte, and writing a modified tree only changes the bytes that were
// modified.
//
// The work is split up by the part of the message involved:
//
//   - message parses messages and mbox files, reports compliance
//     violations, delivers structural events to handlers, and writes
//     entity trees back out.
//   - message/header and message/header/field hold the header and its
//     fields, keeping the original bytes of every field that has not been
//     changed.
//   - message/header/param parses and formats parameterized values, such as
//     Content-Type and Content-Disposition.
//   - message/transfer applies and removes Content-Transfer-Encoding.
//   - message/walk and message/walker visit every entity in a tree.
//
// Parsing never gives up on a message just because it is malformed. Instead,
// each problem noticed is recorded as a violation with the offset and line
// where it was found, and the parser carries on with the most reasonable
// interpretation of the input.
package mimestream
