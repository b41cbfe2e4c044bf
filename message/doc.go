// Package message is the heart of this library. It parses email messages into
// a tree of entities (that survives even when the input is not strictly
// correct) and writes that tree back out again. A message that is parsed and
// written without changes comes out byte for byte the same as it went in.
//
// Every message has a body entity, which is one of three kinds:
//
//   - A *Part is a leaf holding a header and a range of content.
//   - A *Multipart holds parts separated by the delimiters of its boundary,
//     along with the raw preamble, delimiters, and epilogue.
//   - A *MessagePart holds another complete *Message, as with message/rfc822.
//
// Use Parse for a single message or ParseMbox for an mbox file:
//
//	msg, err := message.Parse(in)
//	if err != nil {
//	  panic(err)
//	}
//
//	for _, v := range msg.Violations() {
//	  fmt.Println(v)
//	}
//
//	_, err = msg.WriteTo(os.Stdout)
//
// Parsing does not stop at malformed input. Instead, every problem found is
// recorded as a Violation with the offset and line number at which it was
// found. For very large input, Stream delivers the structure of the message
// to a Handler as events without keeping any content in memory.
package message
