// Package header provides low-level and high-level tooling for dealing with
// email message headers. If you need low-level access, you want to deal with
// methods that work with field.Field objects. However, it is generally expected
// that devs will prefer the high-level methods which will try to keep your
// reading and manipulation of the header safe and strictly correct on output.
//
// A header read from a message keeps every field exactly as it was found, so
// it is written back out byte-for-byte. Only the fields you change are folded
// anew, using the header's field.FormatOptions.
package header
