// Package param provides a tool for dealing with parameterized header fields,
// such as Content-Type and Content-Disposition. Besides splitting such a value
// into its primary value and parameters, it can write parameters back out,
// using RFC 2231 extended values and continuations where a parameter cannot be
// written as a simple token or quoted string.
package param
