// Package textutil holds small string-formatting helpers used by the
// decoder.
package textutil

import "strings"

// EscapeControl renders the whitespace control characters \t, \n, \r, \v
// and \f in s as their Go escape sequences so an offending line can be
// embedded in a single-line warning message. Other control bytes are
// copied unchanged.
func EscapeControl(s string) string {
	buf := strings.Builder{}
	for _, c := range []byte(s) {
		switch c {
		case '\t':
			buf.WriteString(`\t`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\v':
			buf.WriteString(`\v`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			buf.WriteByte(c)
		}
	}
	return buf.String()
}
