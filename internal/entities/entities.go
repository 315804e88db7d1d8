package entities

import (
	"strings"

	"golang.org/x/net/html"
)

// Decode replaces named and numeric character references in s with the
// characters they stand for. Unknown references are left as written.
func Decode(s string) string {
	if strings.IndexByte(s, '&') < 0 {
		return s
	}
	return html.UnescapeString(s)
}
