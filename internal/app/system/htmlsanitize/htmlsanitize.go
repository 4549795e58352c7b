// Package htmlsanitize turns untrusted backend text into safe display text.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict strips every element and attribute.
var strict = bluemonday.StrictPolicy()

// PlainText removes all markup from s and returns unescaped text, ready to be
// handed to html/template (which escapes it again on output).
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Initial returns the first character of s uppercased, or "" for empty input.
func Initial(s string) string {
	s = strings.TrimSpace(s)
	for _, r := range s {
		return strings.ToUpper(string(r))
	}
	return ""
}
