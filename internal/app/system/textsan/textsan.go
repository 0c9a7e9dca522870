// Package textsan strips markup from free-text form fields (expense titles,
// group names, member names) before they are sent to the backend.
package textsan

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Plain removes every HTML tag (and the contents of script and style
// elements) and returns the remaining text, unescaped and trimmed.
// Rendering escapes it again, so entities typed by the user survive as text.
func Plain(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
