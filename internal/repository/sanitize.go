package repository

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var markupPolicy = bluemonday.StrictPolicy()

// SanitizeText strips markup, control characters, and redundant whitespace from operator or VCS supplied text.
func SanitizeText(raw string) string {
	withoutControl := strings.Map(func(character rune) rune {
		if unicode.IsControl(character) && !unicode.IsSpace(character) {
			return -1
		}
		return character
	}, strings.ToValidUTF8(raw, ""))

	withoutMarkup := html.UnescapeString(markupPolicy.Sanitize(withoutControl))
	return strings.Join(strings.Fields(withoutMarkup), " ")
}
