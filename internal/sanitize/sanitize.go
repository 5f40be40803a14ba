// Package sanitize escapes and unescapes text placed inside image embeds.
package sanitize

import (
	"regexp"
	"strconv"
	"strings"
)

var htmlAttributeReplacer = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&#39;",
	"<", "&lt;",
	">", "&gt;",
)

var markdownTitleReplacer = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"<", "&lt;",
	">", "&gt;",
)

var markdownAltReplacer = strings.NewReplacer("[", "", "]", "")

// EscapeHTMLAttribute escapes s for use inside a quoted HTML attribute.
// strings.Replacer substitutes in a single pass, so an ampersand produced by
// an earlier replacement is never escaped again.
func EscapeHTMLAttribute(s string) string {
	if s == "" {
		return ""
	}
	return htmlAttributeReplacer.Replace(s)
}

// EscapeMarkdownTitle escapes s for use as the quoted title of a Markdown image.
func EscapeMarkdownTitle(s string) string {
	if s == "" {
		return ""
	}
	return markdownTitleReplacer.Replace(s)
}

// SanitizeMarkdownAlt removes square brackets from Markdown alt text.
func SanitizeMarkdownAlt(s string) string {
	return markdownAltReplacer.Replace(s)
}

var entityPattern = regexp.MustCompile(`&(?:#[0-9]{1,7}|#[xX][0-9a-fA-F]{1,6}|amp|quot|apos|lt|gt);`)

var namedEntities = map[string]string{
	"&amp;":  "&",
	"&quot;": `"`,
	"&apos;": "'",
	"&lt;":   "<",
	"&gt;":   ">",
}

// DecodeHTMLEntities decodes &amp;, numeric references and the named entities
// &quot; &apos; &lt; &gt;. Every entity is decoded exactly once, so
// "&amp;quot;" becomes "&quot;" and not a quote character.
func DecodeHTMLEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return entityPattern.ReplaceAllStringFunc(s, func(ent string) string {
		if r, ok := namedEntities[ent]; ok {
			return r
		}
		body := ent[2 : len(ent)-1]
		base := 10
		if body[0] == 'x' || body[0] == 'X' {
			body = body[1:]
			base = 16
		}
		n, err := strconv.ParseInt(body, base, 32)
		if err != nil || n <= 0 || n > 0x10FFFF || (n >= 0xD800 && n <= 0xDFFF) {
			return ent
		}
		return string(rune(n))
	})
}
