// Package syntax extracts image metadata from embed text and renders new
// Markdown or HTML embeds.
package syntax

import (
	"regexp"
	"strings"

	"github.com/roboco-io/mdimg/internal/ir"
	"github.com/roboco-io/mdimg/internal/sanitize"
)

var (
	// ![alt](src "title") or ![alt](src 'title')
	markdownImagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(\s*([^\s)]+)(?:\s+"([^"]*)"|\s+'([^']*)')?\s*\)`)

	htmlImgTagPattern = regexp.MustCompile(`(?i)<img\b[^>]*>`)

	// RE2 has no back-references, so each quote style is its own branch.
	htmlSrcPattern   = regexp.MustCompile(`(?i)\ssrc\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	htmlAltPattern   = regexp.MustCompile(`(?i)\salt\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	htmlTitlePattern = regexp.MustCompile(`(?i)\stitle\s*=\s*(?:"([^"]*)"|'([^']*)')`)

	resourceSrcPattern = regexp.MustCompile(`^:/([0-9a-f]{32})$`)
)

// Extract returns the image described by fragment, or nil when the fragment
// holds neither a Markdown image nor an <img> tag with a src attribute.
func Extract(fragment string) *ir.ImageReference {
	if ref := extractMarkdown(fragment); ref != nil {
		return ref
	}
	return extractHTML(fragment)
}

func extractMarkdown(fragment string) *ir.ImageReference {
	m := markdownImagePattern.FindStringSubmatch(fragment)
	if m == nil {
		return nil
	}

	source, kind := ClassifySource(m[2])
	title := m[3]
	if title == "" {
		title = m[4]
	}

	return &ir.ImageReference{
		Kind:       ir.SyntaxMarkdown,
		RawSyntax:  m[0],
		Source:     source,
		SourceKind: kind,
		AltText:    m[1],
		Title:      title,
	}
}

func extractHTML(fragment string) *ir.ImageReference {
	tag := htmlImgTagPattern.FindString(fragment)
	if tag == "" {
		return nil
	}

	src, ok := attribute(htmlSrcPattern, tag)
	if !ok || strings.TrimSpace(src) == "" {
		return nil
	}
	source, kind := ClassifySource(strings.TrimSpace(src))

	alt, _ := attribute(htmlAltPattern, tag)
	title, _ := attribute(htmlTitlePattern, tag)

	return &ir.ImageReference{
		Kind:       ir.SyntaxHTML,
		RawSyntax:  tag,
		Source:     source,
		SourceKind: kind,
		AltText:    sanitize.DecodeHTMLEntities(alt),
		Title:      sanitize.DecodeHTMLEntities(title),
	}
}

// attribute returns the value of the first double- or single-quoted match.
func attribute(pattern *regexp.Regexp, tag string) (string, bool) {
	m := pattern.FindStringSubmatchIndex(tag)
	if m == nil {
		return "", false
	}
	if m[2] >= 0 {
		return tag[m[2]:m[3]], true
	}
	return tag[m[4]:m[5]], true
}

// ClassifySource splits a written src into a source and its kind. A
// ":/<32 hex>" reference yields the bare id. Anything else is external and
// kept verbatim, including values that are not http(s) URLs; the resolver
// rejects those schemes later.
func ClassifySource(src string) (string, ir.SourceKind) {
	if m := resourceSrcPattern.FindStringSubmatch(src); m != nil {
		return m[1], ir.SourceResource
	}
	return src, ir.SourceExternal
}
