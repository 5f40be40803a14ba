// Package ir defines the image embed model shared by detection, dimension
// resolution and syntax rewriting.
package ir

import (
	"fmt"
	"regexp"
)

// SyntaxKind is the written form of an image embed.
type SyntaxKind string

const (
	SyntaxMarkdown SyntaxKind = "markdown"
	SyntaxHTML     SyntaxKind = "html"
)

// ParseSyntaxKind converts a user-supplied name to a SyntaxKind.
func ParseSyntaxKind(s string) (SyntaxKind, error) {
	switch s {
	case "markdown", "md":
		return SyntaxMarkdown, nil
	case "html":
		return SyntaxHTML, nil
	default:
		return "", fmt.Errorf("unknown syntax kind: %q (supported: markdown, html)", s)
	}
}

// SourceKind classifies where an image's bytes come from.
type SourceKind string

const (
	SourceResource SourceKind = "resource" // 32-hex resource id owned by the host store
	SourceExternal SourceKind = "external" // http(s) URL or an unrecognized raw source
)

// ResizeMode selects how a ResizeChoice expresses the target size.
type ResizeMode string

const (
	ModePercentage ResizeMode = "percentage"
	ModeAbsolute   ResizeMode = "absolute"
)

// ParseResizeMode converts a configuration value to a ResizeMode.
func ParseResizeMode(s string) (ResizeMode, error) {
	switch s {
	case "percentage", "percent", "%":
		return ModePercentage, nil
	case "absolute", "px":
		return ModeAbsolute, nil
	default:
		return "", fmt.Errorf("unknown resize mode: %q (supported: percentage, absolute)", s)
	}
}

// HTMLStyle controls which size attributes are emitted on <img> tags.
type HTMLStyle string

const (
	StyleWidthOnly      HTMLStyle = "width"
	StyleWidthAndHeight HTMLStyle = "width_height"
)

// ParseHTMLStyle converts a configuration value to an HTMLStyle.
func ParseHTMLStyle(s string) (HTMLStyle, error) {
	switch s {
	case "width", "width_only":
		return StyleWidthOnly, nil
	case "width_height", "both":
		return StyleWidthAndHeight, nil
	default:
		return "", fmt.Errorf("unknown html style: %q (supported: width, width_height)", s)
	}
}

// resourceIDPattern matches a resource identifier exactly.
var resourceIDPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// IsResourceID reports whether s is exactly 32 lowercase hex characters.
func IsResourceID(s string) bool {
	return resourceIDPattern.MatchString(s)
}

// ResourcePath renders a resource id the way documents reference it.
func ResourcePath(id string) string {
	return ":/" + id
}
