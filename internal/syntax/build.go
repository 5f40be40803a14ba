package syntax

import (
	"fmt"
	"math"
	"strings"

	"github.com/roboco-io/mdimg/internal/ir"
	"github.com/roboco-io/mdimg/internal/sanitize"
)

// srcReplacer keeps a src inside its double quotes. Ampersands are left
// alone so URLs and already-escaped values come out as written.
var srcReplacer = strings.NewReplacer(`"`, "&quot;", "<", "&lt;", ">", "&gt;")

// Builder renders image embeds.
type Builder struct {
	// Style decides whether HTML output carries a height attribute.
	Style ir.HTMLStyle
}

// NewBuilder creates a builder with the given HTML style.
func NewBuilder(style ir.HTMLStyle) *Builder {
	if style == "" {
		style = ir.StyleWidthAndHeight
	}
	return &Builder{Style: style}
}

// Build renders ref in the syntax chosen by choice. original is the measured
// size of the image and is only used for HTML output.
func (b *Builder) Build(ref ir.ImageReference, original ir.PixelDimensions, choice ir.ResizeChoice) (string, error) {
	switch choice.TargetKind {
	case ir.SyntaxMarkdown:
		return BuildMarkdown(ref.SourcePath(), choice.AltText, choice.Title), nil

	case ir.SyntaxHTML:
		size, err := ComputeSize(original, choice)
		if err != nil {
			return "", err
		}
		return b.buildHTML(ref.SourcePath(), choice.AltText, choice.Title, size), nil

	default:
		return "", fmt.Errorf("unsupported target syntax: %q", choice.TargetKind)
	}
}

// BuildMarkdown renders ![alt](src "title"). Markdown has no size syntax, so
// the result always shows the image at its original size.
func BuildMarkdown(src, alt, title string) string {
	var sb strings.Builder
	sb.WriteString("![")
	sb.WriteString(sanitize.SanitizeMarkdownAlt(alt))
	sb.WriteString("](")
	sb.WriteString(src)
	if title != "" {
		sb.WriteString(` "`)
		sb.WriteString(sanitize.EscapeMarkdownTitle(title))
		sb.WriteString(`"`)
	}
	sb.WriteString(")")
	return sb.String()
}

func (b *Builder) buildHTML(src, alt, title string, size ir.PixelDimensions) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<img src="%s" alt="%s" width="%d"`, srcReplacer.Replace(src), sanitize.EscapeHTMLAttribute(alt), size.Width))
	if b.Style != ir.StyleWidthOnly {
		sb.WriteString(fmt.Sprintf(` height="%d"`, size.Height))
	}
	if title != "" {
		sb.WriteString(fmt.Sprintf(` title="%s"`, sanitize.EscapeHTMLAttribute(title)))
	}
	sb.WriteString(" />")
	return sb.String()
}

// ComputeSize derives the target size for HTML output.
//
// Percentage mode scales both sides. Absolute mode uses whatever the user
// supplied: both sides verbatim, one side with the other derived from the
// original aspect ratio, or the original size when neither is given.
// Sides never drop below one pixel.
func ComputeSize(original ir.PixelDimensions, choice ir.ResizeChoice) (ir.PixelDimensions, error) {
	switch choice.Mode {
	case ir.ModePercentage:
		if choice.Percentage <= 0 || math.IsNaN(choice.Percentage) || math.IsInf(choice.Percentage, 0) {
			return ir.PixelDimensions{}, fmt.Errorf("invalid percentage: %v", choice.Percentage)
		}
		scale := choice.Percentage / 100
		return ir.PixelDimensions{
			Width:  atLeastOne(round(float64(original.Width) * scale)),
			Height: atLeastOne(round(float64(original.Height) * scale)),
		}, nil

	case ir.ModeAbsolute:
		if choice.Width < 0 || choice.Height < 0 {
			return ir.PixelDimensions{}, fmt.Errorf("invalid size %dx%d", choice.Width, choice.Height)
		}
		switch {
		case choice.Width > 0 && choice.Height > 0:
			return ir.PixelDimensions{Width: choice.Width, Height: choice.Height}, nil
		case choice.Width > 0:
			return ir.PixelDimensions{
				Width:  choice.Width,
				Height: atLeastOne(deriveSide(choice.Width, original.Height, original.Width)),
			}, nil
		case choice.Height > 0:
			return ir.PixelDimensions{
				Width:  atLeastOne(deriveSide(choice.Height, original.Width, original.Height)),
				Height: choice.Height,
			}, nil
		default:
			return original, nil
		}

	default:
		return ir.PixelDimensions{}, fmt.Errorf("unsupported resize mode: %q", choice.Mode)
	}
}

// deriveSide returns round(given * num / den). A zero den means the original
// size is malformed; num is returned unchanged instead of a ratio.
func deriveSide(given, num, den int) int {
	if den == 0 {
		return num
	}
	return round(float64(given) * float64(num) / float64(den))
}

func round(f float64) int {
	return int(math.Floor(f + 0.5))
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
