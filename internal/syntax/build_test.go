package syntax

import (
	"strings"
	"testing"

	"github.com/roboco-io/mdimg/internal/ir"
)

func TestComputeSize(t *testing.T) {
	orig := ir.PixelDimensions{Width: 800, Height: 600}

	tests := []struct {
		name     string
		original ir.PixelDimensions
		choice   ir.ResizeChoice
		expected ir.PixelDimensions
	}{
		{"percentage 25", orig, ir.ResizeChoice{Mode: ir.ModePercentage, Percentage: 25}, ir.PixelDimensions{Width: 200, Height: 150}},
		{"percentage 50 of 1000x500", ir.PixelDimensions{Width: 1000, Height: 500}, ir.ResizeChoice{Mode: ir.ModePercentage, Percentage: 50}, ir.PixelDimensions{Width: 500, Height: 250}},
		{"percentage rounds half up", ir.PixelDimensions{Width: 5, Height: 3}, ir.ResizeChoice{Mode: ir.ModePercentage, Percentage: 50}, ir.PixelDimensions{Width: 3, Height: 2}},
		{"percentage never below one", ir.PixelDimensions{Width: 10, Height: 10}, ir.ResizeChoice{Mode: ir.ModePercentage, Percentage: 1}, ir.PixelDimensions{Width: 1, Height: 1}},
		{"width only", orig, ir.ResizeChoice{Mode: ir.ModeAbsolute, Width: 400}, ir.PixelDimensions{Width: 400, Height: 300}},
		{"height only", orig, ir.ResizeChoice{Mode: ir.ModeAbsolute, Height: 300}, ir.PixelDimensions{Width: 400, Height: 300}},
		{"both override ratio", orig, ir.ResizeChoice{Mode: ir.ModeAbsolute, Width: 100, Height: 100}, ir.PixelDimensions{Width: 100, Height: 100}},
		{"neither keeps original", orig, ir.ResizeChoice{Mode: ir.ModeAbsolute}, orig},
		{"zero original width", ir.PixelDimensions{Width: 0, Height: 600}, ir.ResizeChoice{Mode: ir.ModeAbsolute, Width: 400}, ir.PixelDimensions{Width: 400, Height: 600}},
		{"width derived rounding", ir.PixelDimensions{Width: 3, Height: 2}, ir.ResizeChoice{Mode: ir.ModeAbsolute, Width: 5}, ir.PixelDimensions{Width: 5, Height: 3}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeSize(tc.original, tc.choice)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("ComputeSize() = %v, want %v", got, tc.expected)
			}
		})
	}
}

func TestComputeSize_Invalid(t *testing.T) {
	orig := ir.PixelDimensions{Width: 800, Height: 600}
	choices := []ir.ResizeChoice{
		{Mode: ir.ModePercentage, Percentage: 0},
		{Mode: ir.ModePercentage, Percentage: -5},
		{Mode: ir.ModeAbsolute, Width: -1},
		{Mode: "ratio"},
	}

	for _, c := range choices {
		if _, err := ComputeSize(orig, c); err == nil {
			t.Errorf("expected error for %+v", c)
		}
	}
}

func TestBuilder_BuildHTML(t *testing.T) {
	ref := ir.ImageReference{Source: strings.Repeat("a", 32), SourceKind: ir.SourceResource}
	orig := ir.PixelDimensions{Width: 1000, Height: 500}

	tests := []struct {
		name     string
		style    ir.HTMLStyle
		choice   ir.ResizeChoice
		expected string
	}{
		{
			name:     "width and height",
			style:    ir.StyleWidthAndHeight,
			choice:   ir.ResizeChoice{TargetKind: ir.SyntaxHTML, AltText: "Alt", Mode: ir.ModePercentage, Percentage: 50},
			expected: `<img src=":/aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" alt="Alt" width="500" height="250" />`,
		},
		{
			name:     "width only",
			style:    ir.StyleWidthOnly,
			choice:   ir.ResizeChoice{TargetKind: ir.SyntaxHTML, AltText: "Alt", Mode: ir.ModeAbsolute, Width: 300},
			expected: `<img src=":/aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" alt="Alt" width="300" />`,
		},
		{
			name:     "escaped alt and title",
			style:    ir.StyleWidthAndHeight,
			choice:   ir.ResizeChoice{TargetKind: ir.SyntaxHTML, AltText: `a "b" <c>`, Title: "it's & more", Mode: ir.ModeAbsolute, Width: 100, Height: 50},
			expected: `<img src=":/aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" alt="a &quot;b&quot; &lt;c&gt;" width="100" height="50" title="it&#39;s &amp; more" />`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewBuilder(tc.style).Build(ref, orig, tc.choice)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("Build() = %q, want %q", got, tc.expected)
			}
		})
	}
}

func TestBuilder_BuildHTMLQuotesSource(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{"double quote", `https://x/"onerror=y`, `src="https://x/&quot;onerror=y"`},
		{"angle brackets", `https://x/<b>.png`, `src="https://x/&lt;b&gt;.png"`},
		{"ampersand kept", `https://x/a.png?w=1&h=2`, `src="https://x/a.png?w=1&h=2"`},
	}

	b := NewBuilder(ir.StyleWidthOnly)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ref := Extract("![a](" + tc.src + ")")
			if ref == nil {
				t.Fatal("expected extraction")
			}
			got, err := b.Build(*ref, ir.PixelDimensions{Width: 10, Height: 10}, ir.ResizeChoice{TargetKind: ir.SyntaxHTML, AltText: "a", Mode: ir.ModeAbsolute})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(got, tc.expected) {
				t.Errorf("got %q, want it to contain %q", got, tc.expected)
			}
			if back := Extract(got); back == nil || back.AltText != "a" {
				t.Errorf("rebuilt tag does not parse: %q", got)
			}
		})
	}
}

func TestBuilder_BuildMarkdownDropsSize(t *testing.T) {
	ref := ir.ImageReference{Source: "https://example.com/a.png", SourceKind: ir.SourceExternal}
	orig := ir.PixelDimensions{Width: 800, Height: 600}
	b := NewBuilder(ir.StyleWidthAndHeight)

	choices := []ir.ResizeChoice{
		{TargetKind: ir.SyntaxMarkdown, AltText: "[x]", Mode: ir.ModeAbsolute, Width: 10, Height: 10},
		{TargetKind: ir.SyntaxMarkdown, AltText: "[x]", Mode: ir.ModePercentage, Percentage: 5},
		{TargetKind: ir.SyntaxMarkdown, AltText: "[x]", Mode: ir.ModePercentage},
	}

	for _, c := range choices {
		got, err := b.Build(ref, orig, c)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "![x](https://example.com/a.png)" {
			t.Errorf("Build(%+v) = %q", c, got)
		}
	}
}

func TestBuildMarkdown_Title(t *testing.T) {
	got := BuildMarkdown(":/"+testID, "Alt", `say "hi"`)
	want := `![Alt](:/` + testID + ` "say &quot;hi&quot;")`
	if got != want {
		t.Errorf("BuildMarkdown() = %q, want %q", got, want)
	}
}

func TestBuilder_UnknownTarget(t *testing.T) {
	_, err := NewBuilder("").Build(ir.ImageReference{}, ir.PixelDimensions{Width: 1, Height: 1}, ir.ResizeChoice{TargetKind: "bbcode"})
	if err == nil {
		t.Error("expected error for unknown target")
	}
}

func TestBuild_ExtractRoundTrip(t *testing.T) {
	ref := ir.ImageReference{Source: testID, SourceKind: ir.SourceResource}
	choice := ir.ResizeChoice{TargetKind: ir.SyntaxHTML, AltText: `q "x" & y`, Title: "<t>", Mode: ir.ModeAbsolute, Width: 40}

	out, err := NewBuilder(ir.StyleWidthAndHeight).Build(ref, ir.PixelDimensions{Width: 80, Height: 60}, choice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	back := Extract(out)
	if back == nil {
		t.Fatalf("Extract(%q) = nil", out)
	}
	if back.Source != testID || back.AltText != choice.AltText || back.Title != choice.Title {
		t.Errorf("round trip mismatch: %+v", back)
	}
}
