// Package locator finds the image embed under the cursor.
//
// Only the cursor's line is examined. The line is parsed with goldmark so
// that images inside code spans, escaped brackets and plain text are not
// mistaken for embeds; <img> tags are taken from inline raw HTML, from HTML
// blocks and from indented lines of a container seen out of context.
package locator

import (
	"regexp"
	"sort"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"

	"github.com/roboco-io/mdimg/internal/document"
	"github.com/roboco-io/mdimg/internal/ir"
	"github.com/roboco-io/mdimg/internal/syntax"
)

var (
	// markdownSpanPattern finds the text extent of Markdown images. Whether
	// a match is a real image is decided by the parse tree.
	markdownSpanPattern = regexp.MustCompile(`!\[[^\]]*\]\(\s*([^\s)]+)(?:\s+"[^"]*"|\s+'[^']*')?\s*\)`)

	imgTagPattern    = regexp.MustCompile(`(?i)<img\b[^>]*>`)
	imgTagStartRegex = regexp.MustCompile(`(?i)^<img\b`)
)

// Candidate is an embed found on a line, as a byte span of that line.
type Candidate struct {
	Kind  ir.SyntaxKind
	Start int
	End   int
}

// Detection is the image under the cursor together with the range it
// occupied and the exact text of that range.
type Detection struct {
	Ref   ir.ImageReference
	Range ir.TextRange
	Text  string
}

// Locator finds image embeds on a single line.
type Locator struct {
	md  goldmark.Markdown
	log *zap.Logger
}

// New creates a locator. A nil logger disables logging.
func New(log *zap.Logger) *Locator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Locator{
		md:  goldmark.New(),
		log: log,
	}
}

// Locate returns the image embed at the document's cursor, or nil.
func (l *Locator) Locate(doc document.Reader) *Detection {
	return l.LocateAt(doc, doc.Cursor())
}

// LocateAt returns the image embed whose span contains cursor, or nil. Both
// span boundaries count as inside.
func (l *Locator) LocateAt(doc document.Reader, cursor ir.Position) *Detection {
	if cursor.Line < 0 || cursor.Line >= doc.LineCount() {
		return nil
	}
	line := doc.Line(cursor.Line)

	for _, c := range l.Candidates(line) {
		from := document.UTF16Offset(line, c.Start)
		to := document.UTF16Offset(line, c.End)
		if cursor.Ch < from || cursor.Ch > to {
			continue
		}

		fragment := line[c.Start:c.End]
		ref := syntax.Extract(fragment)
		if ref == nil {
			l.log.Debug("candidate did not yield an image",
				zap.String("kind", string(c.Kind)),
				zap.String("text", fragment))
			return nil
		}

		return &Detection{
			Ref: *ref,
			Range: ir.TextRange{
				From: ir.Position{Line: cursor.Line, Ch: from},
				To:   ir.Position{Line: cursor.Line, Ch: to},
			},
			Text: fragment,
		}
	}
	return nil
}

// Candidates classifies the embeds on line, ordered by start offset.
func (l *Locator) Candidates(line string) []Candidate {
	src := []byte(line)
	root := l.md.Parser().Parse(text.NewReader(src))

	var destinations []string
	var codeSpans []text.Segment
	var candidates []Candidate

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Image:
			destinations = append(destinations, string(node.Destination))

		case *ast.RawHTML:
			segs := node.Segments
			if segs.Len() == 0 {
				break
			}
			start, stop := segs.At(0).Start, segs.At(segs.Len()-1).Stop
			if imgTagStartRegex.Match(src[start:stop]) {
				candidates = append(candidates, Candidate{Kind: ir.SyntaxHTML, Start: start, End: stop})
			}

		case *ast.CodeSpan:
			if seg, ok := childExtent(node); ok {
				codeSpans = append(codeSpans, seg)
			}
			return ast.WalkSkipChildren, nil

		case *ast.CodeBlock:
			// an <img> indented inside a multi-line container parses as
			// indented code once the rest of the container is out of view
			candidates = append(candidates, scanImgTags(src, text.NewSegment(0, len(src)))...)
			return ast.WalkSkipChildren, nil

		case *ast.HTMLBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				candidates = append(candidates, scanImgTags(src, lines.At(i))...)
			}
			if node.HasClosure() {
				candidates = append(candidates, scanImgTags(src, node.ClosureLine)...)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	candidates = append(candidates, matchMarkdownSpans(line, destinations, codeSpans)...)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Start < candidates[j].Start
	})
	return candidates
}

// scanImgTags returns every <img> tag inside seg.
func scanImgTags(src []byte, seg text.Segment) []Candidate {
	var out []Candidate
	for _, loc := range imgTagPattern.FindAllIndex(src[seg.Start:seg.Stop], -1) {
		out = append(out, Candidate{
			Kind:  ir.SyntaxHTML,
			Start: seg.Start + loc[0],
			End:   seg.Start + loc[1],
		})
	}
	return out
}

// matchMarkdownSpans pairs textual image spans with the image nodes of the
// parse tree, in order. A span without a matching node (escaped bang, HTML
// block content) or starting inside a code span is dropped.
func matchMarkdownSpans(line string, destinations []string, codeSpans []text.Segment) []Candidate {
	var out []Candidate
	next := 0
	for _, loc := range markdownSpanPattern.FindAllStringSubmatchIndex(line, -1) {
		if within(loc[0], codeSpans) {
			continue
		}
		dest := line[loc[2]:loc[3]]
		for j := next; j < len(destinations); j++ {
			if destinations[j] == dest {
				out = append(out, Candidate{Kind: ir.SyntaxMarkdown, Start: loc[0], End: loc[1]})
				next = j + 1
				break
			}
		}
	}
	return out
}

// childExtent returns the byte span covered by n's text children.
func childExtent(n ast.Node) (text.Segment, bool) {
	var seg text.Segment
	found := false
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*ast.Text)
		if !ok {
			continue
		}
		if !found {
			seg = t.Segment
			found = true
			continue
		}
		if t.Segment.Start < seg.Start {
			seg.Start = t.Segment.Start
		}
		if t.Segment.Stop > seg.Stop {
			seg.Stop = t.Segment.Stop
		}
	}
	return seg, found
}

func within(pos int, segs []text.Segment) bool {
	for _, seg := range segs {
		if pos >= seg.Start && pos < seg.Stop {
			return true
		}
	}
	return false
}
