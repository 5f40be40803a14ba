package document

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roboco-io/mdimg/internal/ir"
)

var (
	// ErrInvalidPosition is returned for negative line or column values.
	ErrInvalidPosition = errors.New("invalid range position")
	// ErrReversedRange is returned when From comes after To.
	ErrReversedRange = errors.New("range start is after range end")
	// ErrStaleRange is returned when the range no longer holds the expected text.
	ErrStaleRange = errors.New("document changed since the image was detected")
)

// Edit replaces the text in [From, To) with Text, provided the range still
// holds ExpectedText.
type Edit struct {
	Text         string
	From         ir.Position
	To           ir.Position
	ExpectedText string
}

// Replacer applies edits computed from an earlier read of the document.
type Replacer struct {
	log *zap.Logger
}

// NewReplacer creates a replacer. A nil logger disables logging.
func NewReplacer(log *zap.Logger) *Replacer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Replacer{log: log}
}

// Apply performs e against doc. Nothing is modified unless every check
// passes: positions are non-negative, From is not after To, and the current
// text of the range equals ExpectedText at the moment of the edit.
func (r *Replacer) Apply(doc Editor, e Edit) error {
	for _, v := range []int{e.From.Line, e.From.Ch, e.To.Line, e.To.Ch} {
		if v < 0 {
			return fmt.Errorf("%w: %v-%v", ErrInvalidPosition, e.From, e.To)
		}
	}
	if e.To.Before(e.From) {
		return fmt.Errorf("%w: %v-%v", ErrReversedRange, e.From, e.To)
	}

	from := Offset(doc, e.From)
	to := Offset(doc, e.To)

	ok, err := doc.ReplaceIf(from, to, e.ExpectedText, e.Text)
	if err != nil {
		return fmt.Errorf("failed to apply edit: %w", err)
	}
	if !ok {
		r.log.Warn("range content mismatch, edit skipped",
			zap.Stringer("from", e.From),
			zap.Stringer("to", e.To),
			zap.String("expected", e.ExpectedText),
			zap.String("found", doc.Slice(from, to)))
		return ErrStaleRange
	}

	r.log.Debug("range replaced",
		zap.Int("from", from),
		zap.Int("to", to),
		zap.Int("len", UTF16Len(e.Text)))
	return nil
}

// Offset converts p into an absolute UTF-16 offset of doc. The line is
// clamped to the last line and the column to the length of its line, so a
// range computed against a longer document still yields a valid offset.
func Offset(doc Reader, p ir.Position) int {
	last := doc.LineCount() - 1
	if last < 0 {
		return 0
	}
	line := p.Line
	if line > last {
		line = last
	}

	offset := 0
	for i := 0; i < line; i++ {
		offset += UTF16Len(doc.Line(i)) + 1
	}

	ch := p.Ch
	if n := UTF16Len(doc.Line(line)); ch > n {
		ch = n
	}
	return offset + ch
}
