package ir

import "fmt"

// Position is a 0-indexed line and a UTF-16 column within that line.
type Position struct {
	Line int `json:"line"`
	Ch   int `json:"ch"`
}

// Before reports whether p comes strictly before q in document order.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Ch < q.Ch
}

// String returns the position as line:ch.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Ch)
}

// TextRange is a half-open span [From, To) captured at detection time.
// The document may change afterwards; callers verify the content before
// reusing the range.
type TextRange struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}
