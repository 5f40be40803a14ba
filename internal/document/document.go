// Package document provides the editor-side view of a text document and the
// guarded range replacement used to rewrite image embeds.
package document

import (
	"fmt"
	"strings"
	"sync"

	"github.com/roboco-io/mdimg/internal/ir"
)

// Reader exposes the line-oriented view detection needs.
type Reader interface {
	// LineCount returns the number of lines. An empty document has one line.
	LineCount() int

	// Line returns line n without its terminator, or "" when out of range.
	Line(n int) string

	// Cursor returns the current cursor position.
	Cursor() ir.Position
}

// Editor is a Reader that can also read and replace absolute ranges.
// Offsets count UTF-16 code units from the start of the document.
type Editor interface {
	Reader

	// Slice returns the text in [from, to).
	Slice(from, to int) string

	// Replace swaps [from, to) for text as a single edit.
	Replace(from, to int, text string) error

	// ReplaceIf swaps [from, to) for text only when the range holds
	// expected. The comparison and the edit happen as one step; false
	// reports a mismatch and leaves the document untouched.
	ReplaceIf(from, to int, expected, text string) (bool, error)
}

// Buffer is an in-memory Editor. It is safe for concurrent use.
type Buffer struct {
	mu      sync.RWMutex
	text    string
	lines   []string
	cursor  ir.Position
	version int
}

// NewBuffer creates a buffer holding text.
func NewBuffer(text string) *Buffer {
	b := &Buffer{}
	b.setText(text)
	return b
}

func (b *Buffer) setText(text string) {
	b.text = text
	b.lines = strings.Split(text, "\n")
}

// Text returns the whole document.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// Version counts the edits applied so far.
func (b *Buffer) Version() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// LineCount implements Reader.
func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// Line implements Reader.
func (b *Buffer) Line(n int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n < 0 || n >= len(b.lines) {
		return ""
	}
	return b.lines[n]
}

// Cursor implements Reader.
func (b *Buffer) Cursor() ir.Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cursor
}

// SetCursor moves the cursor.
func (b *Buffer) SetCursor(p ir.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursor = p
}

// Slice implements Editor.
func (b *Buffer) Slice(from, to int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i, j := ByteIndex(b.text, from), ByteIndex(b.text, to)
	if i > j {
		return ""
	}
	return b.text[i:j]
}

// Replace implements Editor.
func (b *Buffer) Replace(from, to int, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.replace(from, to, text)
}

// ReplaceIf implements Editor.
func (b *Buffer) ReplaceIf(from, to int, expected, text string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if from < 0 || to < from {
		return false, fmt.Errorf("invalid range [%d, %d)", from, to)
	}
	i, j := ByteIndex(b.text, from), ByteIndex(b.text, to)
	if b.text[i:j] != expected {
		return false, nil
	}
	return true, b.replace(from, to, text)
}

// replace requires b.mu held for writing.
func (b *Buffer) replace(from, to int, text string) error {
	if from < 0 || to < from {
		return fmt.Errorf("invalid range [%d, %d)", from, to)
	}
	i, j := ByteIndex(b.text, from), ByteIndex(b.text, to)
	b.setText(b.text[:i] + text + b.text[j:])
	b.version++
	return nil
}
