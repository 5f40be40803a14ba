// Package dialog collects a resize choice from the user.
package dialog

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/roboco-io/mdimg/internal/ir"
)

// ErrBusy is returned when another resize dialog is already open.
var ErrBusy = errors.New("resize dialog already open")

// Lock guards the single dialog surface. The zero value is unlocked.
type Lock struct {
	held atomic.Bool
}

// TryAcquire takes the lock if it is free. It never blocks.
func (l *Lock) TryAcquire() bool {
	return l.held.CompareAndSwap(false, true)
}

// Release frees the lock.
func (l *Lock) Release() {
	l.held.Store(false)
}

// Held reports whether the lock is taken.
func (l *Lock) Held() bool {
	return l.held.Load()
}

// Request is what the dialog shows the user.
type Request struct {
	Ref        ir.ImageReference
	Dimensions ir.PixelDimensions
	// Fallback is set when Dimensions are the default size rather than measured.
	Fallback          bool
	DefaultMode       ir.ResizeMode
	DefaultPercentage float64
}

// Prompter asks the user how to rewrite an image. ok is false when the
// user cancelled.
type Prompter interface {
	Prompt(ctx context.Context, req Request) (choice ir.ResizeChoice, ok bool, err error)
}

// Func adapts a function into a Prompter.
type Func func(ctx context.Context, req Request) (ir.ResizeChoice, bool, error)

// Prompt implements Prompter.
func (f Func) Prompt(ctx context.Context, req Request) (ir.ResizeChoice, bool, error) {
	return f(ctx, req)
}

// Static answers every prompt with the same choice.
type Static struct {
	Choice    ir.ResizeChoice
	Cancelled bool
}

// Prompt implements Prompter.
func (s Static) Prompt(ctx context.Context, req Request) (ir.ResizeChoice, bool, error) {
	if err := ctx.Err(); err != nil {
		return ir.ResizeChoice{}, false, err
	}
	if s.Cancelled {
		return ir.ResizeChoice{}, false, nil
	}
	return s.Choice, true, nil
}
