// Package notify delivers user-visible notices. Delivery is fire-and-forget:
// a failing sink never aborts the caller.
package notify

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Severity classifies a notice.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Notifier shows a message to the user.
type Notifier interface {
	Notify(message string, severity Severity) error
}

// Func adapts a function into a Notifier.
type Func func(message string, severity Severity) error

// Notify implements Notifier.
func (f Func) Notify(message string, severity Severity) error {
	return f(message, severity)
}

// Safe wraps a Notifier so errors and panics are logged and swallowed.
type Safe struct {
	next Notifier
	log  *zap.Logger
}

// NewSafe wraps next. A nil next discards notices.
func NewSafe(next Notifier, log *zap.Logger) *Safe {
	if log == nil {
		log = zap.NewNop()
	}
	return &Safe{next: next, log: log}
}

// Send delivers the notice, ignoring any failure.
func (s *Safe) Send(message string, severity Severity) {
	if s == nil || s.next == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("notifier panicked", zap.Any("panic", r), zap.String("message", message))
		}
	}()
	if err := s.next.Notify(message, severity); err != nil {
		s.log.Warn("notification failed", zap.Error(err), zap.String("message", message))
	}
}

// Notify implements Notifier. It always returns nil.
func (s *Safe) Notify(message string, severity Severity) error {
	s.Send(message, severity)
	return nil
}

// Writer prints notices as lines to w.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a Writer sink.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Notify implements Notifier.
func (n *Writer) Notify(message string, severity Severity) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintf(n.w, "[%s] %s\n", severity, message)
	return err
}

// Logger records notices on a zap logger at the matching level.
type Logger struct {
	log *zap.Logger
}

// NewLogger creates a Logger sink.
func NewLogger(log *zap.Logger) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{log: log}
}

// Notify implements Notifier.
func (n *Logger) Notify(message string, severity Severity) error {
	switch severity {
	case SeverityError:
		n.log.Error(message)
	case SeverityWarning:
		n.log.Warn(message)
	default:
		n.log.Info(message)
	}
	return nil
}

// Multi fans a notice out to every sink and reports the first error.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(message string, severity Severity) error {
	var first error
	for _, n := range m {
		if err := n.Notify(message, severity); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Recorded is a notice captured by Recorder.
type Recorded struct {
	Message  string
	Severity Severity
}

// Recorder keeps notices in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Recorded
}

// Notify implements Notifier.
func (r *Recorder) Notify(message string, severity Severity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Recorded{Message: message, Severity: severity})
	return nil
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded(nil), r.notices...)
}
