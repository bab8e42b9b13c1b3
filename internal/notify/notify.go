// Package notify is the central channel for run diagnostics. Fatal
// configuration problems, recoverable placement failures, and plain
// progress messages all pass through one Notifier owned by the
// controller, so tests and front ends can intercept them uniformly.
package notify

import (
	"fmt"
	"io"
	"os"
)

type Level int

const (
	LevelMessage Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelMessage:
		return "message"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Handler receives every notification routed through a Notifier.
type Handler func(level Level, msg string)

// Notifier routes leveled diagnostics to a pluggable handler. The zero
// value is not usable; construct with New.
type Notifier struct {
	handler    Handler
	errorCount int
	warnCount  int
}

func New(handler Handler) *Notifier {
	if handler == nil {
		handler = WriterHandler(os.Stderr)
	}
	return &Notifier{handler: handler}
}

// WriterHandler formats notifications one per line onto w.
func WriterHandler(w io.Writer) Handler {
	return func(level Level, msg string) {
		fmt.Fprintf(w, "%s: %s\n", level, msg)
	}
}

// SetHandler replaces the active handler; passing nil restores stderr.
func (n *Notifier) SetHandler(handler Handler) {
	if handler == nil {
		handler = WriterHandler(os.Stderr)
	}
	n.handler = handler
}

func (n *Notifier) Errorf(format string, args ...any) {
	n.errorCount++
	n.handler(LevelError, fmt.Sprintf(format, args...))
}

func (n *Notifier) Warningf(format string, args ...any) {
	n.warnCount++
	n.handler(LevelWarning, fmt.Sprintf(format, args...))
}

func (n *Notifier) Messagef(format string, args ...any) {
	n.handler(LevelMessage, fmt.Sprintf(format, args...))
}

// ErrorCount reports how many error-level notifications have fired.
// Setup uses this to decide whether a run may proceed.
func (n *Notifier) ErrorCount() int { return n.errorCount }

func (n *Notifier) WarningCount() int { return n.warnCount }

// ResetCounts clears the error and warning tallies without touching the
// handler.
func (n *Notifier) ResetCounts() {
	n.errorCount = 0
	n.warnCount = 0
}
