// Package obslog provides the logging capability passed explicitly to
// every component that needs it, rather than read from a package global.
package obslog

import (
	"fmt"
	"log"
	"os"
)

// Level is the severity of a log message.
type Level int

const (
	Info Level = iota
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the generic logging interface used by the core. Implementations
// must be safe to pass as nil — a nil Logger is a silent no-op, mirroring
// the original C++ LOG() macro's null-pointer check.
type Logger interface {
	Log(level Level, format string, args ...any)
}

// Log calls l.Log if l is non-nil, otherwise does nothing.
func Log(l Logger, level Level, format string, args ...any) {
	if l == nil {
		return
	}
	l.Log(level, format, args...)
}

// Std is a Logger backed by the standard library's log.Logger, writing
// level-prefixed lines to the given output (os.Stderr by default).
type Std struct {
	out *log.Logger
}

// NewStd creates a Std logger writing to os.Stderr.
func NewStd() *Std {
	return &Std{out: log.New(os.Stderr, "", log.LstdFlags)}
}

// NewStdTo creates a Std logger writing to the given *log.Logger, allowing
// tests to redirect output.
func NewStdTo(l *log.Logger) *Std {
	return &Std{out: l}
}

func (s *Std) Log(level Level, format string, args ...any) {
	s.out.Printf("[%s] %s", level, fmt.Sprintf(format, args...))
}
