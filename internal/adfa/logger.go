package adfa

import (
	"fmt"
	"io"
	"os"
)

// Logger reports pipeline decisions when verbose mode is on.
// Each line is prefixed with the automaton it belongs to.
type Logger struct {
	enabled bool
	out     io.Writer
	prefix  string
}

// NewLogger creates a logger writing to stderr.
func NewLogger(enabled bool, name string) *Logger {
	prefix := "[lexgen]"
	if name != "" {
		prefix = fmt.Sprintf("[lexgen %s]", name)
	}
	return &Logger{
		enabled: enabled,
		out:     os.Stderr,
		prefix:  prefix,
	}
}

// SetOutput sets the output writer for the logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.out = w
}

// Log prints a formatted message if verbose mode is enabled.
func (l *Logger) Log(format string, args ...interface{}) {
	if l.enabled {
		fmt.Fprintf(l.out, l.prefix+" "+format+"\n", args...)
	}
}

// State prints a decision taken for state id.
func (l *Logger) State(id StateID, format string, args ...interface{}) {
	if l.enabled {
		fmt.Fprintf(l.out, "%s   state %d: %s\n", l.prefix, id, fmt.Sprintf(format, args...))
	}
}

// Section prints a pipeline stage header if verbose mode is enabled.
func (l *Logger) Section(name string) {
	if l.enabled {
		fmt.Fprintf(l.out, "\n%s === %s ===\n", l.prefix, name)
	}
}

// Enabled returns whether the logger is enabled.
func (l *Logger) Enabled() bool {
	return l.enabled
}
