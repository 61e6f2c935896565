// Package monitoring holds the process-wide diagnostic logger.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Logger tags every line with a component name, e.g. "[job] ...", and
// writes through Logf so SetLogger redirects it too.
type Logger struct {
	component string
	verbose   bool
}

// NewLogger returns a Logger for component.
func NewLogger(component string) *Logger {
	return &Logger{component: component}
}

// WithVerbose returns a copy of l that reports Verbose() == v.
func (l *Logger) WithVerbose(v bool) *Logger {
	c := *l
	c.verbose = v
	return &c
}

// Printf logs a formatted line prefixed with the component tag.
func (l *Logger) Printf(format string, v ...interface{}) {
	Logf("["+l.component+"] "+format, v...)
}

// Verbose reports whether callers should emit detail lines. It lets a
// Logger stand in for golang-migrate's Logger interface.
func (l *Logger) Verbose() bool {
	return l.verbose
}
