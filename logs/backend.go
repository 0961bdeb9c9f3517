// Package logs is the small per-subsystem logging backend used across this
// repository. It follows the shape the node has always used: a shared
// Backend multiplexes onto one or more BackendWriters, and every subsystem
// asks the Backend for its own tagged Logger so log levels can be raised or
// lowered independently while debugging a single component.
package logs

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// BackendWriter is an io.Writer that only receives records at or above a
// minimum level.
type BackendWriter struct {
	w        io.Writer
	minLevel Level
}

// NewAllLevelsBackendWriter returns a BackendWriter that receives every
// record regardless of level.
func NewAllLevelsBackendWriter(w io.Writer) *BackendWriter {
	return &BackendWriter{w: w, minLevel: LevelTrace}
}

// NewErrorBackendWriter returns a BackendWriter that only receives records
// at LevelError or above.
func NewErrorBackendWriter(w io.Writer) *BackendWriter {
	return &BackendWriter{w: w, minLevel: LevelError}
}

// Backend multiplexes log records from every subsystem Logger onto its
// configured writers.
type Backend struct {
	writers []*BackendWriter
	mtx     sync.Mutex

	loggers map[string]*Logger
}

// NewBackend creates a logging backend that fans every accepted record out
// to writers.
func NewBackend(writers []*BackendWriter) *Backend {
	return &Backend{
		writers: writers,
		loggers: make(map[string]*Logger),
	}
}

// Logger returns the named subsystem's Logger, creating it at LevelInfo on
// first use.
func (b *Backend) Logger(subsystemTag string) *Logger {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if l, ok := b.loggers[subsystemTag]; ok {
		return l
	}
	l := &Logger{tag: subsystemTag, level: LevelInfo, backend: b}
	b.loggers[subsystemTag] = l
	return l
}

// Close flushes and closes every underlying writer that supports io.Closer.
func (b *Backend) Close() error {
	var firstErr error
	for _, bw := range b.writers {
		if c, ok := bw.w.(io.Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (b *Backend) print(tag string, level Level, msg string) {
	line := fmt.Sprintf("%s [%s] %s: %s\n", time.Now().Format("2006-01-02 15:04:05.000"), level, tag, msg)
	for _, bw := range b.writers {
		if level >= bw.minLevel {
			io.WriteString(bw.w, line)
		}
	}
}

// Logger is a single subsystem's handle onto a Backend. It owns its own
// level so that "debug level for the DAG index only" style configuration
// works without touching every other subsystem.
type Logger struct {
	tag     string
	level   Level
	mtx     sync.RWMutex
	backend *Backend
}

// SetLevel changes the minimum level this logger will emit.
func (l *Logger) SetLevel(level Level) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.level = level
}

// Level returns the logger's current minimum level.
func (l *Logger) Level() Level {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.level
}

// Backend returns the backend this logger writes through.
func (l *Logger) Backend() *Backend {
	return l.backend
}

func (l *Logger) write(level Level, format string, args []interface{}) {
	if level < l.Level() {
		return
	}
	l.backend.print(l.tag, level, fmt.Sprintf(format, args...))
}

// Tracef logs at LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) { l.write(LevelTrace, format, args) }

// Debugf logs at LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) { l.write(LevelDebug, format, args) }

// Infof logs at LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) { l.write(LevelInfo, format, args) }

// Warnf logs at LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) { l.write(LevelWarn, format, args) }

// Errorf logs at LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) { l.write(LevelError, format, args) }

// Criticalf logs at LevelCritical.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.write(LevelCritical, format, args)
}
