// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package logger

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"
)

// RFC3339UsecTz0 is the timestamp layout of every line.
const RFC3339UsecTz0 = "2006-01-02T15:04:05.000000Z07:00"

// Logger represents an interface for a shared logger.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	// WithPrefix returns a new Logger with the same configuration as
	// this one, but all logs will have the given prefix.
	WithPrefix(prefix string) Logger
}

// Level orders messages by importance; a logger prints the levels up to
// its verbosity.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// String returns the fixed width tag written before each message.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR: "
	case LevelWarn:
		return "WARN:  "
	case LevelInfo:
		return "INFO:  "
	}
	return "DEBUG: "
}

// levels implements the formatted methods of Logger on top of emit.
type levels struct {
	emit func(level Level, msg string)
}

func (l levels) Debugf(format string, v ...interface{}) { l.emit(LevelDebug, fmt.Sprintf(format, v...)) }
func (l levels) Infof(format string, v ...interface{})  { l.emit(LevelInfo, fmt.Sprintf(format, v...)) }
func (l levels) Warnf(format string, v ...interface{})  { l.emit(LevelWarn, fmt.Sprintf(format, v...)) }
func (l levels) Errorf(format string, v ...interface{}) { l.emit(LevelError, fmt.Sprintf(format, v...)) }

// NopLogger represents a Logger that doesn't do anything.
var NopLogger Logger = nopLogger{levels{emit: func(Level, string) {}}}

type nopLogger struct{ levels }

func (n nopLogger) WithPrefix(string) Logger { return n }

// standardLogger writes timestamped lines through a log.Logger.
type standardLogger struct {
	levels
	logger    *log.Logger
	verbosity Level
	prefix    string
	w         io.Writer
}

// formatLog writes in UTC with constant width and microsecond resolution.
type formatLog struct {
	w io.Writer
}

func (fl formatLog) Write(p []byte) (int, error) {
	return fmt.Fprintf(fl.w, "%v %s", time.Now().UTC().Format(RFC3339UsecTz0), p)
}

func newStandardLogger(w io.Writer, verbosity Level, prefix string) *standardLogger {
	s := &standardLogger{
		logger:    log.New(formatLog{w: w}, prefix, 0),
		verbosity: verbosity,
		prefix:    prefix,
		w:         w,
	}
	s.emit = s.print
	return s
}

// NewStandardLogger returns a Logger writing everything but debug messages
// to w.
func NewStandardLogger(w io.Writer) Logger {
	return newStandardLogger(w, LevelInfo, "")
}

// NewVerboseLogger returns a Logger writing every message to w.
func NewVerboseLogger(w io.Writer) Logger {
	return newStandardLogger(w, LevelDebug, "")
}

func (s *standardLogger) print(level Level, msg string) {
	if level > s.verbosity {
		return
	}
	s.logger.Print(level.String() + msg)
}

func (s *standardLogger) WithPrefix(prefix string) Logger {
	return newStandardLogger(s.w, s.verbosity, s.prefix+prefix)
}

// BufferLogger is a Logger that keeps every message, one per line, for
// tests to inspect. Prefixes are dropped.
type BufferLogger struct {
	levels
	mu    sync.Mutex
	lines []string
}

func NewBufferLogger() *BufferLogger {
	b := &BufferLogger{}
	b.emit = b.keep
	return b
}

func (b *BufferLogger) keep(level Level, msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, level.String()+msg)
}

func (b *BufferLogger) WithPrefix(string) Logger {
	return b
}

// Lines returns the messages logged so far.
func (b *BufferLogger) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.lines) == 0 {
		return nil
	}
	return append([]string(nil), b.lines...)
}
