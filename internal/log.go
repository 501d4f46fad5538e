package internal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is the minimum severity a Logger writes.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", int(l))
	}
}

// ParseLevel accepts debug, info, warn (or warning) and error.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

type Logger struct {
	mu    sync.Mutex
	w     io.Writer
	c     io.Closer
	level Level
}

// NewLogger appends to the file at path.
func NewLogger(path string, level Level) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return &Logger{w: f, c: f, level: level}, nil
}

func NewWriterLogger(w io.Writer, level Level) *Logger {
	return &Logger{w: w, level: level}
}

// NewLoggerFromConfig logs to cfg.LogFile, or to stderr when none is set.
func NewLoggerFromConfig(cfg *Config) (*Logger, error) {
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.LogFile == "" {
		return NewWriterLogger(os.Stderr, level), nil
	}
	return NewLogger(cfg.LogFile, level)
}

func (l *Logger) Log(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%s "+format+"\n", append([]interface{}{time.Now().Format(time.RFC3339)}, args...)...)
}

func (l *Logger) logAt(level Level, format string, args ...interface{}) {
	if l == nil || level < l.level {
		return
	}
	l.Log("["+strings.ToUpper(level.String())+"] "+format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) { l.logAt(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.logAt(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.logAt(LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.logAt(LevelError, format, args...) }

func (l *Logger) Close() error {
	if l == nil || l.c == nil {
		return nil
	}
	return l.c.Close()
}
