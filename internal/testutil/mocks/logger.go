package mocks

import (
	"sync"

	adapterports "github.com/kevin07696/recharge-gateway/internal/adapters/ports"
)

var _ adapterports.Logger = (*Logger)(nil)

// LogEntry is one captured adapter log call
type LogEntry struct {
	Level   string
	Message string
	Fields  []adapterports.Field
}

// Logger captures adapter log calls so tests can assert on what the
// carrier client emits, and on what it must never emit.
type Logger struct {
	mu      sync.Mutex
	entries []LogEntry
}

func NewLogger() *Logger { return &Logger{} }

func (l *Logger) Info(msg string, fields ...adapterports.Field)  { l.add("info", msg, fields) }
func (l *Logger) Error(msg string, fields ...adapterports.Field) { l.add("error", msg, fields) }
func (l *Logger) Warn(msg string, fields ...adapterports.Field)  { l.add("warn", msg, fields) }
func (l *Logger) Debug(msg string, fields ...adapterports.Field) { l.add("debug", msg, fields) }

func (l *Logger) add(level, msg string, fields []adapterports.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Message: msg, Fields: fields})
}

// Entries returns captured calls at level, or all calls when level is empty
func (l *Logger) Entries(level string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []LogEntry
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// HasField reports whether any captured call carried key
func (l *Logger) HasField(key string) bool {
	for _, e := range l.Entries("") {
		for _, f := range e.Fields {
			if f.Key == key {
				return true
			}
		}
	}
	return false
}

// HasValue reports whether any captured field value equals v
func (l *Logger) HasValue(v any) bool {
	for _, e := range l.Entries("") {
		for _, f := range e.Fields {
			if f.Value == v {
				return true
			}
		}
	}
	return false
}
