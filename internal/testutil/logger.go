// Package testutil provides shared fixtures for tests: a recording logger,
// an in-memory SQLite database and a miniredis-backed client.
package testutil

import (
	"strings"
	"sync"

	"github.com/orris-inc/trafficstat/internal/shared/logger"
)

// MockLogger is a mock implementation of logger.Interface that records entries.
type MockLogger struct {
	mu      sync.RWMutex
	entries []LogEntry
}

// LogEntry records a log call.
type LogEntry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// NewMockLogger creates a new mock logger.
func NewMockLogger() *MockLogger {
	return &MockLogger{
		entries: make([]LogEntry, 0),
	}
}

func (m *MockLogger) Debug(msg string, args ...any) {
	m.log("DEBUG", msg, args...)
}

func (m *MockLogger) Info(msg string, args ...any) {
	m.log("INFO", msg, args...)
}

func (m *MockLogger) Warn(msg string, args ...any) {
	m.log("WARN", msg, args...)
}

func (m *MockLogger) Error(msg string, args ...any) {
	m.log("ERROR", msg, args...)
}

func (m *MockLogger) Fatal(msg string, args ...any) {
	m.log("FATAL", msg, args...)
}

func (m *MockLogger) With(args ...any) logger.Interface {
	return m
}

func (m *MockLogger) Named(name string) logger.Interface {
	return m
}

func (m *MockLogger) Debugw(msg string, keysAndValues ...interface{}) {
	m.log("DEBUG", msg, keysAndValues...)
}

func (m *MockLogger) Infow(msg string, keysAndValues ...interface{}) {
	m.log("INFO", msg, keysAndValues...)
}

func (m *MockLogger) Warnw(msg string, keysAndValues ...interface{}) {
	m.log("WARN", msg, keysAndValues...)
}

func (m *MockLogger) Errorw(msg string, keysAndValues ...interface{}) {
	m.log("ERROR", msg, keysAndValues...)
}

func (m *MockLogger) Fatalw(msg string, keysAndValues ...interface{}) {
	m.log("FATAL", msg, keysAndValues...)
}

func (m *MockLogger) log(level, msg string, fields ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := LogEntry{
		Level:   level,
		Message: msg,
		Fields:  make(map[string]interface{}),
	}
	for i := 0; i < len(fields)-1; i += 2 {
		if key, ok := fields[i].(string); ok {
			entry.Fields[key] = fields[i+1]
		}
	}

	m.entries = append(m.entries, entry)
}

// GetEntries returns all logged entries.
func (m *MockLogger) GetEntries() []LogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]LogEntry(nil), m.entries...)
}

// EntriesAt returns the entries logged at level.
func (m *MockLogger) EntriesAt(level string) []LogEntry {
	var out []LogEntry
	for _, e := range m.GetEntries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// HasMessage reports whether any entry at level contains substr.
func (m *MockLogger) HasMessage(level, substr string) bool {
	for _, e := range m.EntriesAt(level) {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// Reset resets the mock logger.
func (m *MockLogger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make([]LogEntry, 0)
}
