// Package testutil holds test doubles shared by iatfmon packages.
package testutil

import (
	"sync"

	"github.com/reprotrack/iatfmon/internal/infrastructure/monitoring/logging"
)

// LogMessage is one entry captured by MockLogger.  Fields include any
// inherited through With.
type LogMessage struct {
	Level   string
	Logger  string
	Message string
	Fields  []logging.Field
}

// Field returns the value of the first field named key.
func (m LogMessage) Field(key string) (interface{}, bool) {
	for _, f := range m.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

type logStore struct {
	mu       sync.Mutex
	messages []LogMessage
}

// MockLogger implements logging.Logger and records every entry.  Children
// returned by With and Named write into the same store.
type MockLogger struct {
	store  *logStore
	name   string
	fields []logging.Field
}

// NewMockLogger creates an empty MockLogger.
func NewMockLogger() *MockLogger {
	return &MockLogger{store: &logStore{}}
}

func (m *MockLogger) log(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(m.fields)+len(fields))
	all = append(all, m.fields...)
	all = append(all, fields...)

	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.messages = append(m.store.messages, LogMessage{
		Level:   level,
		Logger:  m.name,
		Message: msg,
		Fields:  all,
	})
}

func (m *MockLogger) Debug(msg string, fields ...logging.Field) { m.log("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...logging.Field)  { m.log("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...logging.Field)  { m.log("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...logging.Field) { m.log("error", msg, fields) }
func (m *MockLogger) Fatal(msg string, fields ...logging.Field) { m.log("fatal", msg, fields) }

func (m *MockLogger) With(fields ...logging.Field) logging.Logger {
	child := &MockLogger{store: m.store, name: m.name}
	child.fields = append(append([]logging.Field{}, m.fields...), fields...)
	return child
}

func (m *MockLogger) Named(name string) logging.Logger {
	full := name
	if m.name != "" {
		full = m.name + "." + name
	}
	return &MockLogger{store: m.store, name: full, fields: m.fields}
}

// GetMessages returns a copy of all captured entries.
func (m *MockLogger) GetMessages() []LogMessage {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	out := make([]LogMessage, len(m.store.messages))
	copy(out, m.store.messages)
	return out
}

// Filter returns the captured entries at level.
func (m *MockLogger) Filter(level string) []LogMessage {
	var out []LogMessage
	for _, msg := range m.GetMessages() {
		if msg.Level == level {
			out = append(out, msg)
		}
	}
	return out
}

// Clear drops all captured entries.
func (m *MockLogger) Clear() {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.messages = nil
}

// HasMessage reports whether an entry with level and msg was captured.
func (m *MockLogger) HasMessage(level, msg string) bool {
	for _, logged := range m.GetMessages() {
		if logged.Level == level && logged.Message == msg {
			return true
		}
	}
	return false
}
