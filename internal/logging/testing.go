package logging

import (
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger is a Logger that records every entry down to TraceLevel so
// tests can assert on what a run reported.
type TestLogger struct {
	*Logger
	observed *observer.ObservedLogs
}

// NewTestLogger returns a recording logger with the default config.
func NewTestLogger() *TestLogger {
	core, observed := observer.New(TraceLevel)
	return &TestLogger{
		Logger:   &Logger{zap: zap.New(core), config: NewDefaultConfig()},
		observed: observed,
	}
}

// Entries returns entries at level whose message contains msg.
func (t *TestLogger) Entries(level zapcore.Level, msg string) []observer.LoggedEntry {
	var out []observer.LoggedEntry
	for _, e := range t.observed.All() {
		if e.Level == level && strings.Contains(e.Message, msg) {
			out = append(out, e)
		}
	}
	return out
}

// AssertLogged fails tb unless an entry at level contains msg.
func (t *TestLogger) AssertLogged(tb testing.TB, level zapcore.Level, msg string) {
	tb.Helper()
	if len(t.Entries(level, msg)) == 0 {
		tb.Errorf("no %v entry containing %q; got %s", level, msg, t.summary())
	}
}

// AssertNotLogged fails tb if an entry at level contains msg.
func (t *TestLogger) AssertNotLogged(tb testing.TB, level zapcore.Level, msg string) {
	tb.Helper()
	if n := len(t.Entries(level, msg)); n > 0 {
		tb.Errorf("%d unexpected %v entries containing %q", n, level, msg)
	}
}

// AssertField fails tb unless some entry whose message contains msg
// carries key with value want. Integers are compared as int64.
func (t *TestLogger) AssertField(tb testing.TB, msg, key string, want any) {
	tb.Helper()
	for _, e := range t.observed.FilterMessageSnippet(msg).All() {
		if got, ok := e.ContextMap()[key]; ok && reflect.DeepEqual(got, want) {
			return
		}
	}
	tb.Errorf("no entry %q with %s=%v; got %s", msg, key, want, t.summary())
}

func (t *TestLogger) summary() string {
	var b strings.Builder
	for _, e := range t.observed.All() {
		b.WriteString("\n  ")
		b.WriteString(e.Level.String())
		b.WriteString(" ")
		b.WriteString(e.Message)
	}
	return b.String()
}
