// Package testutil holds the fake engine and loggers shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogEntry is one record kept by a LogRecorder, with attribute values
// rendered as strings.
type LogEntry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// LogRecorder is a slog.Handler that keeps every record at every level and
// mirrors it to the test log as "LEVEL message key=value ...". Handlers
// derived through WithAttrs share the recorded entries.
type LogRecorder struct {
	t       testing.TB
	mu      *sync.Mutex
	entries *[]LogEntry
	attrs   []slog.Attr
	group   string
}

// NewRecordingLogger returns a debug-level logger and the recorder behind it.
func NewRecordingLogger(t testing.TB) (*slog.Logger, *LogRecorder) {
	t.Helper()
	r := &LogRecorder{t: t, mu: &sync.Mutex{}, entries: &[]LogEntry{}}
	return slog.New(r), r
}

// NewTestLogger returns a logger that writes to t.Log. Output only shows on
// failure or with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	logger, _ := NewRecordingLogger(t)
	return logger
}

// Enabled implements slog.Handler.
func (r *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

// Handle implements slog.Handler.
func (r *LogRecorder) Handle(_ context.Context, rec slog.Record) error {
	entry := LogEntry{Level: rec.Level, Message: rec.Message, Attrs: map[string]string{}}
	var line strings.Builder
	line.WriteString(rec.Level.String() + " " + rec.Message)

	add := func(prefix string) func(slog.Attr) bool {
		return func(a slog.Attr) bool {
			key := a.Key
			if prefix != "" {
				key = prefix + "." + key
			}
			v := a.Value.Resolve().String()
			entry.Attrs[key] = v
			fmt.Fprintf(&line, " %s=%q", key, v)
			return true
		}
	}
	for _, a := range r.attrs {
		add("")(a)
	}
	rec.Attrs(add(r.group))

	r.mu.Lock()
	*r.entries = append(*r.entries, entry)
	r.mu.Unlock()

	r.t.Helper()
	r.t.Log(line.String())
	return nil
}

// WithAttrs implements slog.Handler.
func (r *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *r
	c.attrs = append(append([]slog.Attr(nil), r.attrs...), attrs...)
	return &c
}

// WithGroup implements slog.Handler. Record attributes are keyed
// "group.key".
func (r *LogRecorder) WithGroup(name string) slog.Handler {
	c := *r
	if c.group != "" {
		name = c.group + "." + name
	}
	c.group = name
	return &c
}

// Entries returns a copy of everything logged so far.
func (r *LogRecorder) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogEntry(nil), *r.entries...)
}

// Find returns the entries logged with message msg, oldest first.
func (r *LogRecorder) Find(msg string) []LogEntry {
	var out []LogEntry
	for _, e := range r.Entries() {
		if e.Message == msg {
			out = append(out, e)
		}
	}
	return out
}
