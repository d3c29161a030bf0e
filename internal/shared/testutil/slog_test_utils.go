package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// Entry is one captured log record.
type Entry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// BufferedSlogHandler collects every record a test logger emits so
// assertions can run against messages and attributes after the fact.
// Handlers derived through WithAttrs and WithGroup write into the same
// buffer, so records logged via logger.With(...) are not lost.
type BufferedSlogHandler struct {
	mu      sync.RWMutex
	entries []Entry
	t       *testing.T
}

// NewBufferedSlogHandler returns an empty capture handler. Records are
// echoed through t.Logf only under -v to keep test output quiet.
func NewBufferedSlogHandler(t *testing.T) *BufferedSlogHandler {
	return &BufferedSlogHandler{t: t}
}

// NewTestLogger wires a capture handler into a fresh slog.Logger.
func NewTestLogger(t *testing.T) (*slog.Logger, *BufferedSlogHandler) {
	handler := NewBufferedSlogHandler(t)
	return slog.New(handler), handler
}

// Enabled reports true for every level; filtering belongs to the code
// under test, not to the capture buffer.
func (h *BufferedSlogHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle stores the record.
func (h *BufferedSlogHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Resolve().Any()
		return true
	})
	h.append(r.Level, r.Message, attrs)
	return nil
}

// WithAttrs returns a derived handler sharing this buffer.
func (h *BufferedSlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := &derivedHandler{root: h}
	for _, a := range attrs {
		derived.bound = append(derived.bound, a)
	}
	return derived
}

// WithGroup returns a derived handler whose future keys carry the group
// path as a dotted prefix.
func (h *BufferedSlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &derivedHandler{root: h, prefix: name + "."}
}

// append stores one entry and echoes it under -v.
func (h *BufferedSlogHandler) append(level slog.Level, msg string, attrs map[string]any) {
	h.mu.Lock()
	h.entries = append(h.entries, Entry{Level: level, Message: msg, Attrs: attrs})
	h.mu.Unlock()

	if h.t != nil && testing.Verbose() {
		h.t.Logf("[%s] %s %v", level, msg, attrs)
	}
}

// derivedHandler forwards records to the root buffer with extra bound
// attrs and group prefix applied.
type derivedHandler struct {
	root   *BufferedSlogHandler
	bound  []slog.Attr
	prefix string
}

func (d *derivedHandler) Enabled(context.Context, slog.Level) bool { return true }

func (d *derivedHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs()+len(d.bound))
	for _, a := range d.bound {
		attrs[a.Key] = a.Value.Resolve().Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[d.prefix+a.Key] = a.Value.Resolve().Any()
		return true
	})
	d.root.append(r.Level, r.Message, attrs)
	return nil
}

func (d *derivedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	child := &derivedHandler{
		root:   d.root,
		bound:  append([]slog.Attr(nil), d.bound...),
		prefix: d.prefix,
	}
	for _, a := range attrs {
		child.bound = append(child.bound, slog.Attr{Key: d.prefix + a.Key, Value: a.Value})
	}
	return child
}

func (d *derivedHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return d
	}
	return &derivedHandler{
		root:   d.root,
		bound:  append([]slog.Attr(nil), d.bound...),
		prefix: d.prefix + name + ".",
	}
}

// Entries returns a copy of everything captured so far.
func (h *BufferedSlogHandler) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Messages returns the captured messages in emission order.
func (h *BufferedSlogHandler) Messages() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.Message
	}
	return out
}

// Len reports how many records were captured.
func (h *BufferedSlogHandler) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// ContainsMessage reports whether any captured message contains the
// given substring.
func (h *BufferedSlogHandler) ContainsMessage(message string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, e := range h.entries {
		if strings.Contains(e.Message, message) {
			return true
		}
	}
	return false
}

// ContainsAttr reports whether any captured record carries the attribute
// with exactly this value.
func (h *BufferedSlogHandler) ContainsAttr(key string, value any) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, e := range h.entries {
		if got, ok := e.Attrs[key]; ok && got == value {
			return true
		}
	}
	return false
}
