package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const consoleTimeLayout = "2006-01-02 15:04:05"

// prettyHandler renders one human readable line per record:
//
//	2026-10-19 12:00:00 INFO ingest [abcdefghijk] 3/10: downloaded outcome=success
//
// The run id is omitted; it is constant for a CLI invocation and kept in JSON output.
type prettyHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	attrs     []slog.Attr
	groups    []string
	addSource bool
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{mu: &sync.Mutex{}, writer: w, level: lvl, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// lineSubject collects the fields that prefix the message instead of trailing it.
type lineSubject struct {
	component string
	contentID string
	progress  string
}

func (s *lineSubject) take(entry kv) bool {
	var slot *string
	switch entry.key {
	case FieldComponent:
		slot = &s.component
	case FieldContentID:
		slot = &s.contentID
	case FieldProgress:
		slot = &s.progress
	case FieldRunID:
		return true
	default:
		return false
	}
	if *slot == "" {
		*slot = strings.TrimSpace(attrString(entry.value))
	}
	return true
}

func (s lineSubject) String() string {
	parts := make([]string, 0, 3)
	if s.component != "" {
		parts = append(parts, s.component)
	}
	if s.contentID != "" {
		parts = append(parts, "["+s.contentID+"]")
	}
	if s.progress != "" {
		parts = append(parts, s.progress)
	}
	return strings.Join(parts, " ")
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}

	kvs := make([]kv, 0, record.NumAttrs()+len(h.attrs))
	flattenAttrs(&kvs, h.groups, h.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&kvs, h.groups, attr)
		return true
	})

	var subject lineSubject
	fields := kvs[:0]
	for _, entry := range kvs {
		if !subject.take(entry) {
			fields = append(fields, entry)
		}
	}

	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	var buf bytes.Buffer
	buf.Grow(128 + len(fields)*24)
	buf.WriteString(timestamp.Local().Format(consoleTimeLayout))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))
	buf.WriteByte(' ')
	if prefix := subject.String(); prefix != "" {
		buf.WriteString(prefix)
		buf.WriteString(": ")
	}
	if msg := strings.TrimSpace(record.Message); msg != "" {
		buf.WriteString(msg)
	} else {
		buf.WriteString("(no message)")
	}
	if h.addSource {
		if src := record.Source(); src != nil {
			buf.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
		}
	}
	for _, entry := range fields {
		if entry.key == "" {
			continue
		}
		buf.WriteByte(' ')
		buf.WriteString(entry.key)
		buf.WriteByte('=')
		buf.WriteString(formatValue(entry.value))
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
