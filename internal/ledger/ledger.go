// Package ledger persists the failure kind of every content id whose fetch
// failed, one "<id> <kind>" line per id, and answers whether an id should be
// skipped on later runs.
package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ytdb/internal/contentid"
	"ytdb/internal/failure"
	"ytdb/internal/fileutil"
	"ytdb/internal/logging"
)

type entry struct {
	id   contentid.ID
	kind failure.Kind
}

// Ledger is the in-memory view of the failure ledger file. A Ledger is owned
// by a single run and is not safe for concurrent use.
type Ledger struct {
	path    string
	logger  *slog.Logger
	order   []entry
	byID    map[contentid.ID]int
	unknown int
}

// Open loads path, creating an empty ledger file when it does not exist.
func Open(path string, logger *slog.Logger) (*Ledger, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("ledger: path is empty")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	l := &Ledger{
		path:   path,
		logger: logging.NewComponentLogger(logger, "ledger"),
		byID:   make(map[contentid.ID]int),
	}
	if err := l.load(); err != nil {
		return nil, err
	}
	l.logger.Debug("loaded failure ledger",
		logging.String("path", l.path),
		logging.Int("entry_count", len(l.order)))
	if l.unknown > 0 {
		l.logger.Warn("failure ledger contains unknown kinds",
			logging.String(logging.FieldEventType, "ledger_unknown_kind"),
			logging.Int("entry_count", l.unknown),
			logging.String(logging.FieldErrorHint, "entries are kept verbatim and never match a skip kind"))
	}
	return l, nil
}

func (l *Ledger) load() error {
	file, err := os.Open(l.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("ledger: open %s: %w", l.path, err)
		}
		if dir := filepath.Dir(l.path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("ledger: create directory: %w", err)
			}
		}
		if err := os.WriteFile(l.path, nil, 0o644); err != nil {
			return fmt.Errorf("ledger: create %s: %w", l.path, err)
		}
		return nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return fmt.Errorf("ledger: %s:%d: malformed line %q", l.path, lineNo, line)
		}
		id, kind := contentid.ID(fields[0]), failure.Kind(fields[1])
		if !kind.Known() {
			l.unknown++
		}
		if idx, ok := l.byID[id]; ok {
			l.order[idx].kind = kind
			continue
		}
		l.byID[id] = len(l.order)
		l.order = append(l.order, entry{id: id, kind: kind})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("ledger: read %s: %w", l.path, err)
	}
	return nil
}

// Path returns the ledger file location.
func (l *Ledger) Path() string { return l.path }

// Len returns the number of recorded ids.
func (l *Ledger) Len() int { return len(l.order) }

// Lookup returns the recorded kind of id.
func (l *Ledger) Lookup(id contentid.ID) (failure.Kind, bool) {
	idx, ok := l.byID[id]
	if !ok {
		return "", false
	}
	return l.order[idx].kind, true
}

// Skip reports whether id is recorded with a kind contained in skip.
func (l *Ledger) Skip(id contentid.ID, skip failure.KindSet) bool {
	kind, ok := l.Lookup(id)
	return ok && skip.Contains(kind)
}

// Record stores kind for id. A new id is appended to the file; a changed kind
// rewrites the whole file in insertion order; an unchanged kind is a no-op.
func (l *Ledger) Record(id contentid.ID, kind failure.Kind) error {
	if idx, ok := l.byID[id]; ok {
		if l.order[idx].kind == kind {
			return nil
		}
		previous := l.order[idx].kind
		l.order[idx].kind = kind
		if err := l.rewrite(); err != nil {
			l.order[idx].kind = previous
			return err
		}
		l.logger.Debug("updated failure ledger entry",
			logging.String(logging.FieldContentID, string(id)),
			logging.String("previous_kind", string(previous)),
			logging.String("kind", string(kind)))
		return nil
	}

	if err := l.append(id, kind); err != nil {
		return err
	}
	l.byID[id] = len(l.order)
	l.order = append(l.order, entry{id: id, kind: kind})
	l.logger.Debug("recorded failure ledger entry",
		logging.String(logging.FieldContentID, string(id)),
		logging.String("kind", string(kind)))
	return nil
}

func (l *Ledger) append(id contentid.ID, kind failure.Kind) error {
	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("ledger: open for append: %w", err)
	}
	if _, err := fmt.Fprintf(file, "%s %s\n", id, kind); err != nil {
		file.Close()
		return fmt.Errorf("ledger: append: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("ledger: close: %w", err)
	}
	return nil
}

func (l *Ledger) rewrite() error {
	var b strings.Builder
	for _, e := range l.order {
		fmt.Fprintf(&b, "%s %s\n", e.id, e.kind)
	}
	tmpPath := l.path + ".tmp"
	if err := fileutil.WriteFileSync(tmpPath, []byte(b.String()), 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("ledger: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("ledger: rename temp file: %w", err)
	}
	return nil
}
