// Package audit checks a sharded store for items whose directory disagrees
// with their manifest. It never modifies the store.
package audit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"ytdb/internal/contentid"
	"ytdb/internal/fileutil"
	"ytdb/internal/store"
)

// Reason names why an item was flagged.
type Reason string

const (
	ReasonMissingManifest Reason = "missing_manifest"
	ReasonInvalidManifest Reason = "invalid_manifest"
	ReasonMissingFile     Reason = "missing_file"
	ReasonUnreferenced    Reason = "unreferenced_file"
	ReasonNotDirectory    Reason = "not_a_directory"
)

// Finding is one inconsistent item. Only the first problem per item is
// reported.
type Finding struct {
	ID     contentid.ID
	Dir    string
	Reason Reason
	Detail string
}

// Report is the result of an audit.
type Report struct {
	Root     string
	Checked  int
	Findings []Finding
}

// IDs returns the flagged ids in walk order.
func (r Report) IDs() []contentid.ID {
	ids := make([]contentid.ID, 0, len(r.Findings))
	for _, f := range r.Findings {
		ids = append(ids, f.ID)
	}
	return ids
}

// Run walks root/a/b/c/<id> and checks every item directory.
func Run(ctx context.Context, root string) (Report, error) {
	report := Report{Root: root}
	info, err := os.Stat(root)
	if err != nil {
		return report, fmt.Errorf("audit root: %w", err)
	}
	if !info.IsDir() {
		return report, fmt.Errorf("audit root %s is not a directory", root)
	}

	shards := []string{root}
	for range store.ShardDepth {
		next, err := childDirs(ctx, shards)
		if err != nil {
			return report, err
		}
		shards = next
	}

	for _, shard := range shards {
		entries, err := os.ReadDir(shard)
		if err != nil {
			return report, fmt.Errorf("list %s: %w", shard, err)
		}
		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.Checked++
			dir := filepath.Join(shard, entry.Name())
			id := contentid.ID(entry.Name())
			if !entry.IsDir() {
				report.Findings = append(report.Findings, Finding{ID: id, Dir: dir, Reason: ReasonNotDirectory})
				continue
			}
			finding, ok, err := checkItem(id, dir)
			if err != nil {
				return report, err
			}
			if ok {
				report.Findings = append(report.Findings, finding)
			}
		}
	}
	return report, nil
}

func childDirs(ctx context.Context, parents []string) ([]string, error) {
	var out []string
	for _, parent := range parents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := os.ReadDir(parent)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", parent, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				out = append(out, filepath.Join(parent, entry.Name()))
			}
		}
	}
	return out, nil
}

func checkItem(id contentid.ID, dir string) (Finding, bool, error) {
	flag := func(reason Reason, detail string) (Finding, bool, error) {
		return Finding{ID: id, Dir: dir, Reason: reason, Detail: detail}, true, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, store.ManifestName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return flag(ReasonMissingManifest, "")
		}
		return Finding{}, false, fmt.Errorf("read manifest of %s: %w", id, err)
	}
	manifest, err := store.ParseManifest(data)
	if err != nil {
		return flag(ReasonInvalidManifest, err.Error())
	}

	for _, name := range manifest.FileNames() {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return flag(ReasonMissingFile, name)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Finding{}, false, fmt.Errorf("list %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.Name() == store.ManifestName || manifest.References(entry.Name()) {
			continue
		}
		return flag(ReasonUnreferenced, entry.Name())
	}
	return Finding{}, false, nil
}

// WriteReport writes one flagged id per line to path. When the report has no
// findings any report left by an earlier audit is removed.
func WriteReport(path string, report Report) error {
	if len(report.Findings) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale audit report: %w", err)
		}
		return nil
	}
	var b strings.Builder
	for _, id := range report.IDs() {
		b.WriteString(string(id))
		b.WriteByte('\n')
	}
	if err := fileutil.WriteFileSync(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write audit report: %w", err)
	}
	return nil
}
