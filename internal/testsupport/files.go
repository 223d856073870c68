package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"ytdb/internal/contentid"
	"ytdb/internal/store"
)

// WriteFile creates path and its parents with the given content.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteItem lays out an item directory under root the way the store shards
// it. Each file gets placeholder content; manifest is written verbatim as
// manifest.json unless empty. It returns the item directory.
func WriteItem(t testing.TB, root string, id contentid.ID, manifest string, files ...string) string {
	t.Helper()

	dir, err := store.ShardPath(root, id)
	if err != nil {
		t.Fatalf("shard path for %s: %v", id, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir item %s: %v", dir, err)
	}
	for _, name := range files {
		WriteFile(t, filepath.Join(dir, name), name+"\n")
	}
	if manifest != "" {
		WriteFile(t, filepath.Join(dir, store.ManifestName), manifest)
	}
	return dir
}
