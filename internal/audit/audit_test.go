package audit_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"ytdb/internal/audit"
	"ytdb/internal/contentid"
	"ytdb/internal/store"
)

func commitItem(t *testing.T, st *store.Store, id contentid.ID) string {
	t.Helper()
	tmp := t.TempDir()
	media := filepath.Join(tmp, "audio.webm")
	sidecar := filepath.Join(tmp, "audio.info.json")
	for _, p := range []string{media, sidecar} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := st.Commit(id, store.TargetAudio, media, sidecar, store.NewManifest()); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	dir, _ := st.ItemDir(id)
	return dir
}

func TestRunCleanStore(t *testing.T) {
	root := t.TempDir()
	st, _ := store.Open(root)
	commitItem(t, st, "aaaaaaaaaaa")
	commitItem(t, st, "abcdefghijk")
	// Stray files above the leaf level are ignored.
	if err := os.WriteFile(filepath.Join(root, "README"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	report, err := audit.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Checked != 2 || len(report.Findings) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestRunFlagsInconsistentItems(t *testing.T) {
	root := t.TempDir()
	st, _ := store.Open(root)
	commitItem(t, st, "aaaaaaaaaaa")

	noManifest := commitItem(t, st, "bbbbbbbbbbb")
	if err := os.Remove(filepath.Join(noManifest, store.ManifestName)); err != nil {
		t.Fatalf("remove manifest: %v", err)
	}
	missingFile := commitItem(t, st, "ccccccccccc")
	if err := os.Remove(filepath.Join(missingFile, "audio.webm")); err != nil {
		t.Fatalf("remove media: %v", err)
	}
	extra := commitItem(t, st, "ddddddddddd")
	if err := os.WriteFile(filepath.Join(extra, "video.mp4.part"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	corrupt := commitItem(t, st, "eeeeeeeeeee")
	if err := os.WriteFile(filepath.Join(corrupt, store.ManifestName), []byte("{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	report, err := audit.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Checked != 5 {
		t.Fatalf("expected 5 items checked, got %d", report.Checked)
	}
	got := map[contentid.ID]audit.Reason{}
	for _, f := range report.Findings {
		got[f.ID] = f.Reason
	}
	want := map[contentid.ID]audit.Reason{
		"bbbbbbbbbbb": audit.ReasonMissingManifest,
		"ccccccccccc": audit.ReasonMissingFile,
		"ddddddddddd": audit.ReasonUnreferenced,
		"eeeeeeeeeee": audit.ReasonInvalidManifest,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("findings = %v, want %v", got, want)
	}
}

func TestRunDoesNotModifyStore(t *testing.T) {
	root := t.TempDir()
	st, _ := store.Open(root)
	dir := commitItem(t, st, "aaaaaaaaaaa")
	stray := filepath.Join(dir, "junk.tmp")
	if err := os.WriteFile(stray, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := audit.Run(context.Background(), root); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(stray); err != nil {
		t.Fatalf("audit must not remove files: %v", err)
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	root := t.TempDir()
	st, _ := store.Open(root)
	commitItem(t, st, "aaaaaaaaaaa")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := audit.Run(ctx, root); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weird_yt_ids.txt")
	if err := audit.WriteReport(path, audit.Report{}); err != nil {
		t.Fatalf("WriteReport empty: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("empty report must not create a file")
	}

	report := audit.Report{Findings: []audit.Finding{{ID: "aaaa"}, {ID: "bbbb"}}}
	if err := audit.WriteReport(path, report); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "aaaa\nbbbb\n" {
		t.Fatalf("unexpected report %q", data)
	}

	if err := audit.WriteReport(path, audit.Report{}); err != nil {
		t.Fatalf("WriteReport clean: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("clean audit must remove the previous report, stat err=%v", err)
	}
}
