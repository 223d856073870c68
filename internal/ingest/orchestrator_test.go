package ingest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"ytdb/internal/contentid"
	"ytdb/internal/failure"
	"ytdb/internal/ingest"
	"ytdb/internal/journal"
	"ytdb/internal/ledger"
	"ytdb/internal/services/ytdlp"
	"ytdb/internal/store"
)

// fakeFetcher writes a media file and sidecar unless a scripted behaviour is
// registered for the id.
type fakeFetcher struct {
	calls    map[contentid.ID]int
	requests []ytdlp.Request
	behavior map[contentid.ID]func(ctx context.Context, req ytdlp.Request) error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		calls:    make(map[contentid.ID]int),
		behavior: make(map[contentid.ID]func(ctx context.Context, req ytdlp.Request) error),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, req ytdlp.Request) error {
	f.calls[req.ID]++
	f.requests = append(f.requests, req)
	if fn, ok := f.behavior[req.ID]; ok {
		return fn(ctx, req)
	}
	return writeOutputs(req, ".webm")
}

func writeOutputs(req ytdlp.Request, ext string) error {
	base := filepath.Join(req.DestDir, string(req.Target))
	if err := os.WriteFile(base+ext, []byte("media "+string(req.ID)), 0o644); err != nil {
		return err
	}
	return os.WriteFile(base+".info.json", []byte(`{"id":"`+string(req.ID)+`"}`), 0o644)
}

type recorder struct {
	attempts []journal.Attempt
	err      error
}

func (r *recorder) RecordAttempt(_ context.Context, attempt journal.Attempt) error {
	r.attempts = append(r.attempts, attempt)
	return r.err
}

type harness struct {
	root       string
	store      *store.Store
	ledger     *ledger.Ledger
	fetcher    *fakeFetcher
	ledgerPath string
}

func newHarness(t *testing.T, ledgerContent string) *harness {
	t.Helper()
	root := t.TempDir()
	st, err := store.Open(root)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	ledgerPath := filepath.Join(t.TempDir(), "download_failed.txt")
	if ledgerContent != "" {
		if err := os.WriteFile(ledgerPath, []byte(ledgerContent), 0o644); err != nil {
			t.Fatalf("write ledger: %v", err)
		}
	}
	l, err := ledger.Open(ledgerPath, nil)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	return &harness{root: root, store: st, ledger: l, fetcher: newFakeFetcher(), ledgerPath: ledgerPath}
}

func (h *harness) orchestrator(t *testing.T, target store.TargetType, mutate ...func(*ingest.Options)) *ingest.Orchestrator {
	t.Helper()
	opts := ingest.Options{
		Store:    h.store,
		Ledger:   h.ledger,
		Fetcher:  h.fetcher,
		Target:   target,
		TempRoot: t.TempDir(),
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	orch, err := ingest.New(opts)
	if err != nil {
		t.Fatalf("ingest.New: %v", err)
	}
	return orch
}

func (h *harness) itemDir(t *testing.T, id contentid.ID) string {
	t.Helper()
	dir, err := store.ShardPath(h.root, id)
	if err != nil {
		t.Fatalf("ShardPath: %v", err)
	}
	return dir
}

func TestRunIsIdempotent(t *testing.T) {
	h := newHarness(t, "")
	ids := []contentid.ID{"aaaaaaaaaaa", "bbbbbbbbbbb"}

	summary, err := h.orchestrator(t, store.TargetAudio).Run(context.Background(), ids)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Count(ingest.OutcomeSuccess) != 2 {
		t.Fatalf("expected 2 successes, got %+v", summary.Outcomes)
	}

	summary, err = h.orchestrator(t, store.TargetAudio).Run(context.Background(), ids)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if summary.Count(ingest.OutcomeExist) != 2 {
		t.Fatalf("expected 2 exist outcomes, got %+v", summary.Outcomes)
	}
	for _, id := range ids {
		if h.fetcher.calls[id] != 1 {
			t.Fatalf("expected one fetch for %s, got %d", id, h.fetcher.calls[id])
		}
	}

	m, err := h.store.Load("aaaaaaaaaaa")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := map[string]string{"audio": "audio.webm", "audio_info": "audio_info.json"}
	if !reflect.DeepEqual(m.Files, want) {
		t.Fatalf("manifest = %v, want %v", m.Files, want)
	}
}

func TestRunMergesSecondTarget(t *testing.T) {
	h := newHarness(t, "")
	id := contentid.ID("aaaaaaaaaaa")
	h.fetcher.behavior[id] = func(_ context.Context, req ytdlp.Request) error {
		if req.Target == store.TargetVideo {
			return writeOutputs(req, ".mp4")
		}
		return writeOutputs(req, ".webm")
	}

	if _, err := h.orchestrator(t, store.TargetAudio).Run(context.Background(), []contentid.ID{id}); err != nil {
		t.Fatalf("audio Run: %v", err)
	}
	summary, err := h.orchestrator(t, store.TargetVideo).Run(context.Background(), []contentid.ID{id})
	if err != nil {
		t.Fatalf("video Run: %v", err)
	}
	if summary.Count(ingest.OutcomeSuccess) != 1 {
		t.Fatalf("expected video success, got %+v", summary.Outcomes)
	}
	m, _ := h.store.Load(id)
	if !m.Has(store.TargetAudio) || !m.Has(store.TargetVideo) {
		t.Fatalf("expected both targets, got %v", m.Files)
	}
}

func TestRunRejectsShortIDs(t *testing.T) {
	h := newHarness(t, "")
	summary, err := h.orchestrator(t, store.TargetAudio).Run(context.Background(), []contentid.ID{"abc", "aaaaaaaaaaa"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Count(ingest.OutcomeInvalidID) != 1 || summary.Count(ingest.OutcomeSuccess) != 1 {
		t.Fatalf("unexpected outcomes %+v", summary.Outcomes)
	}
	if h.fetcher.calls["abc"] != 0 {
		t.Fatal("short id must not be fetched")
	}
	if h.ledger.Len() != 0 {
		t.Fatal("short id must not be recorded in the ledger")
	}
}

func TestRunRejectsIDsThatEscapeTheStore(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "a", "b", "c", "store")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("mkdir root: %v", err)
	}
	precious := filepath.Join(parent, "a", "b", "important", "keep.txt")
	if err := os.MkdirAll(filepath.Dir(precious), 0o755); err != nil {
		t.Fatalf("mkdir sibling: %v", err)
	}
	if err := os.WriteFile(precious, []byte("keep"), 0o644); err != nil {
		t.Fatalf("write sibling file: %v", err)
	}

	h := newHarness(t, "")
	st, err := store.Open(root)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	h.store = st
	id := contentid.Normalize("../../important")

	summary, err := h.orchestrator(t, store.TargetAudio).Run(context.Background(), []contentid.ID{id})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Count(ingest.OutcomeInvalidID) != 1 {
		t.Fatalf("expected invalid_id, got %+v", summary.Outcomes)
	}
	if h.fetcher.calls[id] != 0 {
		t.Fatal("unsafe id must not be fetched")
	}
	if h.ledger.Len() != 0 {
		t.Fatal("unsafe id must not be recorded in the ledger")
	}
	if data, err := os.ReadFile(precious); err != nil || string(data) != "keep" {
		t.Fatalf("file outside the store was touched: %v", err)
	}
}

func TestRunContinuesPastNonWatchURL(t *testing.T) {
	h := newHarness(t, "")
	ids := []contentid.ID{contentid.Normalize("https://vimeo.com/12345"), "abcdefghijk"}

	summary, err := h.orchestrator(t, store.TargetAudio).Run(context.Background(), ids)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Count(ingest.OutcomeInvalidID) != 1 || summary.Count(ingest.OutcomeSuccess) != 1 {
		t.Fatalf("unexpected outcomes %+v", summary.Outcomes)
	}
	if h.fetcher.calls["abcdefghijk"] != 1 {
		t.Fatal("expected the valid id to be fetched")
	}
}

func TestRunSkipsLedgerKinds(t *testing.T) {
	h := newHarness(t, "aaaaaaaaaaa removed\nbbbbbbbbbbb private\n")
	summary, err := h.orchestrator(t, store.TargetAudio).Run(context.Background(), []contentid.ID{"aaaaaaaaaaa", "bbbbbbbbbbb"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Count(ingest.OutcomeSkipped) != 1 || summary.Count(ingest.OutcomeSuccess) != 1 {
		t.Fatalf("unexpected outcomes %+v", summary.Outcomes)
	}
	if h.fetcher.calls["aaaaaaaaaaa"] != 0 {
		t.Fatal("removed id must be skipped")
	}

	// A custom skip set retries removed ids.
	h2 := newHarness(t, "aaaaaaaaaaa removed\n")
	orch := h2.orchestrator(t, store.TargetAudio, func(o *ingest.Options) {
		o.SkipKinds = failure.NewKindSet(failure.KindPrivate)
	})
	if _, err := orch.Run(context.Background(), []contentid.ID{"aaaaaaaaaaa"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h2.fetcher.calls["aaaaaaaaaaa"] != 1 {
		t.Fatal("expected removed id to be retried with custom skip set")
	}
}

func TestRunClassifiesToolFailures(t *testing.T) {
	h := newHarness(t, "")
	id := contentid.ID("aaaaaaaaaaa")
	h.fetcher.behavior[id] = func(_ context.Context, req ytdlp.Request) error {
		_ = os.WriteFile(filepath.Join(req.DestDir, "audio.webm.part"), []byte("x"), 0o644)
		return &ytdlp.ToolError{ExitCode: 1, Stderr: "WARNING: retrying\nERROR: [youtube] aaaaaaaaaaa: Private video"}
	}

	summary, err := h.orchestrator(t, store.TargetAudio).Run(context.Background(), []contentid.ID{id, "bbbbbbbbbbb"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Count(ingest.OutcomeFailed) != 1 || summary.Count(ingest.OutcomeSuccess) != 1 {
		t.Fatalf("unexpected outcomes %+v", summary.Outcomes)
	}
	if summary.Kinds[failure.KindPrivate] != 1 {
		t.Fatalf("expected private kind count, got %v", summary.Kinds)
	}
	if kind, ok := h.ledger.Lookup(id); !ok || kind != failure.KindPrivate {
		t.Fatalf("ledger entry = %q, %v", kind, ok)
	}
	data, _ := os.ReadFile(h.ledgerPath)
	if string(data) != "aaaaaaaaaaa private\n" {
		t.Fatalf("unexpected ledger file %q", data)
	}
	if _, err := os.Stat(h.itemDir(t, id)); !os.IsNotExist(err) {
		t.Fatalf("failed item directory should not exist, stat err=%v", err)
	}
}

func TestRunUnexpectedOutputContinues(t *testing.T) {
	h := newHarness(t, "")
	bad := contentid.ID("aaaaaaaaaaa")
	h.fetcher.behavior[bad] = func(_ context.Context, req ytdlp.Request) error {
		if err := writeOutputs(req, ".webm"); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(req.DestDir, "audio.en.vtt"), []byte("subs"), 0o644)
	}

	summary, err := h.orchestrator(t, store.TargetAudio).Run(context.Background(), []contentid.ID{bad, "bbbbbbbbbbb"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Count(ingest.OutcomeError) != 1 || summary.Count(ingest.OutcomeSuccess) != 1 {
		t.Fatalf("unexpected outcomes %+v", summary.Outcomes)
	}
	if len(summary.Errors) != 1 || !errors.Is(summary.Errors[0].Err, ingest.ErrUnexpectedOutput) {
		t.Fatalf("expected ErrUnexpectedOutput in summary, got %+v", summary.Errors)
	}
	if h.ledger.Len() != 0 {
		t.Fatal("unexpected output must not be recorded in the ledger")
	}
	if _, err := os.Stat(h.itemDir(t, bad)); !os.IsNotExist(err) {
		t.Fatalf("item directory should not exist, stat err=%v", err)
	}
}

func TestRunCommitFailureKeepsPreviousTarget(t *testing.T) {
	h := newHarness(t, "")
	id := contentid.ID("aaaaaaaaaaa")
	if _, err := h.orchestrator(t, store.TargetVideo).Run(context.Background(), []contentid.ID{id}); err != nil {
		t.Fatalf("video Run: %v", err)
	}
	dir := h.itemDir(t, id)
	h.fetcher.behavior[id] = func(_ context.Context, req ytdlp.Request) error {
		blocker := filepath.Join(dir, store.ManifestTempName, "blocker")
		if err := os.MkdirAll(filepath.Dir(blocker), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
			return err
		}
		return writeOutputs(req, ".webm")
	}

	summary, err := h.orchestrator(t, store.TargetAudio).Run(context.Background(), []contentid.ID{id})
	if err != nil {
		t.Fatalf("audio Run: %v", err)
	}
	if summary.Count(ingest.OutcomeError) != 1 {
		t.Fatalf("expected error outcome, got %+v", summary.Outcomes)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read item dir: %v", err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	if !reflect.DeepEqual(names, []string{"manifest.json", "video.webm", "video_info.json"}) {
		t.Fatalf("unexpected item contents %v", names)
	}
	m, err := h.store.Load(id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Has(store.TargetAudio) || !m.Has(store.TargetVideo) {
		t.Fatalf("unexpected manifest %v", m.Files)
	}
}

func TestRunAbortsOnCancellation(t *testing.T) {
	h := newHarness(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first := contentid.ID("aaaaaaaaaaa")
	h.fetcher.behavior[first] = func(ctx context.Context, req ytdlp.Request) error {
		_ = os.WriteFile(filepath.Join(req.DestDir, "audio.webm.part"), []byte("x"), 0o644)
		cancel()
		return ctx.Err()
	}

	summary, err := h.orchestrator(t, store.TargetAudio).Run(ctx, []contentid.ID{first, "bbbbbbbbbbb"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if h.fetcher.calls["bbbbbbbbbbb"] != 0 {
		t.Fatal("run must stop after cancellation")
	}
	if summary.Processed() != 1 {
		t.Fatalf("expected one processed id, got %d", summary.Processed())
	}
	if h.ledger.Len() != 0 {
		t.Fatal("cancellation must not be recorded in the ledger")
	}
	if _, err := os.Stat(h.itemDir(t, first)); !os.IsNotExist(err) {
		t.Fatalf("item directory should be cleaned up, stat err=%v", err)
	}
}

func TestRunAbortsOnUnexpectedFetcherError(t *testing.T) {
	h := newHarness(t, "")
	boom := errors.New("start command: exec: \"yt-dlp\": executable file not found in $PATH")
	h.fetcher.behavior["aaaaaaaaaaa"] = func(context.Context, ytdlp.Request) error { return boom }

	_, err := h.orchestrator(t, store.TargetAudio).Run(context.Background(), []contentid.ID{"aaaaaaaaaaa", "bbbbbbbbbbb"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetcher error, got %v", err)
	}
	if h.fetcher.calls["bbbbbbbbbbb"] != 0 {
		t.Fatal("run must stop after an unexpected fetcher error")
	}
}

func TestRunReconcilesLeftoversBeforeFetch(t *testing.T) {
	h := newHarness(t, "")
	id := contentid.ID("aaaaaaaaaaa")
	if _, err := h.orchestrator(t, store.TargetAudio).Run(context.Background(), []contentid.ID{id}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Simulate a crash during a video commit: files moved, manifest not rewritten.
	dir := h.itemDir(t, id)
	for _, name := range []string{"video.mp4", "video_info.json", store.ManifestTempName} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("stale"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	h.fetcher.behavior[id] = func(ctx context.Context, req ytdlp.Request) error {
		if _, err := os.Stat(filepath.Join(dir, "video.mp4")); !os.IsNotExist(err) {
			t.Errorf("stale video file still present at fetch time")
		}
		return writeOutputs(req, ".mkv")
	}

	summary, err := h.orchestrator(t, store.TargetVideo).Run(context.Background(), []contentid.ID{id})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Count(ingest.OutcomeSuccess) != 1 {
		t.Fatalf("unexpected outcomes %+v", summary.Outcomes)
	}
	entries, _ := os.ReadDir(dir)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	want := []string{"audio.webm", "audio_info.json", "manifest.json", "video.mkv", "video_info.json"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("item directory = %v, want %v", names, want)
	}
}

func TestRunPassesFetchOptions(t *testing.T) {
	h := newHarness(t, "")
	orch := h.orchestrator(t, store.TargetAudio, func(o *ingest.Options) {
		o.CookiesFile = "/tmp/cookies.txt"
		o.SleepRequests = 1
		o.SleepInterval = 4
	})
	if _, err := orch.Run(context.Background(), []contentid.ID{"aaaaaaaaaaa"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	req := h.fetcher.requests[0]
	if req.CookiesFile != "/tmp/cookies.txt" || req.SleepRequests != 1 || req.SleepInterval != 4 || req.Target != store.TargetAudio {
		t.Fatalf("unexpected request %+v", req)
	}
	if _, err := os.Stat(req.DestDir); !os.IsNotExist(err) {
		t.Fatalf("scratch directory should be removed, stat err=%v", err)
	}
}

func TestRunReportsToRecorder(t *testing.T) {
	h := newHarness(t, "")
	rec := &recorder{err: errors.New("disk full")}
	h.fetcher.behavior["bbbbbbbbbbb"] = func(context.Context, ytdlp.Request) error {
		return &ytdlp.ToolError{ExitCode: 1, Stderr: "ERROR: Video unavailable"}
	}
	orch := h.orchestrator(t, store.TargetAudio, func(o *ingest.Options) {
		o.Recorder = rec
		o.RunID = "run-42"
	})
	summary, err := orch.Run(context.Background(), []contentid.ID{"aaaaaaaaaaa", "bbbbbbbbbbb", "zz"})
	if err != nil {
		t.Fatalf("Run must ignore recorder errors: %v", err)
	}
	if summary.RunID != "run-42" {
		t.Fatalf("unexpected run id %q", summary.RunID)
	}
	if len(rec.attempts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(rec.attempts))
	}
	got := []string{rec.attempts[0].Outcome, rec.attempts[1].Outcome, rec.attempts[2].Outcome}
	if !reflect.DeepEqual(got, []string{"success", "failed", "invalid_id"}) {
		t.Fatalf("unexpected recorded outcomes %v", got)
	}
	if rec.attempts[1].Kind != "unavailable" || rec.attempts[1].RunID != "run-42" {
		t.Fatalf("unexpected failed attempt %+v", rec.attempts[1])
	}
}

func TestNewValidatesOptions(t *testing.T) {
	h := newHarness(t, "")
	if _, err := ingest.New(ingest.Options{Ledger: h.ledger, Fetcher: h.fetcher, Target: store.TargetAudio}); err == nil {
		t.Fatal("expected error without store")
	}
	if _, err := ingest.New(ingest.Options{Store: h.store, Ledger: h.ledger, Fetcher: h.fetcher, Target: "podcast"}); err == nil {
		t.Fatal("expected error for unknown target")
	}
	orch, err := ingest.New(ingest.Options{Store: h.store, Ledger: h.ledger, Fetcher: h.fetcher, Target: store.TargetVideo})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if orch.RunID() == "" {
		t.Fatal("expected generated run id")
	}
}
