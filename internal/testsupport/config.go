package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"ytdb/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The output root is created; ledger, report and journal paths are not.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "media")
	cfgVal.Paths.FailedFile = filepath.Join(base, "download_failed.txt")
	cfgVal.Paths.ReportFile = filepath.Join(base, "weird_yt_ids.txt")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.JournalPath = filepath.Join(base, "state", "journal.db")
	if err := os.MkdirAll(cfgVal.Paths.OutputDir, 0o755); err != nil {
		t.Fatalf("mkdir output dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithoutJournal disables the attempt journal.
func WithoutJournal() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Journal.Enabled = false
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// points the fetch configuration at them. If names is empty, yt-dlp and
// ffmpeg are stubbed. The yt-dlp stub behaves like FakeYtdlpScript.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"yt-dlp", "ffmpeg"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			script := "#!/bin/sh\nexit 0\n"
			if name == "yt-dlp" {
				script = FakeYtdlpScript
			}
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
			switch name {
			case "yt-dlp":
				b.cfg.Fetch.YtdlpBinary = target
			case "ffmpeg":
				b.cfg.Fetch.FFmpegBinary = target
			}
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
