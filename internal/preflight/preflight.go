package preflight

import (
	"context"
	"strings"

	"ytdb/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks a download run depends on. outputDir
// overrides cfg.Paths.OutputDir when non-empty.
func RunAll(_ context.Context, cfg *config.Config, outputDir string) []Result {
	if cfg == nil {
		return nil
	}
	if strings.TrimSpace(outputDir) == "" {
		outputDir = cfg.Paths.OutputDir
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", outputDir),
		CheckParentWritable("Failure ledger", cfg.Paths.FailedFile),
	}
	if cfg.Fetch.CookiesFile != "" {
		results = append(results, CheckFileReadable("Cookies file", cfg.Fetch.CookiesFile))
	}
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
