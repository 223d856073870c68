package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"ytdb/internal/config"
	"ytdb/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckParentWritable verifies that path can be created or appended to.
func CheckParentWritable(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
		}
		if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
	}
	dir := filepath.Dir(path)
	for {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create in %s: %v)", path, dir, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckFileReadable verifies that path is a readable regular file.
func CheckFileReadable(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// SystemRequirements lists the external tools a download run needs.
func SystemRequirements(cfg *config.Config) []deps.Requirement {
	return []deps.Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.Fetch.YtdlpBinary,
			Description: "Required for fetching media and metadata",
			VersionArgs: []string{"--version"},
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.Fetch.FFmpegBinary,
			Description: "Required by yt-dlp for merging and extracting streams",
			VersionArgs: []string{"-version"},
		},
	}
}

// CheckSystemDeps evaluates all system-level dependencies for the given config.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(ctx, SystemRequirements(cfg))
}
