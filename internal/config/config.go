package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	OutputDir   string `toml:"output_dir"`
	FailedFile  string `toml:"failed_file"`
	ReportFile  string `toml:"report_file"`
	LogDir      string `toml:"log_dir"`
	JournalPath string `toml:"journal_path"`
}

// Fetch contains settings passed through to the external fetch tool.
type Fetch struct {
	YtdlpBinary  string `toml:"ytdlp_binary"`
	FFmpegBinary string `toml:"ffmpeg_binary"`
	UseNetrc     bool   `toml:"use_netrc"`
	CookiesFile  string `toml:"cookies_file"`
	// SleepRequests is the delay in seconds between HTTP requests made by the tool.
	SleepRequests int `toml:"sleep_requests"`
	// SleepInterval is the delay in seconds before each download.
	SleepInterval int `toml:"sleep_interval"`
	// TimeoutSeconds bounds a single fetch; 0 disables the limit.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Download contains defaults for the download command.
type Download struct {
	Type      string   `toml:"type"`
	SkipKinds []string `toml:"skip_kinds"`
}

// Journal controls the SQLite attempt history.
type Journal struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for ytdb.
//
// Configuration sections by subsystem:
//   - Paths: output root, failure ledger, audit report, logs, journal
//   - Fetch: yt-dlp invocation and throttling flags
//   - Download: default target type and ledger skip kinds
//   - Journal: attempt history toggle
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Fetch    Fetch    `toml:"fetch"`
	Download Download `toml:"download"`
	Journal  Journal  `toml:"journal"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// configEnvVar names an explicit config file when --config is not given.
const configEnvVar = "YTDB_CONFIG"

// Load locates, parses, and validates a configuration file. It returns the
// config with paths expanded, the resolved file path and whether that file
// existed. A missing file yields defaults. Unknown keys are rejected.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		if err := decodeFile(resolvedPath, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config %s: unknown keys:\n%s", path, strict.String())
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// resolveConfigPath picks the config file: an explicit path (flag, then
// $YTDB_CONFIG) is used whether or not it exists; otherwise the first existing
// file among the user config and ./ytdb.toml, falling back to the user path.
func resolveConfigPath(path string) (string, bool, error) {
	explicit := strings.TrimSpace(path)
	if explicit == "" {
		explicit = strings.TrimSpace(os.Getenv(configEnvVar))
	}
	if explicit != "" {
		expanded, err := expandPath(explicit)
		if err != nil {
			return "", false, err
		}
		exists, err := isFile(expanded)
		if err != nil {
			return "", false, err
		}
		return expanded, exists, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("ytdb.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{defaultPath, projectPath} {
		if exists, _ := isFile(candidate); exists {
			return candidate, true, nil
		}
	}
	return defaultPath, false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	case info.IsDir():
		return false, fmt.Errorf("config path %s is a directory", path)
	}
	return true, nil
}

// EnsureDirectories creates the directories ytdb writes bookkeeping files
// into. The output root is deliberately not created: it must pre-exist.
func (c *Config) EnsureDirectories() error {
	dirs := make([]string, 0, 3)
	if c.Paths.LogDir != "" {
		dirs = append(dirs, c.Paths.LogDir)
	}
	if c.Journal.Enabled && c.Paths.JournalPath != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.JournalPath))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
