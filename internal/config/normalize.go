package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeFetch(); err != nil {
		return err
	}
	c.normalizeDownload()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.FailedFile) == "" {
		c.Paths.FailedFile = defaultFailedFile
	}
	if c.Paths.FailedFile, err = expandPath(c.Paths.FailedFile); err != nil {
		return fmt.Errorf("paths.failed_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.ReportFile) == "" {
		c.Paths.ReportFile = defaultReportFile
	}
	if c.Paths.ReportFile, err = expandPath(c.Paths.ReportFile); err != nil {
		return fmt.Errorf("paths.report_file: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.JournalPath) == "" {
		c.Paths.JournalPath = defaultJournalPath
	}
	if c.Paths.JournalPath, err = expandPath(c.Paths.JournalPath); err != nil {
		return fmt.Errorf("paths.journal_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeFetch() error {
	c.Fetch.YtdlpBinary = strings.TrimSpace(c.Fetch.YtdlpBinary)
	if c.Fetch.YtdlpBinary == "" {
		if value, ok := os.LookupEnv("YTDB_YTDLP_BINARY"); ok {
			c.Fetch.YtdlpBinary = strings.TrimSpace(value)
		}
	}
	if c.Fetch.YtdlpBinary == "" {
		c.Fetch.YtdlpBinary = defaultYtdlpBinary
	}
	c.Fetch.FFmpegBinary = strings.TrimSpace(c.Fetch.FFmpegBinary)
	if c.Fetch.FFmpegBinary == "" {
		c.Fetch.FFmpegBinary = defaultFFmpegBinary
	}

	c.Fetch.CookiesFile = strings.TrimSpace(c.Fetch.CookiesFile)
	if c.Fetch.CookiesFile == "" {
		if value, ok := os.LookupEnv("YTDB_COOKIES_FILE"); ok {
			c.Fetch.CookiesFile = strings.TrimSpace(value)
		}
	}
	if c.Fetch.CookiesFile != "" {
		var err error
		if c.Fetch.CookiesFile, err = expandPath(c.Fetch.CookiesFile); err != nil {
			return fmt.Errorf("fetch.cookies_file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeDownload() {
	c.Download.Type = strings.ToLower(strings.TrimSpace(c.Download.Type))
	if c.Download.Type == "" {
		c.Download.Type = defaultDownloadType
	}
	kinds := make([]string, 0, len(c.Download.SkipKinds))
	for _, kind := range c.Download.SkipKinds {
		kind = strings.ToLower(strings.TrimSpace(kind))
		if kind != "" {
			kinds = append(kinds, kind)
		}
	}
	c.Download.SkipKinds = kinds
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
