package config

import (
	"errors"
	"fmt"

	"ytdb/internal/failure"
	"ytdb/internal/services"
	"ytdb/internal/store"
)

// Validate ensures the configuration is usable. Errors match
// services.ErrConfiguration.
func (c *Config) Validate() error {
	for _, check := range []func() error{c.validateFetch, c.validateDownload, c.validateLogging} {
		if err := check(); err != nil {
			return services.Wrap(services.ErrConfiguration, "config", "validate", "", err)
		}
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.YtdlpBinary == "" {
		return errors.New("fetch.ytdlp_binary must be set")
	}
	if c.Fetch.SleepRequests < 0 {
		return errors.New("fetch.sleep_requests must be >= 0")
	}
	if c.Fetch.SleepInterval < 0 {
		return errors.New("fetch.sleep_interval must be >= 0")
	}
	if c.Fetch.TimeoutSeconds < 0 {
		return errors.New("fetch.timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateDownload() error {
	if _, err := store.ParseTargetType(c.Download.Type); err != nil {
		return fmt.Errorf("download.type: %w", err)
	}
	if _, err := failure.ParseKindSet(c.Download.SkipKinds...); err != nil {
		return fmt.Errorf("download.skip_kinds: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
}

// TargetType returns the configured default download target.
func (c *Config) TargetType() store.TargetType {
	target, err := store.ParseTargetType(c.Download.Type)
	if err != nil {
		return store.TargetAudio
	}
	return target
}

// SkipKinds returns the configured ledger skip set.
func (c *Config) SkipKinds() failure.KindSet {
	set, err := failure.ParseKindSet(c.Download.SkipKinds...)
	if err != nil {
		return failure.DefaultSkipKinds()
	}
	return set
}
