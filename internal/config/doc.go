// Package config loads, normalizes, and validates ytdb configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// YTDB_COOKIES_FILE and YTDB_YTDLP_BINARY. The Config type centralizes the
// output root, ledger and report locations, yt-dlp flags, and logging knobs
// the CLI needs.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
