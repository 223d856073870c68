// Package logging assembles structured slog loggers and formatting helpers used
// across ytdb.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so ingestion code can tag log
// lines with run IDs, content IDs, and target types. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
