// Package failure maps fetch-tool diagnostics onto a fixed taxonomy of
// failure kinds and parses user supplied kind lists.
package failure
