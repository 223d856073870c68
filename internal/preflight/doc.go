// Package preflight verifies the environment before a download run starts.
//
// It checks that yt-dlp and ffmpeg are installed and answer a version probe,
// that the output root exists with read/write access, that the failure ledger
// can be written and that a configured cookie jar is readable. Results are
// plain values so the CLI can render them as status lines.
package preflight
