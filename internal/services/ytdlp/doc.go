// Package ytdlp wraps the yt-dlp command-line tool.
//
// The Client downloads one asset plus its info.json sidecar into a caller
// owned directory. A non-zero tool exit is reported as *ToolError carrying the
// exit code and the captured diagnostic stream, which callers classify into
// failure kinds. Cancellation of the context kills the subprocess and is
// returned as the context error. Command execution is abstracted behind
// Executor so tests can script tool behaviour without the binary installed.
package ytdlp
