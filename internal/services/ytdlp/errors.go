package ytdlp

import (
	"fmt"
	"strings"

	"ytdb/internal/services"
)

// ToolError reports a yt-dlp run that exited unsuccessfully.
type ToolError struct {
	ExitCode int
	Stderr   string
}

func (e *ToolError) Error() string {
	last := lastLine(e.Stderr)
	if last == "" {
		return fmt.Sprintf("yt-dlp exited with status %d", e.ExitCode)
	}
	return fmt.Sprintf("yt-dlp exited with status %d: %s", e.ExitCode, last)
}

// Unwrap lets errors.Is match services.ErrExternalTool.
func (e *ToolError) Unwrap() error {
	return services.ErrExternalTool
}

func lastLine(text string) string {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
