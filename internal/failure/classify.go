package failure

import "strings"

// Classify maps the diagnostic output of a failed fetch onto a Kind. Only the
// last non-empty line is inspected; earlier lines are usually warnings.
func Classify(diagnostic string) Kind {
	line := strings.ToLower(lastLine(diagnostic))
	switch {
	case line == "":
		return KindOther
	case strings.Contains(line, "private"):
		return KindPrivate
	// "available" also matches wording such as "not available in your
	// country" and intentionally wins over removed, copyright and
	// unsupported. Existing ledgers depend on this ordering.
	case strings.Contains(line, "unavailable"), strings.Contains(line, "available"):
		return KindUnavailable
	case strings.Contains(line, "removed"):
		return KindRemoved
	case strings.Contains(line, "copyright"):
		return KindCopyright
	case strings.Contains(line, "unsupported"):
		return KindUnsupported
	default:
		return KindOther
	}
}

func lastLine(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
