package deps

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// probeTimeout bounds each version probe.
const probeTimeout = 15 * time.Second

// Requirement defines an external dependency ytdb relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	// VersionArgs, when set, are run after the binary is found. A failing
	// probe marks the dependency unavailable.
	VersionArgs []string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Version     string
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		if len(req.VersionArgs) > 0 {
			version, err := probeVersion(ctx, path, req.VersionArgs)
			if err != nil {
				status.Detail = fmt.Sprintf("%s %s failed: %v", cmd, strings.Join(req.VersionArgs, " "), err)
				results = append(results, status)
				continue
			}
			status.Version = version
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}

func probeVersion(ctx context.Context, path string, args []string) (string, error) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	out, err := exec.CommandContext(probeCtx, path, args...).Output() //nolint:gosec
	if err != nil {
		return "", err
	}
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	return "", nil
}
