// Package deps reports whether the external binaries hardsub shells out to
// are installed.
package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"hardsub/internal/config"
)

// Requirement defines an external binary hardsub relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	// VersionArgs are passed to the binary to obtain a version banner. Empty
	// skips the probe.
	VersionArgs []string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Path        string
	Description string
	Version     string
	Optional    bool
	Available   bool
	Detail      string
}

const versionTimeout = 5 * time.Second

// Requirements lists the binaries the given configuration will execute.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpeg.FFmpegBinary,
			Description: "Decodes video frames",
			VersionArgs: []string{"-hide_banner", "-version"},
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFmpeg.FFprobeBinary,
			Description: "Reads frame rate and frame count",
			VersionArgs: []string{"-hide_banner", "-version"},
		},
	}
	switch cfg.Recognition.Engine {
	case config.EngineTesseract:
		reqs = append(reqs, Requirement{
			Name:        "Tesseract",
			Command:     cfg.Recognition.Command,
			Description: "Recognises subtitle text (tesseract engine)",
			VersionArgs: []string{"--version"},
		})
	default:
		reqs = append(reqs, Requirement{
			Name:        "OCR command",
			Command:     cfg.Recognition.Command,
			Description: "Recognises subtitle text (command engine)",
		})
	}
	return reqs
}

// CheckBinaries resolves each requirement on PATH and, when it declares
// VersionArgs, captures the first line of its version output.
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
		status.Available = true
		status.Path = path
		if len(req.VersionArgs) > 0 {
			status.Version = probeVersion(ctx, path, req.VersionArgs)
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}

func probeVersion(ctx context.Context, path string, args []string) string {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, args...).CombinedOutput()
	if err != nil && len(out) == 0 {
		return ""
	}
	return firstLine(out)
}

func firstLine(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line
		}
	}
	return ""
}
