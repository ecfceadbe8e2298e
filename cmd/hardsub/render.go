package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"hardsub/internal/services"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiDim    = "\x1b[2m"
)

const checkLabelWidth = 18

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func renderCheckLine(label string, passed bool, detail string, colorize bool) string {
	status := "OK"
	color := ansiGreen
	if !passed {
		status = "FAIL"
		color = ansiRed
	}
	line := fmt.Sprintf("  %-*s [%s] %s", checkLabelWidth, label+":", status, detail)
	if colorize {
		return color + line + ansiReset
	}
	return line
}

func colorStatus(status services.Status, colorize bool) string {
	label := string(status)
	if !colorize {
		return label
	}
	switch status {
	case services.StatusSucceeded:
		return ansiGreen + label + ansiReset
	case services.StatusFailed:
		return ansiRed + label + ansiReset
	case services.StatusInterrupted, services.StatusEmpty:
		return ansiYellow + label + ansiReset
	case services.StatusSkipped:
		return ansiDim + label + ansiReset
	default:
		return label
	}
}

func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

// shortPath trims long paths to their last two elements for tables.
func shortPath(path string) string {
	if path == "" {
		return "-"
	}
	dir, file := filepath.Split(filepath.Clean(path))
	parent := filepath.Base(strings.TrimSuffix(dir, string(filepath.Separator)))
	if parent == "." || parent == string(filepath.Separator) || parent == "" {
		return file
	}
	return filepath.Join(parent, file)
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
