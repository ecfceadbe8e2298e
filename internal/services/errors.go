package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrInvalidRegion     = errors.New("invalid subtitle region")
	ErrEmptyResult       = errors.New("no subtitles extracted")
	ErrInterrupted       = errors.New("interrupted")
	ErrRecognition       = errors.New("recognition failure")
	ErrExternalTool      = errors.New("external tool error")
	ErrValidation        = errors.New("validation error")
	ErrConfiguration     = errors.New("configuration error")
)

// Status is the terminal outcome of one job.
type Status string

const (
	StatusSucceeded   Status = "succeeded"
	StatusEmpty       Status = "empty"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
	StatusSkipped     Status = "skipped"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Interrupted converts a context error into an ErrInterrupted chain while
// keeping the original cause inspectable.
func Interrupted(stage string, cause error) error {
	if cause == nil {
		cause = context.Canceled
	}
	return Wrap(ErrInterrupted, stage, "", "cancellation observed", cause)
}

// JobStatus maps a worker error to the terminal status recorded for the job.
func JobStatus(err error) Status {
	switch {
	case err == nil:
		return StatusSucceeded
	case errors.Is(err, ErrEmptyResult):
		return StatusEmpty
	case errors.Is(err, ErrInterrupted), errors.Is(err, context.Canceled):
		return StatusInterrupted
	default:
		return StatusFailed
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
