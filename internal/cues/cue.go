package cues

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cue is one emitted subtitle entry. End is always after Start.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Duration returns End-Start.
func (c Cue) Duration() time.Duration {
	return c.End - c.Start
}

// FormatTimestamp renders d as HH:MM:SS,mmm. Sub-millisecond precision is
// truncated; negative values render as zero.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := int64(d / time.Millisecond)
	hours := ms / 3_600_000
	ms -= hours * 3_600_000
	minutes := ms / 60_000
	ms -= minutes * 60_000
	seconds := ms / 1000
	ms -= seconds * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, ms)
}

// ParseTimestamp is the inverse of FormatTimestamp. A '.' is accepted in
// place of the ',' millisecond separator.
func ParseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(strings.Replace(value, ",", ".", 1))
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("invalid hours in %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minutes in %q", value)
	}
	secPart, msPart, ok := strings.Cut(parts[2], ".")
	if !ok || len(msPart) != 3 {
		return 0, fmt.Errorf("invalid seconds in %q", value)
	}
	seconds, err := strconv.Atoi(secPart)
	if err != nil || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("invalid seconds in %q", value)
	}
	millis, err := strconv.Atoi(msPart)
	if err != nil || millis < 0 {
		return 0, fmt.Errorf("invalid milliseconds in %q", value)
	}
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

// SecondsToDuration converts a floating-point seconds value to a Duration,
// rounding to the nearest nanosecond.
func SecondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds*float64(time.Second) + 0.5)
}
