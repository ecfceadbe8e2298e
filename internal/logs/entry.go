package logs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"hardsub/internal/logging"
)

// Entry is one decoded JSON log line.
type Entry struct {
	Time      time.Time
	Level     slog.Level
	Message   string
	Component string
	RunID     string
	// JobIndex is -1 for lines not tied to a batch job.
	JobIndex int
	Video    string
	Attrs    map[string]any
}

// ParseEntry decodes a JSON log line. Lines that are not JSON objects report
// false.
func ParseEntry(line string) (Entry, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, false
	}
	entry := Entry{JobIndex: -1, Attrs: map[string]any{}}
	for key, value := range raw {
		switch key {
		case "ts":
			if s, ok := value.(string); ok {
				entry.Time, _ = time.Parse(time.RFC3339Nano, s)
			}
		case "level":
			if s, ok := value.(string); ok {
				_ = entry.Level.UnmarshalText([]byte(s))
			}
		case "msg":
			entry.Message, _ = value.(string)
		case logging.FieldComponent:
			entry.Component, _ = value.(string)
		case logging.FieldRunID:
			entry.RunID, _ = value.(string)
		case logging.FieldVideo:
			entry.Video, _ = value.(string)
		case logging.FieldJobIndex:
			if n, ok := value.(float64); ok {
				entry.JobIndex = int(n)
			}
		case "source":
		default:
			entry.Attrs[key] = value
		}
	}
	return entry, true
}

// Filter selects entries.
type Filter struct {
	MinLevel slog.Level
	// Job keeps only entries for one batch job; negative disables it.
	Job int
}

// Match reports whether entry passes the filter.
func (f Filter) Match(entry Entry) bool {
	if entry.Level < f.MinLevel {
		return false
	}
	if f.Job >= 0 && entry.JobIndex != f.Job {
		return false
	}
	return true
}

// Format renders entry as a single console line with attributes sorted by
// key.
func (e Entry) Format() string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s ", e.Level.String())
	if e.JobIndex >= 0 {
		fmt.Fprintf(&b, "[job %d] ", e.JobIndex)
	} else if e.Component != "" {
		fmt.Fprintf(&b, "[%s] ", e.Component)
	}
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Attrs))
	for key := range e.Attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, e.Attrs[key])
	}
	return b.String()
}
