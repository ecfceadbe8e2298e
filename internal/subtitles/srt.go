package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"hardsub/internal/cues"
)

// Format renders cues as SRT: blocks separated by one blank line, each block
// an index line, a timing line and the text.
func Format(list []cues.Cue) string {
	var b strings.Builder
	for i, cue := range list {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(cue.Index))
		b.WriteByte('\n')
		b.WriteString(cues.FormatTimestamp(cue.Start))
		b.WriteString(" --> ")
		b.WriteString(cues.FormatTimestamp(cue.End))
		b.WriteByte('\n')
		b.WriteString(cue.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// Parse reads SRT content. A UTF-8 BOM and CRLF line endings are accepted.
func Parse(r io.Reader) ([]cues.Cue, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		out   []cues.Cue
		block []string
		line  int
	)
	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		cue, err := parseBlock(block)
		block = block[:0]
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, cue)
		return nil
	}

	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if line == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		if strings.TrimSpace(text) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		block = append(block, text)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseBlock(lines []string) (cues.Cue, error) {
	if len(lines) < 2 {
		return cues.Cue{}, fmt.Errorf("incomplete cue block %q", strings.Join(lines, "\\n"))
	}
	index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return cues.Cue{}, fmt.Errorf("invalid cue index %q", lines[0])
	}
	startText, endText, ok := strings.Cut(lines[1], "-->")
	if !ok {
		return cues.Cue{}, fmt.Errorf("invalid timing line %q", lines[1])
	}
	start, err := cues.ParseTimestamp(startText)
	if err != nil {
		return cues.Cue{}, err
	}
	end, err := cues.ParseTimestamp(endText)
	if err != nil {
		return cues.Cue{}, err
	}
	return cues.Cue{
		Index: index,
		Start: start,
		End:   end,
		Text:  strings.Join(lines[2:], "\n"),
	}, nil
}

// ReadFile parses the SRT file at path.
func ReadFile(path string) ([]cues.Cue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// durationSlack tolerates container durations that round down.
const durationSlack = 5 * time.Second

// ValidateSRTContent checks a written SRT file for format issues.
// Returns a list of issues found; empty slice means validation passed.
func ValidateSRTContent(path string, videoDuration time.Duration) []string {
	var issues []string

	list, err := ReadFile(path)
	if err != nil {
		return append(issues, fmt.Sprintf("parse_error: %v", err))
	}
	if len(list) == 0 {
		return append(issues, "empty_subtitle_file")
	}

	var prevEnd time.Duration
	for i, cue := range list {
		if cue.Index != i+1 {
			issues = append(issues, fmt.Sprintf("index_gap: cue %d has index %d", i+1, cue.Index))
			break
		}
		if cue.End <= cue.Start {
			issues = append(issues, fmt.Sprintf("non_positive_duration: cue %d", cue.Index))
		}
		if cue.Start < prevEnd {
			issues = append(issues, fmt.Sprintf("overlap: cue %d starts before cue %d ends", cue.Index, cue.Index-1))
		}
		if strings.TrimSpace(cue.Text) == "" {
			issues = append(issues, fmt.Sprintf("empty_text: cue %d", cue.Index))
		}
		prevEnd = cue.End
	}

	if videoDuration > 0 {
		if last := list[len(list)-1].End; last > videoDuration+durationSlack {
			issues = append(issues, fmt.Sprintf("duration_mismatch: last cue ends %.1fs after video",
				(last-videoDuration).Seconds()))
		}
	}
	return issues
}
