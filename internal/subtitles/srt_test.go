package subtitles

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hardsub/internal/cues"
)

func sampleCues() []cues.Cue {
	return []cues.Cue{
		{Index: 1, Start: 1500 * time.Millisecond, End: 3 * time.Second, Text: "第一句"},
		{Index: 2, Start: 3 * time.Second, End: 4*time.Second + 999*time.Millisecond, Text: "second line"},
		{Index: 3, Start: time.Hour + 2*time.Minute, End: time.Hour + 2*time.Minute + time.Millisecond, Text: "x"},
	}
}

func TestFormatLayout(t *testing.T) {
	got := Format(sampleCues()[:2])
	want := "1\n00:00:01,500 --> 00:00:03,000\n第一句\n\n2\n00:00:03,000 --> 00:00:04,999\nsecond line\n"
	if got != want {
		t.Fatalf("Format =\n%q\nwant\n%q", got, want)
	}
	if Format(nil) != "" {
		t.Fatal("empty input should render empty output")
	}
}

func TestParseRoundTrip(t *testing.T) {
	in := sampleCues()
	out, err := Parse(strings.NewReader(Format(in)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d cues, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("cue %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestParseToleratesCRLFAndBOM(t *testing.T) {
	content := "\ufeff1\r\n00:00:00,000 --> 00:00:01,000\r\nhello\r\n\r\n\r\n2\r\n00:00:01,000 --> 00:00:02,000\r\nworld\r\n"
	out, err := Parse(strings.NewReader(content))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(out) != 2 || out[0].Text != "hello" || out[1].End != 2*time.Second {
		t.Fatalf("unexpected cues %+v", out)
	}
}

func TestParseRejectsMalformedBlocks(t *testing.T) {
	for _, content := range []string{
		"one\n00:00:00,000 --> 00:00:01,000\nx\n",
		"1\n00:00:00,000 -> 00:00:01,000\nx\n",
		"1\n00:00:00 --> 00:00:01,000\nx\n",
		"1\n",
	} {
		if _, err := Parse(strings.NewReader(content)); err == nil {
			t.Errorf("expected error for %q", content)
		}
	}
}

func TestValidateSRTContent(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.srt")
	if err := os.WriteFile(good, []byte(Format(sampleCues())), 0o644); err != nil {
		t.Fatal(err)
	}
	if issues := ValidateSRTContent(good, 2*time.Hour); len(issues) != 0 {
		t.Fatalf("unexpected issues %v", issues)
	}
	if issues := ValidateSRTContent(good, time.Minute); len(issues) != 1 || !strings.HasPrefix(issues[0], "duration_mismatch") {
		t.Fatalf("expected duration mismatch, got %v", issues)
	}

	empty := filepath.Join(dir, "empty.srt")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if issues := ValidateSRTContent(empty, 0); len(issues) != 1 || issues[0] != "empty_subtitle_file" {
		t.Fatalf("expected empty file issue, got %v", issues)
	}

	overlap := filepath.Join(dir, "overlap.srt")
	content := "1\n00:00:00,000 --> 00:00:02,000\na\n\n2\n00:00:01,000 --> 00:00:01,000\nb\n"
	if err := os.WriteFile(overlap, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	issues := ValidateSRTContent(overlap, 0)
	if len(issues) != 2 {
		t.Fatalf("expected overlap and non-positive duration issues, got %v", issues)
	}

	if issues := ValidateSRTContent(filepath.Join(dir, "missing.srt"), 0); len(issues) != 1 || !strings.HasPrefix(issues[0], "parse_error") {
		t.Fatalf("expected parse error, got %v", issues)
	}
}
