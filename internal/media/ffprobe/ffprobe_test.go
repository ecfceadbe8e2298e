package ffprobe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const sampleJSON = `{
  "streams": [
    {"index": 0, "codec_type": "audio", "codec_name": "aac"},
    {"index": 1, "codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080,
     "avg_frame_rate": "30000/1001", "r_frame_rate": "30000/1001", "nb_frames": "1798"}
  ],
  "format": {"filename": "clip.mp4", "duration": "60.0", "size": "1000"}
}`

func TestParseVideoFields(t *testing.T) {
	result, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	stream, ok := result.VideoStream()
	if !ok || stream.Width != 1920 || stream.Height != 1080 {
		t.Fatalf("unexpected video stream %+v", stream)
	}
	if fps := result.FrameRate(); math.Abs(fps-29.97) > 0.01 {
		t.Fatalf("fps = %v", fps)
	}
	if result.FrameCount() != 1798 {
		t.Fatalf("frames = %d", result.FrameCount())
	}
	if result.DurationSeconds() != 60 {
		t.Fatalf("duration = %v", result.DurationSeconds())
	}
}

func TestFrameCountFallsBackToDuration(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", AvgFrameRate: "0/0", RFrameRate: "25/1"}},
		Format:  Format{Duration: "4.0"},
	}
	if result.FrameRate() != 25 {
		t.Fatalf("fps = %v", result.FrameRate())
	}
	if result.FrameCount() != 100 {
		t.Fatalf("frames = %d", result.FrameCount())
	}
}

func TestHelpersHandleMissingData(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if _, ok := result.VideoStream(); ok {
		t.Fatal("expected no video stream")
	}
	if result.FrameRate() != 0 || result.FrameCount() != 0 || result.DurationSeconds() != 0 {
		t.Fatalf("expected zero values, got %v %v %v", result.FrameRate(), result.FrameCount(), result.DurationSeconds())
	}
	if parseRational("1/0") != 0 || parseRational("24") != 24 {
		t.Fatal("unexpected rational parsing")
	}
}

func TestInspectRunsBinary(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "probe.json")
	if err := os.WriteFile(data, []byte(sampleJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	stub := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\ncat "+data+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	result, err := Inspect(context.Background(), stub, "clip.mp4")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if result.FrameCount() != 1798 {
		t.Fatalf("frames = %d", result.FrameCount())
	}
	if _, err := Inspect(context.Background(), stub, " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
