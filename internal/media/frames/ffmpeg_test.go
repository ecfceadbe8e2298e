package frames

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestOpenFFmpegKeepsCodedFrameSize(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "rotated.mp4")
	if err := os.WriteFile(video, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	argsFile := filepath.Join(dir, "args.txt")
	ffprobe := writeScript(t, dir, "ffprobe", `cat <<'JSON'
{"streams":[{"index":0,"codec_type":"video","width":4,"height":2,"avg_frame_rate":"10/1","nb_frames":"2",
 "side_data_list":[{"rotation":-90}]}],"format":{"duration":"0.200000"}}
JSON`)
	ffmpeg := writeScript(t, dir, "ffmpeg", `printf '%s\n' "$@" > '`+argsFile+`'
head -c 64 /dev/zero`)

	src, err := OpenFFmpeg(context.Background(), ffmpeg, ffprobe, video)
	if err != nil {
		t.Fatalf("OpenFFmpeg: %v", err)
	}
	defer src.Close()

	for i := range 2 {
		img, err := src.Next(context.Background())
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
			t.Fatalf("frame %d bounds = %v, want 4x2", i, b)
		}
	}
	if _, err := src.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after two frames, got %v", err)
	}

	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read ffmpeg args: %v", err)
	}
	args := strings.Split(strings.TrimSpace(string(data)), "\n")
	rotate := slices.Index(args, "-noautorotate")
	input := slices.Index(args, "-i")
	if rotate < 0 || input < 0 || rotate > input {
		t.Fatalf("ffmpeg args %q should disable autorotation before the input", args)
	}
}
