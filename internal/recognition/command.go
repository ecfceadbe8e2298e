package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"os/exec"
	"strings"
	"time"

	"hardsub/internal/services"
)

// CommandRecognizer runs an external program once per frame. The frame is
// written to the program's stdin as PNG; the program prints a JSON array of
// detections on stdout:
//
//	[{"box": [[x,y],[x,y],[x,y],[x,y]], "text": "...", "confidence": 0.97}]
//
// The configured language is exported as HARDSUB_OCR_LANG.
type CommandRecognizer struct {
	Binary   string
	Args     []string
	Language string
	Timeout  time.Duration
}

type commandDetection struct {
	Box        [][]float64 `json:"box"`
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
}

// Recognize implements Recognizer.
func (c *CommandRecognizer) Recognize(ctx context.Context, img image.Image) ([]Detection, error) {
	binary := strings.TrimSpace(c.Binary)
	if binary == "" {
		return nil, services.Wrap(services.ErrConfiguration, "recognition", "run engine", "no recognition command configured", nil)
	}

	var input bytes.Buffer
	if err := png.Encode(&input, img); err != nil {
		return nil, services.Wrap(services.ErrRecognition, "recognition", "encode frame", "png encode failed", err)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, c.Args...) //nolint:gosec
	cmd.Stdin = &input
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if lang := strings.TrimSpace(c.Language); lang != "" {
		cmd.Env = append(os.Environ(), "HARDSUB_OCR_LANG="+lang)
	}
	if err := cmd.Run(); err != nil {
		return nil, services.Wrap(services.ErrRecognition, "recognition", "run engine",
			fmt.Sprintf("%s failed: %s", binary, strings.TrimSpace(stderr.String())), err)
	}
	return parseCommandOutput(stdout.Bytes())
}

func parseCommandOutput(data []byte) ([]Detection, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	var raw []commandDetection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, services.Wrap(services.ErrRecognition, "recognition", "parse engine output", "invalid JSON", err)
	}
	out := make([]Detection, 0, len(raw))
	for _, item := range raw {
		det := Detection{Text: item.Text, Confidence: item.Confidence}
		for _, pt := range item.Box {
			if len(pt) < 2 {
				continue
			}
			det.Box = append(det.Box, image.Pt(int(math.Round(pt[0])), int(math.Round(pt[1]))))
		}
		out = append(out, det)
	}
	return out, nil
}
