package recognition

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"hardsub/internal/language"
	"hardsub/internal/services"
)

// TesseractRecognizer drives the tesseract CLI in TSV mode. Each recognised
// line becomes one Detection whose confidence is the mean word confidence.
type TesseractRecognizer struct {
	Binary   string
	Language string
	Timeout  time.Duration
}

// Recognize implements Recognizer.
func (t *TesseractRecognizer) Recognize(ctx context.Context, img image.Image) ([]Detection, error) {
	binary := strings.TrimSpace(t.Binary)
	if binary == "" {
		binary = "tesseract"
	}
	lang := language.ToTesseract(t.Language)

	var input bytes.Buffer
	if err := png.Encode(&input, img); err != nil {
		return nil, services.Wrap(services.ErrRecognition, "recognition", "encode frame", "png encode failed", err)
	}
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, "stdin", "stdout", "--psm", "6", "-l", lang, "tsv") //nolint:gosec
	cmd.Stdin = &input
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, services.Wrap(services.ErrRecognition, "recognition", "run tesseract",
			strings.TrimSpace(stderr.String()), err)
	}
	return parseTesseractTSV(stdout.Bytes())
}

type tsvLine struct {
	words    []string
	confSum  float64
	minX     int
	minY     int
	maxX     int
	maxY     int
	hasWords bool
}

// parseTesseractTSV groups word rows (level 5) by block/paragraph/line.
func parseTesseractTSV(data []byte) ([]Detection, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var order []string
	lines := make(map[string]*tsvLine)
	header := true
	for scanner.Scan() {
		row := scanner.Text()
		if header {
			header = false
			if strings.HasPrefix(row, "level") {
				continue
			}
		}
		fields := strings.Split(row, "\t")
		if len(fields) < 12 || fields[0] != "5" {
			continue
		}
		text := strings.TrimSpace(fields[11])
		conf, err := strconv.ParseFloat(fields[10], 64)
		if err != nil || conf < 0 || text == "" {
			continue
		}
		nums := make([]int, 4)
		for i := range nums {
			nums[i], err = strconv.Atoi(fields[6+i])
			if err != nil {
				return nil, services.Wrap(services.ErrRecognition, "recognition", "parse tesseract output",
					fmt.Sprintf("bad geometry %q", row), err)
			}
		}
		key := fields[2] + "/" + fields[3] + "/" + fields[4]
		line, ok := lines[key]
		if !ok {
			line = &tsvLine{}
			lines[key] = line
			order = append(order, key)
		}
		left, top, width, height := nums[0], nums[1], nums[2], nums[3]
		if !line.hasWords {
			line.minX, line.minY, line.maxX, line.maxY = left, top, left+width, top+height
			line.hasWords = true
		} else {
			line.minX = min(line.minX, left)
			line.minY = min(line.minY, top)
			line.maxX = max(line.maxX, left+width)
			line.maxY = max(line.maxY, top+height)
		}
		line.words = append(line.words, text)
		line.confSum += conf
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrRecognition, "recognition", "parse tesseract output", "read failed", err)
	}

	out := make([]Detection, 0, len(order))
	for _, key := range order {
		line := lines[key]
		out = append(out, Detection{
			Box: []image.Point{
				{X: line.minX, Y: line.minY},
				{X: line.maxX, Y: line.minY},
				{X: line.maxX, Y: line.maxY},
				{X: line.minX, Y: line.maxY},
			},
			Text:       strings.Join(line.words, " "),
			Confidence: line.confSum / float64(len(line.words)) / 100,
		})
	}
	return out, nil
}
