package testsupport

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"
	"time"

	"hardsub/internal/media/frames"
	"hardsub/internal/recognition"
	"hardsub/internal/services"
)

// Script describes a fake video: its stream metadata and the subtitle text
// visible on each frame.
type Script struct {
	FPS    float64
	Frames int
	// TextAt returns the text burned into frame i; "" means none.
	TextAt func(frame int) string
	// OpenErr makes Open fail.
	OpenErr error
	// RecognizeErrAt makes recognition of these frames fail.
	RecognizeErrAt map[int]bool
	// OnRecognize runs before each recognition of this video.
	OnRecognize func(ctx context.Context, frame int)
	// Delay is added to each recognition call.
	Delay time.Duration
	// Panic makes Open panic.
	Panic bool
}

// Timeline builds a TextAt function from (seconds, text) spans at fps.
func Timeline(fps float64, spans ...Span) func(int) string {
	return func(frame int) string {
		t := float64(frame) / fps
		for _, s := range spans {
			if t >= s.From && t < s.To {
				return s.Text
			}
		}
		return ""
	}
}

// Span is a [From, To) interval in seconds showing Text.
type Span struct {
	From, To float64
	Text     string
}

// FakeMedia is both a frames.Opener and a recognition.Recognizer. Frames
// carry the video id and frame index in their pixels so the recognizer can
// answer from the script even after cropping.
type FakeMedia struct {
	mu      sync.Mutex
	scripts map[string]*Script
	ids     map[int]string
	opened  map[string]int
}

// NewFakeMedia returns an empty FakeMedia.
func NewFakeMedia() *FakeMedia {
	return &FakeMedia{
		scripts: make(map[string]*Script),
		ids:     make(map[int]string),
		opened:  make(map[string]int),
	}
}

// Add registers a script for path.
func (m *FakeMedia) Add(path string, script Script) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := len(m.ids) + 1
	s := script
	m.scripts[path] = &s
	m.ids[id] = path
}

// Opened reports how many times path was opened.
func (m *FakeMedia) Opened(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened[path]
}

// Open implements frames.Opener.
func (m *FakeMedia) Open(_ context.Context, path string) (frames.Source, error) {
	m.mu.Lock()
	script, ok := m.scripts[path]
	id := 0
	for k, v := range m.ids {
		if v == path {
			id = k
		}
	}
	m.opened[path]++
	m.mu.Unlock()

	if !ok {
		return nil, services.Wrap(services.ErrSourceUnavailable, "decode", "open video", path+" not found", nil)
	}
	if script.Panic {
		panic("fake decoder crashed")
	}
	if script.OpenErr != nil {
		return nil, script.OpenErr
	}
	return &fakeSource{id: id, script: script, info: frames.VideoInfo{
		Path:       path,
		FPS:        script.FPS,
		FrameCount: script.Frames,
		Width:      4,
		Height:     20,
		Duration:   time.Duration(float64(script.Frames) / max(script.FPS, 1) * float64(time.Second)),
	}}, nil
}

// Recognize implements recognition.Recognizer.
func (m *FakeMedia) Recognize(ctx context.Context, img image.Image) ([]recognition.Detection, error) {
	id, frame := decodePixel(img)
	m.mu.Lock()
	script := m.scripts[m.ids[id]]
	m.mu.Unlock()
	if script == nil {
		return nil, fmt.Errorf("unknown video id %d", id)
	}
	if script.OnRecognize != nil {
		script.OnRecognize(ctx, frame)
	}
	if script.Delay > 0 {
		select {
		case <-time.After(script.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if script.RecognizeErrAt[frame] {
		return nil, errors.New("engine failure")
	}
	if script.TextAt == nil {
		return nil, nil
	}
	text := script.TextAt(frame)
	if text == "" {
		return nil, nil
	}
	return []recognition.Detection{{Text: text, Confidence: 0.99}}, nil
}

type fakeSource struct {
	id     int
	script *Script
	info   frames.VideoInfo
	pos    int
	closed bool
}

func (s *fakeSource) Info() frames.VideoInfo { return s.info }

func (s *fakeSource) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.closed || s.pos >= s.script.Frames {
		return nil, io.EOF
	}
	img := image.NewRGBA(image.Rect(0, 0, s.info.Width, s.info.Height))
	for y := 0; y < s.info.Height; y++ {
		img.Set(0, y, color.RGBA{R: uint8(s.id), A: 255})
		img.Set(1, y, color.RGBA{R: uint8(s.pos >> 16), G: uint8(s.pos >> 8), B: uint8(s.pos), A: 255})
	}
	s.pos++
	return img, nil
}

func (s *fakeSource) Seek(_ context.Context, frame int) error {
	s.pos = frame
	return nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

func decodePixel(img image.Image) (int, int) {
	b := img.Bounds()
	r, _, _, _ := img.At(b.Min.X, b.Min.Y).RGBA()
	fr, fg, fb, _ := img.At(b.Min.X+1, b.Min.Y).RGBA()
	return int(r >> 8), int(fr>>8)<<16 | int(fg>>8)<<8 | int(fb>>8)
}
