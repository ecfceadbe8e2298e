package frames

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"testing"
	"time"

	"hardsub/internal/services"
)

type memorySource struct {
	info   VideoInfo
	frames int
	pos    int
}

func (m *memorySource) Info() VideoInfo { return m.info }

func (m *memorySource) Next(context.Context) (image.Image, error) {
	if m.pos >= m.frames {
		return nil, io.EOF
	}
	img := image.NewRGBA(image.Rect(0, 0, m.info.Width, m.info.Height))
	img.Set(0, 0, color.RGBA{R: uint8(m.pos), A: 255})
	m.pos++
	return img, nil
}

func (m *memorySource) Seek(_ context.Context, frame int) error {
	m.pos = frame
	return nil
}

func (m *memorySource) Close() error { return nil }

func TestStride(t *testing.T) {
	tests := []struct {
		fps, cadence float64
		want         int
	}{
		{30, 10, 3},
		{29.97, 10, 3},
		{25, 10, 3},
		{24, 10, 2},
		{60, 10, 6},
		{5, 10, 1},
		{0, 10, 1},
		{30, 0, 1},
	}
	for _, tt := range tests {
		if got := Stride(tt.fps, tt.cadence); got != tt.want {
			t.Errorf("Stride(%v, %v) = %d, want %d", tt.fps, tt.cadence, got, tt.want)
		}
	}
}

func TestSamplerSelectsEveryStrideFrame(t *testing.T) {
	src := &memorySource{info: VideoInfo{FPS: 30, Width: 4, Height: 10}, frames: 10}
	sampler := NewSampler(src, nil, 10)

	var indexes []int
	var stamps []time.Duration
	decodes := 0
	for {
		sample, err := sampler.Next(context.Background(), func(int) { decodes++ })
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		indexes = append(indexes, sample.Index)
		stamps = append(stamps, sample.Timestamp)
	}
	if want := []int{0, 3, 6, 9}; !equalInts(indexes, want) {
		t.Fatalf("indexes = %v, want %v", indexes, want)
	}
	if stamps[1] != 100*time.Millisecond || stamps[3] != 300*time.Millisecond {
		t.Fatalf("timestamps = %v", stamps)
	}
	if decodes != 10 || sampler.Decoded() != 10 {
		t.Fatalf("decoded %d/%d frames, want 10", decodes, sampler.Decoded())
	}
	if _, err := sampler.Next(context.Background(), nil); !errors.Is(err, io.EOF) {
		t.Fatalf("exhausted sampler should keep returning EOF, got %v", err)
	}
}

func TestSamplerUnknownFPSInspectsEveryFrame(t *testing.T) {
	src := &memorySource{info: VideoInfo{Width: 2, Height: 2}, frames: 3}
	sampler := NewSampler(src, nil, 4)
	var stamps []time.Duration
	for {
		sample, err := sampler.Next(context.Background(), nil)
		if err != nil {
			break
		}
		stamps = append(stamps, sample.Timestamp)
	}
	want := []time.Duration{0, 250 * time.Millisecond, 500 * time.Millisecond}
	if len(stamps) != len(want) {
		t.Fatalf("stamps = %v", stamps)
	}
	for i := range want {
		if stamps[i] != want[i] {
			t.Fatalf("stamps = %v, want %v", stamps, want)
		}
	}
}

func TestSamplerCropsRegion(t *testing.T) {
	src := &memorySource{info: VideoInfo{FPS: 10, Width: 8, Height: 100}, frames: 1}
	region := Region{Bottom: 0.8, Top: 0.95}
	sampler := NewSampler(src, &region, 10)
	sample, err := sampler.Next(context.Background(), nil)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	b := sample.Image.Bounds()
	if b.Min.Y != 80 || b.Max.Y != 95 || b.Dx() != 8 {
		t.Fatalf("crop bounds = %v", b)
	}
}

func TestSamplerStopsOnCancellation(t *testing.T) {
	src := &memorySource{info: VideoInfo{FPS: 30, Width: 1, Height: 1}, frames: 100}
	sampler := NewSampler(src, nil, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sampler.Next(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestRegionValidate(t *testing.T) {
	valid := []Region{{0, 1}, {0.8, 0.95}, {0, 0.1}}
	for _, r := range valid {
		if err := r.Validate(); err != nil {
			t.Errorf("%v should be valid: %v", r, err)
		}
	}
	invalid := []Region{{0.5, 0.5}, {0.9, 0.8}, {-0.1, 0.5}, {0.2, 1.1}}
	for _, r := range invalid {
		if err := r.Validate(); !errors.Is(err, services.ErrInvalidRegion) {
			t.Errorf("%v should be rejected, got %v", r, err)
		}
	}
}

func TestParseRegion(t *testing.T) {
	r, err := ParseRegion(" 0.8 , 0.95 ")
	if err != nil || r != (Region{Bottom: 0.8, Top: 0.95}) {
		t.Fatalf("ParseRegion = %v, %v", r, err)
	}
	for _, bad := range []string{"0.8", "a,b", "0.9,0.1", "0,2"} {
		if _, err := ParseRegion(bad); !errors.Is(err, services.ErrInvalidRegion) {
			t.Errorf("ParseRegion(%q) should fail with invalid region, got %v", bad, err)
		}
	}
}

type plainImage struct{ image.Image }

func TestRegionCropWithoutSubImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 10))
	src.Set(1, 5, color.RGBA{G: 200, A: 255})
	out := Region{Bottom: 0.5, Top: 0.7}.Crop(plainImage{src})
	if out.Bounds().Dx() != 4 || out.Bounds().Dy() != 2 {
		t.Fatalf("bounds = %v", out.Bounds())
	}
	if _, g, _, _ := out.At(1, 0).RGBA(); g>>8 != 200 {
		t.Fatalf("pixel not copied, g=%d", g>>8)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
