package frames

import (
	"context"
	"errors"
	"image"
	"io"
	"math"
	"time"

	"hardsub/internal/cues"
)

// DefaultCadence is the default number of inspections per second of video.
const DefaultCadence = 10.0

// Sample is one inspected frame.
type Sample struct {
	Index     int
	Timestamp time.Duration
	Image     image.Image
}

// Sampler walks a Source and yields the frames selected for inspection,
// cropped to the region. Every frame is decoded; unselected frames are
// discarded. A Sampler is single-use.
type Sampler struct {
	src     Source
	region  *Region
	cadence float64
	stride  int
	fps     float64
	next    int
	done    bool
}

// NewSampler builds a Sampler. A nil region passes whole frames through.
// Cadence values <= 0 use DefaultCadence.
func NewSampler(src Source, region *Region, cadence float64) *Sampler {
	if cadence <= 0 || math.IsNaN(cadence) {
		cadence = DefaultCadence
	}
	fps := src.Info().FPS
	return &Sampler{
		src:     src,
		region:  region,
		cadence: cadence,
		stride:  Stride(fps, cadence),
		fps:     fps,
	}
}

// Stride returns the inspection interval in frames: round(fps/cadence),
// at least 1. Unknown fps inspects every frame.
func Stride(fps, cadence float64) int {
	if fps <= 0 || cadence <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return 1
	}
	return max(1, int(math.Round(fps/cadence)))
}

// Stride reports the interval in effect.
func (s *Sampler) Stride() int {
	return s.stride
}

// Decoded returns how many frames have been read from the source.
func (s *Sampler) Decoded() int {
	return s.next
}

// Timestamp returns the presentation time of frame index. Without a usable
// frame rate each frame is assumed to last 1/cadence seconds.
func (s *Sampler) Timestamp(index int) time.Duration {
	if s.fps > 0 {
		return cues.SecondsToDuration(float64(index) / s.fps)
	}
	return cues.SecondsToDuration(float64(index) / s.cadence)
}

// Next decodes forward to the next selected frame. It returns io.EOF when the
// source is exhausted and ctx.Err() as soon as cancellation is observed after
// a decode. onDecode, when non-nil, is called after every decoded frame.
func (s *Sampler) Next(ctx context.Context, onDecode func(decoded int)) (Sample, error) {
	if s.done {
		return Sample{}, io.EOF
	}
	for {
		img, err := s.src.Next(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Sample{}, ctxErr
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.done = true
			}
			return Sample{}, err
		}
		index := s.next
		s.next++
		if onDecode != nil {
			onDecode(s.next)
		}
		if index%s.stride != 0 {
			continue
		}
		if s.region != nil {
			img = s.region.Crop(img)
		}
		return Sample{Index: index, Timestamp: s.Timestamp(index), Image: img}, nil
	}
}
