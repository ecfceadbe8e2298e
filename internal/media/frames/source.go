package frames

import (
	"context"
	"image"
	"time"
)

// VideoInfo is the immutable description of an opened video.
type VideoInfo struct {
	Path string
	// FPS is zero when the container does not report a usable rate.
	FPS float64
	// FrameCount is zero when unknown.
	FrameCount int
	Width      int
	Height     int
	Duration   time.Duration
}

// Source decodes frames sequentially. Next returns io.EOF after the last
// frame. Seek repositions the decode cursor to a frame index; extraction
// never calls it.
type Source interface {
	Info() VideoInfo
	Next(ctx context.Context) (image.Image, error)
	Seek(ctx context.Context, frame int) error
	Close() error
}

// Opener opens a Source for a video path.
type Opener interface {
	Open(ctx context.Context, path string) (Source, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, path string) (Source, error)

func (f OpenerFunc) Open(ctx context.Context, path string) (Source, error) {
	return f(ctx, path)
}
