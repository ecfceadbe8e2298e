package recognition

import (
	"context"
	"image"
)

// Detection is one text box reported by a recognition engine.
type Detection struct {
	// Box is the detected polygon in image coordinates, usually four corners.
	Box        []image.Point
	Text       string
	Confidence float64
}

// Recognizer runs text recognition on a single image.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]Detection, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, img image.Image) ([]Detection, error)

func (f RecognizerFunc) Recognize(ctx context.Context, img image.Image) ([]Detection, error) {
	return f(ctx, img)
}

type serialized struct {
	slot  chan struct{}
	inner Recognizer
}

// Serialized guards r so that at most one Recognize call runs at a time.
// Waiting for the guard honours ctx.
func Serialized(r Recognizer) Recognizer {
	if r == nil {
		return nil
	}
	if _, ok := r.(*serialized); ok {
		return r
	}
	return &serialized{slot: make(chan struct{}, 1), inner: r}
}

func (s *serialized) Recognize(ctx context.Context, img image.Image) ([]Detection, error) {
	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.slot }()
	return s.inner.Recognize(ctx, img)
}
